// Package graph defines the design graph types for Carve.
// The design graph is an immutable DAG of primitives, transforms,
// boolean operations and models that describes a solid design.
package graph
