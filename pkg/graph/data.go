package graph

import "fmt"

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // rectangular solid
	PrimCylinder                      // prism approximating a cylinder along Z
	PrimSphere                        // UV sphere
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimCylinder:
		return "cylinder"
	case PrimSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// BoxData is a box centered on the origin.
type BoxData struct {
	Size Vec3 `json:"size"` // extent along X, Y and Z in mm
}

func (BoxData) nodeData()      {}
func (BoxData) Kind() NodeKind { return NodePrimitive }

// CylinderData is a cylinder along Z centered on the origin. Segments is
// the number of sides; zero means the graph default.
type CylinderData struct {
	Height   float64 `json:"height"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (CylinderData) nodeData()      {}
func (CylinderData) Kind() NodeKind { return NodePrimitive }

// SphereData is a sphere centered on the origin. Segments is the number of
// columns of longitude; zero means the graph default.
type SphereData struct {
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (SphereData) nodeData()      {}
func (SphereData) Kind() NodeKind { return NodePrimitive }

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to the single
// child node. Rotation is applied before translation.
// Created by the (place ...) Lisp form.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees, X then Y then Z
}

func (TransformData) nodeData()      {}
func (TransformData) Kind() NodeKind { return NodeTransform }

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp enumerates the boolean operations.
type BooleanOp int

const (
	OpUnion        BooleanOp = iota // a or b or ...
	OpDifference                    // a minus b minus ...
	OpIntersection                  // a and b and ...
	OpInverse                       // complement of a single child
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	case OpInverse:
		return "inverse"
	default:
		return fmt.Sprintf("BooleanOp(%d)", int(op))
	}
}

// Arity returns the minimum and maximum number of children. A maximum of
// -1 means unbounded.
func (op BooleanOp) Arity() (min, max int) {
	if op == OpInverse {
		return 1, 1
	}
	return 2, -1
}

// BooleanData combines the children left to right: the first child is the
// base and each later child is added, subtracted or intersected in turn.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData()      {}
func (BooleanData) Kind() NodeKind { return NodeBoolean }

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData is a named model. Its children are unioned into one mesh.
// Created by the (model ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData()      {}
func (GroupData) Kind() NodeKind { return NodeGroup }
