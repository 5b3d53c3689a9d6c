package graph

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// namespace scopes node ids so equal paths in other tools never collide.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/carve/node"))

// NodeID is a deterministic identifier for a graph node, derived from the
// node's path in the source (name-based UUID, version 5).
type NodeID uuid.UUID

// ZeroID is the zero NodeID. It never identifies a node.
var ZeroID NodeID

// NewNodeID returns the id for the node at path. Equal paths always give
// equal ids.
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)))
}

// IsZero reports whether id is the zero value.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first 6 bytes of the id in hex, for messages.
func (id NodeID) Short() string {
	return hex.EncodeToString(id[:6])
}

// MarshalText encodes the id in canonical UUID form.
func (id NodeID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText decodes an id in any form accepted by uuid.Parse.
func (id *NodeID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return fmt.Errorf("graph: bad node id: %w", err)
	}
	*id = NodeID(u)
	return nil
}

// Vec3 is a 3-component vector in millimetres or degrees.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// IsZero reports whether every component is zero.
func (v Vec3) IsZero() bool {
	return v == Vec3{}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
