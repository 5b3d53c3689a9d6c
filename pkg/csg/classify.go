package csg

// Classification locates a point or polygon relative to a plane.
type Classification uint8

const (
	Coplanar Classification = 0
	Front    Classification = 1
	Back     Classification = 2
	Spanning Classification = Front | Back
)

// Combine merges two classifications. A polygon with vertices on both
// sides of a plane combines to Spanning.
func (c Classification) Combine(o Classification) Classification {
	return (c | o) & Spanning
}

// Has reports whether c includes the side s.
func (c Classification) Has(s Classification) bool {
	return c&s == s && s != Coplanar
}

func (c Classification) String() string {
	switch c {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return "unknown"
	}
}
