package csg

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// InverseMode selects how (*Solid).Inverse behaves.
type InverseMode string

const (
	// InverseFlipTree returns a copy whose tree and retained polygons are
	// flipped. The copy represents the complement of the receiver.
	InverseFlipTree InverseMode = "flip-tree"
	// InverseLegacy reproduces the older behaviour: the retained source
	// polygons of the receiver are flipped in place and an unflipped copy
	// is returned.
	InverseLegacy InverseMode = "legacy"
)

// Default tolerances.
const (
	DefaultEpsilon           = 1e-6
	DefaultWeldTolerance     = 1e-5
	DefaultIntersectionSlack = 1e-4
)

var nopLogger = zap.NewNop().Sugar()

// Options configures tolerances and diagnostics for a Solid. Zero values
// are replaced by the defaults.
type Options struct {
	// Epsilon is the plane thickness used to classify points.
	Epsilon float64 `mapstructure:"epsilon" json:"epsilon"`
	// WeldTolerance is the bucket size used when welding output vertices.
	WeldTolerance float64 `mapstructure:"weld_tolerance" json:"weld_tolerance"`
	// IntersectionSlack is how far outside [-Epsilon, 1+Epsilon] an edge
	// intersection parameter may fall before the fragment is skipped.
	IntersectionSlack float64     `mapstructure:"intersection_slack" json:"intersection_slack"`
	InverseMode       InverseMode `mapstructure:"inverse_mode" json:"inverse_mode"`

	// Logger receives diagnostics about skipped fragments. Nil discards them.
	Logger *zap.SugaredLogger `mapstructure:"-" json:"-"`
}

// DefaultOptions returns the default tolerances with a no-op logger.
func DefaultOptions() Options {
	return Options{
		Epsilon:           DefaultEpsilon,
		WeldTolerance:     DefaultWeldTolerance,
		IntersectionSlack: DefaultIntersectionSlack,
		InverseMode:       InverseFlipTree,
	}
}

// Validate reports whether the options are usable after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.Epsilon < 0 {
		return errors.Errorf("csg: epsilon must be positive, got %g", o.Epsilon)
	}
	if o.WeldTolerance < 0 {
		return errors.Errorf("csg: weld tolerance must not be negative, got %g", o.WeldTolerance)
	}
	if o.IntersectionSlack < 0 {
		return errors.Errorf("csg: intersection slack must not be negative, got %g", o.IntersectionSlack)
	}
	switch o.InverseMode {
	case InverseFlipTree, InverseLegacy:
	default:
		return errors.Errorf("csg: unknown inverse mode %q", o.InverseMode)
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Epsilon == 0 {
		o.Epsilon = d.Epsilon
	}
	if o.WeldTolerance == 0 {
		o.WeldTolerance = d.WeldTolerance
	}
	if o.IntersectionSlack == 0 {
		o.IntersectionSlack = d.IntersectionSlack
	}
	if o.InverseMode == "" {
		o.InverseMode = d.InverseMode
	}
	return o
}

func (o Options) resolve() (Options, error) {
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o.withDefaults(), nil
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Logger == nil {
		return nopLogger
	}
	return o.Logger
}

// DecodeOptions overlays a loosely typed attribute map onto base. Keys
// follow the mapstructure tags on Options; unknown keys are an error.
func DecodeOptions(base Options, raw map[string]interface{}) (Options, error) {
	out := base
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Options{}, errors.Wrap(err, "csg: building options decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return Options{}, errors.Wrap(err, "csg: decoding options")
	}
	if err := out.Validate(); err != nil {
		return Options{}, err
	}
	return out, nil
}
