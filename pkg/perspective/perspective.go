package perspective

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/errors"
)

// Default rig parameters, matching the values offered for new rigs.
const (
	DefaultScale    = 1000.0
	DefaultPower    = 0.5
	DefaultMinDist  = 0.0
	DefaultMinScale = 0.0
)

// Params are the rig-wide inputs of the forced-perspective formulas.
type Params struct {
	// Scale divides actual distances to get proxy distances. Must be > 0.
	Scale float64 `json:"scale" toml:"scale" env:"SCALE"`
	// Power is the falloff exponent. Zero disables the effect.
	Power float64 `json:"fp_power" toml:"fp_power" env:"FP_POWER"`
	// MinDist is the actual-space distance below which no falloff applies.
	MinDist float64 `json:"fp_min_dist" toml:"fp_min_dist" env:"FP_MIN_DIST"`
	// MinScale is the floor on the computed scale factor.
	MinScale float64 `json:"fp_min_scale" toml:"fp_min_scale" env:"FP_MIN_SCALE"`
}

// DefaultParams returns the parameters used when none are given.
func DefaultParams() Params {
	return Params{
		Scale:    DefaultScale,
		Power:    DefaultPower,
		MinDist:  DefaultMinDist,
		MinScale: DefaultMinScale,
	}
}

// Validate checks that the parameters describe a usable rig.
// The scale must be positive; the other values only need to be finite.
func (p Params) Validate() error {
	if err := errors.ValidateScale(p.Scale); err != nil {
		return err
	}
	if err := errors.ValidateFinite("fp_power", p.Power); err != nil {
		return err
	}
	if err := errors.ValidateFinite("fp_min_dist", p.MinDist); err != nil {
		return err
	}
	return errors.ValidateFinite("fp_min_scale", p.MinScale)
}

// ScaleFactor returns the uniform scale of a place whose focus is dist away
// from the ProxyObserver in proxy space.
//
// At dist == 0 the result is multiplier (or MinScale if that is larger), for
// every power.
func ScaleFactor(p Params, dist, multiplier float64) float64 {
	raw := 1 + math.Max(0, p.Scale*dist-p.MinDist)
	return math.Max(p.MinScale, multiplier/math.Pow(raw, p.Power))
}

// PlaceLocation returns the actual-space local location of a place from the
// ProxyPlace and ProxyObserver local locations, the rig scale and the place's
// own scale. Each axis is computed independently.
func PlaceLocation(proxyPlace, proxyObserver mgl64.Vec3, scale float64, placeScale mgl64.Vec3) mgl64.Vec3 {
	var loc mgl64.Vec3
	for i := range 3 {
		loc[i] = AxisLocation(proxyPlace[i], proxyObserver[i], scale, placeScale[i])
	}
	return loc
}

// AxisLocation is the single-axis form of [PlaceLocation].
func AxisLocation(proxyPlace, proxyObserver, scale, placeScale float64) float64 {
	return (proxyPlace - proxyObserver) * scale * placeScale
}

// ToProxy converts an actual-space offset into proxy space.
func ToProxy(actual mgl64.Vec3, scale float64) mgl64.Vec3 {
	return actual.Mul(1 / scale)
}

// ObserverInfluence is the weight with which the ProxyObserver follows the
// Observer: one proxy unit per scale actual units.
func ObserverInfluence(scale float64) float64 {
	return 1 / scale
}
