// Package perspective implements the forced-perspective formulas of a
// MegaMini rig.
//
// # Overview
//
// Authors position the observer and every place in proxy space, a uniformly
// shrunk copy of the scene that is easy to manipulate. Actual-space places are
// derived from it: their distance from the observer is multiplied back up by
// the rig scale, and then everything is shrunk and pulled towards the observer
// as a function of proxy distance. Far objects look small and close together,
// which is the "condensed space" illusion.
//
// # Scale Falloff
//
// [ScaleFactor] computes the uniform scale of a place:
//
//	raw    = 1 + max(0, scale*dist - fp_min_dist)
//	factor = max(fp_min_scale, multiplier / raw**fp_power)
//
// A power of 0.5 gives the inverse square root falloff that looks natural on
// screen. A power of zero disables the effect. A negative power makes objects
// grow with distance and is accepted as is.
//
// # Location
//
// [PlaceLocation] computes the actual-space location of a place relative to
// the Observer:
//
//	location[i] = (proxyPlace[i] - proxyObserver[i]) * scale * placeScale[i]
//
// Each axis uses its own scale component, so a non-uniform place scale would
// be honoured even though the rig only produces uniform ones.
//
// # Formulas
//
// The same math is registered with the [expr] registry under the Formula*
// names so the host scene can evaluate it as channel drivers. The variable
// names each formula reads are exported as Var* constants.
//
// [expr]: github.com/matzehuels/megamini/pkg/expr
package perspective
