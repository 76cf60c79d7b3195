package perspective_test

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/perspective"
)

func ExampleScaleFactor() {
	p := perspective.DefaultParams()

	// A place two proxy units away from the observer, 2000 actual units
	fmt.Printf("%.5f\n", perspective.ScaleFactor(p, 2, 1))
	// At the observer nothing shrinks
	fmt.Printf("%.5f\n", perspective.ScaleFactor(p, 0, 1))
	// Output:
	// 0.02236
	// 1.00000
}

func ExamplePlaceLocation() {
	proxyPlace := mgl64.Vec3{0, 2, 0}
	proxyObserver := mgl64.Vec3{0, 0, 0}
	scale := perspective.ScaleFactor(perspective.DefaultParams(), 2, 1)

	loc := perspective.PlaceLocation(proxyPlace, proxyObserver, 1000, mgl64.Vec3{scale, scale, scale})
	fmt.Printf("%.2f\n", loc.Y())
	// Output:
	// 44.71
}
