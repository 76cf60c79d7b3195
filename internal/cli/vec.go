package cli

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"

	"github.com/matzehuels/megamini/pkg/errors"
)

// parseVec parses "x,y,z" into a vector. Spaces around components are
// ignored; every component must be a finite number.
func parseVec(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, errors.New(errors.ErrCodeInvalidParameter, "expected x,y,z, got %q", s)
	}
	var v mgl64.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mgl64.Vec3{}, errors.Wrap(errors.ErrCodeInvalidParameter, err, "component %d of %q", i, s)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return mgl64.Vec3{}, errors.New(errors.ErrCodeInvalidParameter, "component %d of %q must be finite", i, s)
		}
		v[i] = f
	}
	return v, nil
}

// vecValue is a pflag.Value holding an optional "x,y,z" vector.
type vecValue struct {
	v   mgl64.Vec3
	set bool
}

var _ pflag.Value = (*vecValue)(nil)

func (f *vecValue) String() string {
	if !f.set {
		return ""
	}
	return fmtVec(f.v)
}

func (f *vecValue) Set(s string) error {
	v, err := parseVec(s)
	if err != nil {
		return err
	}
	f.v, f.set = v, true
	return nil
}

func (f *vecValue) Type() string { return "x,y,z" }

// ptr returns the vector, or nil when the flag was not given.
func (f *vecValue) ptr() *mgl64.Vec3 {
	if !f.set {
		return nil
	}
	v := f.v
	return &v
}
