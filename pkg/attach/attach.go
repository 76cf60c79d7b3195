package attach

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/errors"
	"github.com/matzehuels/megamini/pkg/observability"
	"github.com/matzehuels/megamini/pkg/perspective"
	"github.com/matzehuels/megamini/pkg/rig"
)

// Attach modes reported to observability hooks.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Policy controls how an attach treats its inputs.
type Policy struct {
	// NoReparent skips objects that already have a parent.
	NoReparent bool `toml:"no_reparent" env:"NO_REPARENT"`
	// PrecreateIfMissing creates a rig with Defaults when none is given.
	PrecreateIfMissing bool `toml:"precreate_rig" env:"PRECREATE_RIG"`
	// Defaults are the parameters of a precreated rig.
	Defaults perspective.Params `toml:"-" env:"-"`
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		NoReparent:         true,
		PrecreateIfMissing: true,
		Defaults:           perspective.DefaultParams(),
	}
}

// Result describes a completed attach.
type Result struct {
	// Rig the objects were attached to.
	Rig *rig.Rig
	// Precreated is true if Rig was created by this attach.
	Precreated bool
	// Places created, in creation order.
	Places []*rig.Place
	// Attached objects, in selection order.
	Attached []string
	// Skipped objects: already parented under NoReparent, or parts of the
	// rig itself.
	Skipped []string
}

// Attacher runs attach operations against a rig manager.
type Attacher struct {
	m      *rig.Manager
	policy Policy
	logger *log.Logger
}

// New returns an attacher. If logger is nil, log.Default() is used.
func New(m *rig.Manager, policy Policy, logger *log.Logger) *Attacher {
	if logger == nil {
		logger = log.Default()
	}
	return &Attacher{m: m, policy: policy, logger: logger}
}

// Policy returns the attacher's policy.
func (a *Attacher) Policy() Policy { return a.policy }

// Single creates one Place at the current ProxyObserver position and parents
// every accepted object to it, keeping world transforms. A nil rig is
// precreated if the policy allows it.
func (a *Attacher) Single(r *rig.Rig, objects []string) (res *Result, err error) {
	defer func() { a.report(ModeSingle, r, res, err) }()

	sel, err := a.prepare(r, objects)
	if err != nil {
		return nil, err
	}
	tx := a.begin()
	res, err = a.single(tx, r, sel)
	if err != nil {
		tx.rollback()
		return nil, err
	}
	a.logger.Debug("attached objects", "mode", ModeSingle, "rig", res.Rig.Armature,
		"place", res.Places[0].Name, "attached", res.Attached, "skipped", res.Skipped)
	return res, nil
}

func (a *Attacher) single(tx *txn, r *rig.Rig, sel selection) (*Result, error) {
	res, err := a.resolveRig(tx, r)
	if err != nil {
		return nil, err
	}
	h := a.m.Host()
	p, err := a.createPlace(tx, res.Rig, rig.PlaceOptions{UseObserverLocation: true})
	if err != nil {
		return nil, err
	}
	res.Places = append(res.Places, p)
	if err := h.Evaluate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "evaluate")
	}

	for _, obj := range sel.objects {
		if a.skip(res.Rig, obj) {
			res.Skipped = append(res.Skipped, obj)
			continue
		}
		tx.saveObject(obj)
		if err := h.Reparent(obj, res.Rig.Armature, p.Name, nil); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "parent %s to %s", obj, p.Name)
		}
		res.Attached = append(res.Attached, obj)
	}
	return res, nil
}

// Multi creates one Place per accepted object at the object's world position
// relative to cursor, zeroes the object's location and parents it to its
// Place with a correction that cancels the Place's tail offset. A nil rig is
// precreated if the policy allows it.
func (a *Attacher) Multi(r *rig.Rig, objects []string, cursor mgl64.Vec3) (res *Result, err error) {
	defer func() { a.report(ModeMulti, r, res, err) }()

	sel, err := a.prepare(r, objects)
	if err != nil {
		return nil, err
	}
	for i, c := range cursor {
		if err := errors.ValidateFinite(fmt.Sprintf("cursor[%d]", i), c); err != nil {
			return nil, err
		}
	}
	tx := a.begin()
	res, err = a.multi(tx, r, sel, cursor)
	if err != nil {
		tx.rollback()
		return nil, err
	}
	a.logger.Debug("attached objects", "mode", ModeMulti, "rig", res.Rig.Armature,
		"places", len(res.Places), "attached", res.Attached, "skipped", res.Skipped)
	return res, nil
}

func (a *Attacher) multi(tx *txn, r *rig.Rig, sel selection, cursor mgl64.Vec3) (*Result, error) {
	res, err := a.resolveRig(tx, r)
	if err != nil {
		return nil, err
	}
	h := a.m.Host()
	correction := mgl64.Vec3{0, -rig.RestTail(rig.RolePlace).Y(), 0}

	for _, obj := range sel.objects {
		if a.skip(res.Rig, obj) {
			res.Skipped = append(res.Skipped, obj)
			continue
		}
		world, err := h.ObjectWorldPosition(obj)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "locate %s", obj)
		}
		loc := world.Sub(cursor)
		p, err := a.createPlace(tx, res.Rig, rig.PlaceOptions{UseObserverLocation: true, Location: &loc})
		if err != nil {
			return nil, err
		}
		res.Places = append(res.Places, p)

		tx.saveObject(obj)
		if err := h.SetObjectLocation(obj, mgl64.Vec3{}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "zero %s", obj)
		}
		if err := h.Reparent(obj, res.Rig.Armature, p.Name, &correction); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "parent %s to %s", obj, p.Name)
		}
		res.Attached = append(res.Attached, obj)
	}
	if err := h.Evaluate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "evaluate")
	}
	return res, nil
}

// selection is a validated, de-duplicated object list.
type selection struct {
	objects []string
}

// prepare validates everything an attach needs before the scene is touched.
func (a *Attacher) prepare(r *rig.Rig, objects []string) (selection, error) {
	if len(objects) == 0 {
		return selection{}, errors.New(errors.ErrCodeNoObjectsSelected, "no objects selected")
	}
	h := a.m.Host()
	var sel selection
	for _, obj := range objects {
		if slices.Contains(sel.objects, obj) {
			continue
		}
		if _, err := h.Object(obj); err != nil {
			return selection{}, errors.Wrap(errors.ErrCodeMissingObject, err, "selected object %q", obj)
		}
		sel.objects = append(sel.objects, obj)
	}

	if r != nil {
		// Fails on a foreign rig, a rig missing a mandatory frame, or one
		// without its parameters.
		if _, err := a.m.Params(r); err != nil {
			return selection{}, err
		}
		return sel, nil
	}
	if !a.policy.PrecreateIfMissing {
		return selection{}, errors.New(errors.ErrCodeMissingRig, "no MegaMini rig given and precreate is disabled")
	}
	if err := a.policy.Defaults.Validate(); err != nil {
		return selection{}, errors.Wrap(errors.ErrCodeInvalidParameter, err, "cannot precreate rig")
	}
	return sel, nil
}

func (a *Attacher) resolveRig(tx *txn, r *rig.Rig) (*Result, error) {
	if r != nil {
		return &Result{Rig: r}, nil
	}
	r, err := a.m.CreateRig(a.policy.Defaults)
	if err != nil {
		return nil, err
	}
	tx.push(func() error { return a.m.DestroyRig(r) })
	return &Result{Rig: r, Precreated: true}, nil
}

func (a *Attacher) createPlace(tx *txn, r *rig.Rig, opts rig.PlaceOptions) (*rig.Place, error) {
	p, err := a.m.CreatePlace(r, opts)
	if err != nil {
		return nil, err
	}
	tx.push(func() error { return a.m.DestroyPlace(p) })
	return p, nil
}

// skip reports whether an object is left alone: it belongs to the rig, or it
// already has a parent and the policy forbids reparenting.
func (a *Attacher) skip(r *rig.Rig, obj string) bool {
	for _, w := range r.Widgets() {
		if w == obj {
			return true
		}
	}
	if !a.policy.NoReparent {
		return false
	}
	_, parented := a.m.Host().ObjectParent(obj)
	return parented
}

func (a *Attacher) report(mode string, r *rig.Rig, res *Result, err error) {
	name := ""
	attached, skipped := 0, 0
	switch {
	case res != nil:
		name = res.Rig.Armature
		attached, skipped = len(res.Attached), len(res.Skipped)
	case r != nil:
		name = r.Armature
	}
	observability.Rig().OnAttach(name, mode, attached, skipped, err)
}

// txn is an undo stack for one attach.
type txn struct {
	a    *Attacher
	undo []func() error
}

func (a *Attacher) begin() *txn { return &txn{a: a} }

func (tx *txn) push(f func() error) { tx.undo = append(tx.undo, f) }

// saveObject records an object's local transform and parenting so it can be
// restored verbatim.
func (tx *txn) saveObject(name string) {
	h := tx.a.m.Host()
	info, err := h.Object(name)
	if err != nil {
		return
	}
	tx.push(func() error {
		if err := h.SetParent(name, info.Parent, info.ParentInverse); err != nil {
			return err
		}
		return h.SetObjectTransform(name, info.Local)
	})
}

// rollback runs the undo stack in reverse. Objects are restored before the
// places they were parented to are removed.
func (tx *txn) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		if err := tx.undo[i](); err != nil {
			tx.a.logger.Warn("attach rollback step failed", "error", err)
		}
	}
	tx.undo = nil
}
