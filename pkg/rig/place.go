package rig

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/errors"
	"github.com/matzehuels/megamini/pkg/observability"
	"github.com/matzehuels/megamini/pkg/perspective"
	"github.com/matzehuels/megamini/pkg/scene"
)

// PlaceOptions select the initial ProxyPlace location of a new place.
// Location wins over UseObserverLocation; with neither the ProxyPlace starts
// at the ProxyField origin.
type PlaceOptions struct {
	// UseObserverLocation starts the ProxyPlace at the ProxyObserver's
	// current rig-space position.
	UseObserverLocation bool
	// Location is an actual-space offset from the rig origin. It is divided
	// by the rig scale to get the ProxyPlace location.
	Location *mgl64.Vec3
}

// CreatePlace adds a Place / ProxyPlace / ProxyPlaceFocus triple to a rig and
// binds the Place's scale, location and rotation to its proxy pair.
// A failure part-way removes the frames created so far.
func (m *Manager) CreatePlace(r *Rig, opts PlaceOptions) (p *Place, err error) {
	defer func() {
		name := ""
		if p != nil {
			name = p.Name
		}
		observability.Rig().OnPlaceCreated(rigName(r), name, err)
	}()

	if err := m.checkManaged(r); err != nil {
		return nil, err
	}
	if opts.Location != nil {
		if err := checkVec("place location", *opts.Location); err != nil {
			return nil, err
		}
	}
	h, arm := m.host, r.Armature

	scale, err := h.Property(arm, "", PropScale)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMissingRig, err, "rig %s has no scale", arm)
	}
	var start mgl64.Vec3
	switch {
	case opts.Location != nil:
		start = perspective.ToProxy(*opts.Location, scale)
	case opts.UseObserverLocation:
		if start, err = h.PosePosition(arm, string(RoleProxyObserver)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read proxy observer")
		}
	}

	p = &Place{Rig: r}
	if err := m.buildPlace(p, start); err != nil {
		m.removePlaceFrames(p)
		return nil, err
	}
	r.Places = append(r.Places, p)
	m.logger.Debug("created place", "armature", arm, "place", p.Name, "proxy_place", p.ProxyPlace, "proxy_location", start)
	return p, nil
}

func (m *Manager) buildPlace(p *Place, start mgl64.Vec3) error {
	h, arm := m.host, p.Rig.Armature
	var err error
	if p.Name, err = m.createFrame(arm, RolePlace, string(RoleObserver)); err != nil {
		return err
	}
	if p.ProxyPlace, err = m.createFrame(arm, RoleProxyPlace, string(RoleProxyField)); err != nil {
		return err
	}
	if p.ProxyPlaceFocus, err = m.createFrame(arm, RoleProxyPlaceFocus, p.ProxyPlace); err != nil {
		return err
	}

	pairing := []struct{ frame, key, value string }{
		{p.Name, TagProxyPlace, p.ProxyPlace},
		{p.Name, TagProxyPlaceFocus, p.ProxyPlaceFocus},
		{p.ProxyPlace, TagPlace, p.Name},
		{p.ProxyPlaceFocus, TagPlace, p.Name},
	}
	for _, t := range pairing {
		if err := h.SetTag(arm, t.frame, t.key, t.value); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "tag %s", t.frame)
		}
	}
	for _, f := range []struct {
		name string
		role Role
	}{{p.Name, RolePlace}, {p.ProxyPlace, RoleProxyPlace}, {p.ProxyPlaceFocus, RoleProxyPlaceFocus}} {
		if err := m.assignShape(p.Rig, f.name, f.role); err != nil {
			return err
		}
	}

	if err := h.SetProperty(arm, p.Name, PropScaleMult, 1); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "set %s", PropScaleMult)
	}
	if err := h.SetRotationMode(arm, p.Name, scene.RotationXYZ); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "set rotation mode")
	}
	for _, d := range placeDrivers(p) {
		if err := h.Bind(arm, d); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "bind %s", d.Output)
		}
	}

	t, err := h.LocalTransform(arm, p.ProxyPlace)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "read %s", p.ProxyPlace)
	}
	t.Location = start
	if err := h.SetLocalTransform(arm, p.ProxyPlace, t); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "place %s", p.ProxyPlace)
	}
	return nil
}

// placeDrivers returns the drivers tying a Place to its proxy pair:
// scale X from the focus distance, scale Y and Z copying X, one location
// driver per axis and a rotation passthrough per axis.
func placeDrivers(p *Place) []scene.Driver {
	proxyObs := string(RoleProxyObserver)
	out := []scene.Driver{{
		Output: scene.Channel{Frame: p.Name, Path: scene.PathScale, Index: 0},
		Vars: []scene.Variable{
			scene.DistanceVar(perspective.VarProxyDist, p.ProxyPlaceFocus, proxyObs),
			scene.PropVar(perspective.VarScale, PropScale),
			scene.PropVar(perspective.VarPower, PropPower),
			scene.PropVar(perspective.VarMinDist, PropMinDist),
			scene.PropVar(perspective.VarMinScale, PropMinScale),
			scene.FramePropVar(perspective.VarScaleMult, p.Name, PropScaleMult),
		},
		Formula: perspective.FormulaScale,
	}}
	for i := 1; i < 3; i++ {
		out = append(out, scene.Driver{
			Output: scene.Channel{Frame: p.Name, Path: scene.PathScale, Index: i},
			Vars: []scene.Variable{
				scene.TransformVar(perspective.VarValue, p.Name, scene.PathScale, 0, scene.SpaceTransform),
			},
			Formula: perspective.FormulaCopy,
		})
	}
	for i := range 3 {
		out = append(out, scene.Driver{
			Output: scene.Channel{Frame: p.Name, Path: scene.PathLocation, Index: i},
			Vars: []scene.Variable{
				scene.TransformVar(perspective.VarProxyPlace, p.ProxyPlace, scene.PathLocation, i, scene.SpaceLocal),
				scene.TransformVar(perspective.VarProxyObserver, proxyObs, scene.PathLocation, i, scene.SpaceLocal),
				scene.PropVar(perspective.VarScale, PropScale),
				scene.TransformVar(perspective.VarPlaceScale, p.Name, scene.PathScale, i, scene.SpaceTransform),
			},
			Formula: perspective.FormulaLocation,
		})
	}
	for i := range 3 {
		out = append(out, scene.Driver{
			Output: scene.Channel{Frame: p.Name, Path: scene.PathRotation, Index: i},
			Vars: []scene.Variable{
				scene.TransformVar(perspective.VarValue, p.ProxyPlace, scene.PathRotation, i, scene.SpaceLocal),
			},
			Formula: perspective.FormulaCopy,
		})
	}
	return out
}

// SetScaleMultiplier sets a place's scale multiplier: its scale when the
// focus sits on the observer, and the numerator of the falloff elsewhere.
func (m *Manager) SetScaleMultiplier(p *Place, v float64) (err error) {
	if p == nil {
		return errors.New(errors.ErrCodeMissingFrame, "no place given")
	}
	defer func() { observability.Rig().OnPlaceUpdated(rigName(p.Rig), p.Name, err) }()

	if err := m.checkPlace(p); err != nil {
		return err
	}
	if err := errors.ValidateFinite(PropScaleMult, v); err != nil {
		return err
	}
	if err := m.host.SetProperty(p.Rig.Armature, p.Name, PropScaleMult, v); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "set %s", PropScaleMult)
	}
	m.logger.Debug("set scale multiplier", "armature", p.Rig.Armature, "place", p.Name, "value", v)
	return nil
}

// ScaleMultiplier reads a place's scale multiplier.
func (m *Manager) ScaleMultiplier(p *Place) (float64, error) {
	if p == nil {
		return 0, errors.New(errors.ErrCodeMissingFrame, "no place given")
	}
	if err := m.checkPlace(p); err != nil {
		return 0, err
	}
	v, err := m.host.Property(p.Rig.Armature, p.Name, PropScaleMult)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeMissingFrame, err, "place %s", p.Name)
	}
	return v, nil
}

func (m *Manager) checkPlace(p *Place) error {
	if err := m.checkManaged(p.Rig); err != nil {
		return err
	}
	if !slices.Contains(p.Rig.Places, p) || !m.host.HasFrame(p.Rig.Armature, p.Name) {
		return errors.New(errors.ErrCodeMissingFrame, "place %s does not belong to rig %s", p.Name, p.Rig.Armature)
	}
	return nil
}

// DestroyPlace removes a place's three frames. Objects parented to the Place
// are unparented keeping their world transform.
func (m *Manager) DestroyPlace(p *Place) (err error) {
	if p == nil {
		return errors.New(errors.ErrCodeMissingFrame, "no place given")
	}
	defer func() { observability.Rig().OnPlaceDestroyed(rigName(p.Rig), p.Name, err) }()

	if err := m.checkManaged(p.Rig); err != nil {
		return err
	}
	r := p.Rig
	i := slices.Index(r.Places, p)
	if i < 0 {
		return errors.New(errors.ErrCodeMissingFrame, "place %s does not belong to rig %s", p.Name, r.Armature)
	}
	for _, f := range []string{p.ProxyPlaceFocus, p.ProxyPlace, p.Name} {
		if err := m.host.RemoveFrame(r.Armature, f); err != nil {
			return errors.Wrap(errors.ErrCodeMissingFrame, err, "remove %s", f)
		}
	}
	r.Places = slices.Delete(r.Places, i, i+1)
	m.logger.Debug("destroyed place", "armature", r.Armature, "place", p.Name)
	return nil
}

// removePlaceFrames drops whatever part of a half-built place exists.
func (m *Manager) removePlaceFrames(p *Place) {
	for _, f := range []string{p.ProxyPlaceFocus, p.ProxyPlace, p.Name} {
		if f == "" {
			continue
		}
		if err := m.host.RemoveFrame(p.Rig.Armature, f); err != nil {
			m.logger.Warn("rollback failed", "armature", p.Rig.Armature, "frame", f, "error", err)
		}
	}
}
