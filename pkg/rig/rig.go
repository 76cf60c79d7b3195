package rig

import (
	"fmt"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/matzehuels/megamini/pkg/errors"
	"github.com/matzehuels/megamini/pkg/observability"
	"github.com/matzehuels/megamini/pkg/perspective"
	"github.com/matzehuels/megamini/pkg/scene"
)

// Rig is a forced-perspective rig living in one host armature.
type Rig struct {
	// ID is a stable identifier stored as an armature tag.
	ID string
	// Armature is the host armature holding the rig's frames.
	Armature string
	// Places in creation order.
	Places []*Place

	widgets map[WidgetRole]string
}

// Place is one Place / ProxyPlace / ProxyPlaceFocus triple.
type Place struct {
	Name            string // Place frame
	ProxyPlace      string
	ProxyPlaceFocus string

	// Rig is the owning rig.
	Rig *Rig
}

// Widgets returns the rig's widget objects by role. The map is a copy.
func (r *Rig) Widgets() map[WidgetRole]string { return maps.Clone(r.widgets) }

// Place returns the place whose Place frame is name.
func (r *Rig) Place(name string) (*Place, bool) {
	for _, p := range r.Places {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Manager creates, destroys and tracks rigs on a host.
type Manager struct {
	host   Host
	logger *log.Logger
	rigs   map[string]*Rig // by armature
}

// NewManager returns a manager for host. If logger is nil, log.Default() is
// used.
func NewManager(host Host, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{host: host, logger: logger, rigs: make(map[string]*Rig)}
}

// Host returns the host the manager builds on.
func (m *Manager) Host() Host { return m.host }

// Rigs returns every managed rig in armature creation order.
func (m *Manager) Rigs() []*Rig {
	var out []*Rig
	for _, name := range m.host.Armatures() {
		if r, ok := m.rigs[name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Rig returns the rig living in armature, failing with MissingRig.
func (m *Manager) Rig(armature string) (*Rig, error) {
	r, ok := m.rigs[armature]
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingRig, "%q is not a MegaMini rig", armature)
	}
	return r, nil
}

// CreateRig builds a new rig at the scene cursor: the ProxyField,
// ProxyObserver and Observer frames, the rig parameters, the ProxyObserver's
// copy-location constraint with influence 1/scale, and the display widgets.
//
// Invalid parameters fail with InvalidParameter before anything is created.
// A host failure part-way removes everything created so far.
func (m *Manager) CreateRig(p perspective.Params) (r *Rig, err error) {
	defer func() {
		name := ""
		if r != nil {
			name = r.Armature
		}
		observability.Rig().OnRigCreated(name, p.Scale, err)
	}()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	arm, err := m.host.NewArmature(BaseArmatureName, m.host.Cursor())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create armature")
	}
	r = &Rig{ID: uuid.NewString(), Armature: arm, widgets: make(map[WidgetRole]string)}
	if err := m.buildRig(r, p); err != nil {
		m.removeWidgets(r)
		if rmErr := m.host.RemoveArmature(arm); rmErr != nil {
			m.logger.Warn("rollback failed", "armature", arm, "error", rmErr)
		}
		return nil, err
	}

	m.rigs[arm] = r
	m.logger.Debug("created rig", "armature", arm, "id", r.ID, "scale", p.Scale, "fp_power", p.Power)
	return r, nil
}

func (m *Manager) buildRig(r *Rig, p perspective.Params) error {
	h, arm := m.host, r.Armature
	if err := writeParams(h, arm, p); err != nil {
		return err
	}
	if err := h.SetTag(arm, "", TagRole, roleRig); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "tag armature")
	}
	if err := h.SetTag(arm, "", TagRigID, r.ID); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "tag armature")
	}

	field, err := m.createFrame(arm, RoleProxyField, "")
	if err != nil {
		return err
	}
	proxyObs, err := m.createFrame(arm, RoleProxyObserver, field)
	if err != nil {
		return err
	}
	observer, err := m.createFrame(arm, RoleObserver, "")
	if err != nil {
		return err
	}

	idx, err := h.AddCopyLocation(arm, proxyObs, scene.CopyLocation{
		Target:    observer,
		UseOffset: true,
		Influence: perspective.ObserverInfluence(p.Scale),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "constrain %s", proxyObs)
	}
	err = h.Bind(arm, scene.Driver{
		Output:  scene.Channel{Frame: proxyObs, Path: scene.PathInfluence, Index: idx},
		Vars:    []scene.Variable{scene.PropVar(perspective.VarScale, PropScale)},
		Formula: perspective.FormulaInverse,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "bind observer influence")
	}

	if err := m.createWidgets(r, field); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		role Role
	}{{field, RoleProxyField}, {proxyObs, RoleProxyObserver}, {observer, RoleObserver}} {
		if err := m.assignShape(r, f.name, f.role); err != nil {
			return err
		}
	}
	return nil
}

// createFrame creates a frame for role with its rest offsets and role tag.
func (m *Manager) createFrame(arm string, role Role, parent string) (string, error) {
	name, err := m.host.CreateFrame(scene.FrameSpec{
		Armature: arm,
		Name:     string(role),
		Parent:   parent,
		Tail:     RestTail(role),
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create frame %s", role)
	}
	if err := m.host.SetTag(arm, name, TagRole, string(role)); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "tag frame %s", name)
	}
	return name, nil
}

// DestroyRig removes a rig with all its frames, places and widgets.
// Objects attached to its places stay where they are.
func (m *Manager) DestroyRig(r *Rig) (err error) {
	defer func() { observability.Rig().OnRigDestroyed(rigName(r), err) }()

	if err := m.checkManaged(r); err != nil {
		return err
	}
	m.removeWidgets(r)
	if err := m.host.RemoveArmature(r.Armature); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove armature %s", r.Armature)
	}
	delete(m.rigs, r.Armature)
	m.logger.Debug("destroyed rig", "armature", r.Armature, "places", placeNames(r))
	r.Places = nil
	return nil
}

// UpdateParams rewrites the rig parameters. Every place re-evaluates from
// the new values on the next read. Invalid parameters change nothing.
func (m *Manager) UpdateParams(r *Rig, p perspective.Params) (err error) {
	defer func() { observability.Rig().OnParamsUpdated(rigName(r), p.Scale, err) }()

	if err := m.checkManaged(r); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	old, err := readParams(m.host, r.Armature)
	if err != nil {
		return err
	}
	if err := writeParams(m.host, r.Armature, p); err != nil {
		if rbErr := writeParams(m.host, r.Armature, old); rbErr != nil {
			m.logger.Warn("rollback failed", "armature", r.Armature, "error", rbErr)
		}
		return err
	}
	m.logger.Debug("updated rig parameters", "armature", r.Armature, "scale", p.Scale, "fp_power", p.Power,
		"fp_min_dist", p.MinDist, "fp_min_scale", p.MinScale)
	return nil
}

// Params reads the current rig parameters from the host.
func (m *Manager) Params(r *Rig) (perspective.Params, error) {
	if err := m.checkManaged(r); err != nil {
		return perspective.Params{}, err
	}
	return readParams(m.host, r.Armature)
}

// writeParams stores the rig parameters as armature properties, in a fixed
// order.
func writeParams(h Host, arm string, p perspective.Params) error {
	props := []struct {
		key string
		v   float64
	}{
		{PropScale, p.Scale},
		{PropPower, p.Power},
		{PropMinDist, p.MinDist},
		{PropMinScale, p.MinScale},
	}
	for _, kv := range props {
		if err := h.SetProperty(arm, "", kv.key, kv.v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "set %s", kv.key)
		}
	}
	return nil
}

func readParams(h Host, arm string) (perspective.Params, error) {
	var p perspective.Params
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{PropScale, &p.Scale},
		{PropPower, &p.Power},
		{PropMinDist, &p.MinDist},
		{PropMinScale, &p.MinScale},
	} {
		v, err := h.Property(arm, "", f.key)
		if err != nil {
			return perspective.Params{}, errors.Wrap(errors.ErrCodeMissingRig, err, "armature %s lacks rig parameter %s", arm, f.key)
		}
		*f.dst = v
	}
	return p, nil
}

// MoveObserver sets the Observer's local location. The ProxyObserver and
// every place follow on the next read.
func (m *Manager) MoveObserver(r *Rig, loc mgl64.Vec3) error {
	if err := m.checkManaged(r); err != nil {
		return err
	}
	if err := checkVec("observer location", loc); err != nil {
		return err
	}
	t, err := m.host.LocalTransform(r.Armature, string(RoleObserver))
	if err != nil {
		return errors.Wrap(errors.ErrCodeMissingFrame, err, "rig %s", r.Armature)
	}
	t.Location = loc
	if err := m.host.SetLocalTransform(r.Armature, string(RoleObserver), t); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "move observer")
	}
	return nil
}

// Adopt recognizes an existing armature as a rig, typically after a scene
// was loaded. The armature must carry the ProxyField and ProxyObserver
// frames and the rig parameters. Places are paired through their frame tags
// and widgets through their object tags.
func (m *Manager) Adopt(armature string) (*Rig, error) {
	if r, ok := m.rigs[armature]; ok {
		return r, nil
	}
	h := m.host
	if !h.HasArmature(armature) {
		return nil, errors.New(errors.ErrCodeMissingRig, "no armature named %q", armature)
	}
	for _, role := range []Role{RoleProxyField, RoleProxyObserver, RoleObserver} {
		if !h.HasFrame(armature, string(role)) {
			return nil, errors.New(errors.ErrCodeMissingFrame, "armature %s has no %s frame", armature, role)
		}
	}
	if _, err := readParams(h, armature); err != nil {
		return nil, err
	}

	id, ok := h.Tag(armature, "", TagRigID)
	if !ok || id == "" {
		id = uuid.NewString()
		if err := h.SetTag(armature, "", TagRigID, id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "tag armature")
		}
		_ = h.SetTag(armature, "", TagRole, roleRig)
	}
	r := &Rig{ID: id, Armature: armature, widgets: make(map[WidgetRole]string)}

	frames, err := h.Frames(armature)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list frames")
	}
	for _, f := range frames {
		if role, _ := h.Tag(armature, f, TagRole); role != string(RolePlace) {
			continue
		}
		pp, _ := h.Tag(armature, f, TagProxyPlace)
		focus, _ := h.Tag(armature, f, TagProxyPlaceFocus)
		if !h.HasFrame(armature, pp) || !h.HasFrame(armature, focus) {
			return nil, errors.New(errors.ErrCodeMissingFrame, "place %s in %s has no proxy pair", f, armature)
		}
		r.Places = append(r.Places, &Place{Name: f, ProxyPlace: pp, ProxyPlaceFocus: focus, Rig: r})
	}

	for _, name := range h.Objects() {
		info, err := h.Object(name)
		if err != nil {
			continue
		}
		if info.Tags[TagRigID] == id && info.Tags[TagWidget] != "" {
			r.widgets[WidgetRole(info.Tags[TagWidget])] = name
		}
	}

	m.rigs[armature] = r
	m.logger.Debug("adopted rig", "armature", armature, "places", len(r.Places), "widgets", len(r.widgets))
	return r, nil
}

// Load adopts every armature tagged as a rig.
func (m *Manager) Load() ([]*Rig, error) {
	var out []*Rig
	for _, arm := range m.host.Armatures() {
		if role, _ := m.host.Tag(arm, "", TagRole); role != roleRig {
			continue
		}
		r, err := m.Adopt(arm)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FindOwningRig returns the rig and place an object is attached to, walking
// up object parents until a Place frame is reached. It fails with MissingRig
// when the chain ends without reaching a rig.
func (m *Manager) FindOwningRig(object string) (*Rig, *Place, error) {
	visited := make(map[string]bool)
	for cur := object; !visited[cur]; {
		visited[cur] = true
		parent, ok := m.host.ObjectParent(cur)
		if !ok {
			break
		}
		if parent.Frame != "" {
			r, ok := m.rigs[parent.Armature]
			if !ok {
				break
			}
			p, _ := r.Place(parent.Frame)
			return r, p, nil
		}
		cur = parent.Object
	}
	return nil, nil, errors.New(errors.ErrCodeMissingRig, "object %q is not attached to a MegaMini rig", object)
}

func (m *Manager) checkManaged(r *Rig) error {
	if r == nil {
		return errors.New(errors.ErrCodeMissingRig, "no rig given")
	}
	if m.rigs[r.Armature] != r || !m.host.HasArmature(r.Armature) {
		return errors.New(errors.ErrCodeMissingRig, "%q is not a MegaMini rig", r.Armature)
	}
	for _, role := range []Role{RoleProxyField, RoleProxyObserver, RoleObserver} {
		if !m.host.HasFrame(r.Armature, string(role)) {
			return errors.New(errors.ErrCodeMissingFrame, "rig %s has no %s frame", r.Armature, role)
		}
	}
	return nil
}

func rigName(r *Rig) string {
	if r == nil {
		return ""
	}
	return r.Armature
}

func checkVec(name string, v mgl64.Vec3) error {
	for i, c := range v {
		if err := errors.ValidateFinite(fmt.Sprintf("%s[%d]", name, i), c); err != nil {
			return err
		}
	}
	return nil
}

func placeNames(r *Rig) []string {
	names := make([]string, len(r.Places))
	for i, p := range r.Places {
		names[i] = p.Name
	}
	return names
}
