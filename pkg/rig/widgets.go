package rig

import (
	"github.com/matzehuels/megamini/pkg/errors"
	"github.com/matzehuels/megamini/pkg/scene"
)

// createWidgets adds the rig's hidden display objects. The first widget hangs
// off the ProxyField frame; every other widget is parented to the first.
func (m *Manager) createWidgets(r *Rig, field string) error {
	h := m.host
	var main string
	for _, role := range widgetOrder {
		name, err := h.AddObject(scene.ObjectSpec{Name: widgetObjectNames[role], Hidden: true})
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create widget %s", role)
		}
		r.widgets[role] = name
		if err := h.SetObjectTag(name, TagWidget, string(role)); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "tag widget %s", name)
		}
		if err := h.SetObjectTag(name, TagRigID, r.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "tag widget %s", name)
		}

		if main == "" {
			main = name
			err = h.Reparent(name, r.Armature, field, nil)
		} else {
			err = h.ParentToObject(name, main)
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "parent widget %s", name)
		}
	}
	return nil
}

// assignShape records the widget a frame is displayed with.
func (m *Manager) assignShape(r *Rig, frame string, role Role) error {
	w, ok := r.widgets[frameShapes[role]]
	if !ok {
		return nil
	}
	if err := m.host.SetTag(r.Armature, frame, TagShape, w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "assign shape to %s", frame)
	}
	return nil
}

// removeWidgets deletes the rig's widget objects, ignoring ones already gone.
func (m *Manager) removeWidgets(r *Rig) {
	for i := len(widgetOrder) - 1; i >= 0; i-- {
		name, ok := r.widgets[widgetOrder[i]]
		if !ok {
			continue
		}
		if err := m.host.RemoveObject(name); err != nil {
			m.logger.Debug("widget already removed", "object", name, "error", err)
		}
		delete(r.widgets, widgetOrder[i])
	}
}

// WidgetsForRig returns the widget objects of the rig living in armature.
func (m *Manager) WidgetsForRig(armature string) (map[WidgetRole]string, error) {
	r, err := m.Rig(armature)
	if err != nil {
		return nil, err
	}
	return r.Widgets(), nil
}
