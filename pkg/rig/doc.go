// Package rig builds forced-perspective rigs on a host scene.
//
// A rig lives in one armature and is made of two frame trees. The proxy tree
// is a scaled-down model of the world that authors edit:
//
//	ProxyField
//	├── ProxyObserver
//	└── ProxyPlace[i]
//	    └── ProxyPlaceFocus[i]
//
// The actual tree holds the frames external geometry is parented to:
//
//	Observer
//	└── Place[i]
//
// Every Place is driven by its ProxyPlace. Its location is the ProxyPlace
// offset from the ProxyObserver scaled back up by the rig scale, its rotation
// is copied, and its uniform scale falls off with the distance between the
// ProxyPlaceFocus and the ProxyObserver (see package perspective). Objects
// far from the observer therefore shrink and move in, which keeps a large
// scene inside a small actual volume while it still looks right from the
// Observer.
//
// # Usage
//
//	s := scene.New(nil)
//	m := rig.NewManager(s, nil)
//
//	r, err := m.CreateRig(perspective.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	p, err := m.CreatePlace(r, rig.PlaceOptions{UseObserverLocation: true})
//
// Rig parameters are stored as armature properties and frames carry role
// tags, so [Manager.Load] recognizes rigs again after a scene is read back.
//
// Every operation validates its input before touching the host and removes
// whatever it created if the host fails part-way.
package rig
