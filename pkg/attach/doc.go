// Package attach parents external objects to new rig places.
//
// Two modes are offered:
//
//   - [Attacher.Single] creates one Place at the current ProxyObserver
//     position and parents every accepted object to it, keeping the objects'
//     world transforms.
//   - [Attacher.Multi] creates one Place per accepted object, located at the
//     object's world position relative to a reference cursor, then zeroes the
//     object's location and parents it to its Place.
//
// A [Policy] decides what happens to objects that already have a parent and
// whether a missing rig is created on the fly. All input is validated before
// the scene is touched, and a host failure part-way undoes every change, so an
// attach either completes or leaves the scene as it was.
package attach
