// Package scene is an in-memory host scene graph for MegaMini rigs.
//
// # Overview
//
// A rig needs a host that can create named frames in a hierarchy, store their
// local transforms, bind formulas to individual channels and parent external
// objects to frames. This package provides exactly that capability set and
// nothing more. It is not a renderer or a general scene engine.
//
// The model follows an armature-and-bones host:
//
//   - An [Armature] is a named container with a location and custom properties.
//     Every rig lives in its own armature.
//   - A frame is a bone of an armature: a rest head/tail offset, a parent, a
//     basis transform (location, Euler rotation, scale), optional copy-location
//     constraints, custom properties and string tags.
//   - An object is external geometry. It may be parented to a frame (it then
//     sits at the frame's tail, corrected by its parent inverse matrix) or to
//     another object.
//
// # Drivers
//
// A [Driver] computes one channel (for example scale[0] of a frame) from a list
// of [Variable] values using a formula registered in the expr package. The
// scene keeps a dependency graph of every channel, pose and world transform,
// rejects drivers that would introduce a cycle, and evaluates the graph in
// topological order.
//
// Reads are always fresh: any write marks the scene dirty and the next read
// re-evaluates the whole graph before answering. [Scene.Evaluate] forces a
// pass explicitly.
//
// # Spaces
//
// Variables read transforms in one of three spaces:
//
//   - [SpaceTransform]: the basis channel, before constraints
//   - [SpaceLocal]: the evaluated local transform, after constraints
//   - [SpaceWorld]: the world transform
//
// Frames are oriented along +Y at rest, so a frame's rest matrix is a plain
// translation by its head relative to its parent's head.
//
// # Concurrency
//
// A Scene is not safe for concurrent use. The expected deployment is a single
// host thread performing create, attach and evaluate calls one at a time.
package scene
