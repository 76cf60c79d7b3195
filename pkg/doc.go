// Package pkg provides the core libraries for MegaMini forced-perspective rigs.
//
// # Overview
//
// A MegaMini rig makes a miniature scene look full-size from one vantage
// point. Each place in the rig is pushed away from or pulled toward the
// observer and scaled so that its apparent size does not change. Moving the
// observer re-evaluates every driven channel, so attached objects follow.
//
// The pkg directory is organized into four areas:
//
//  1. Scene model - [scene] (objects, frames, drivers), [dag] (evaluation
//     graph) and [expr] (driver formulas)
//  2. Rig logic - [perspective] (the scale law), [rig] (rigs and places)
//     and [attach] (binding objects to places)
//  3. Persistence and output - [io] (JSON scene files), [render] and
//     [render/nodelink] (graph drawings), [cache] (rendered artifacts)
//  4. Support - [config], [errors], [observability] and [buildinfo]
//
// # Architecture
//
//	scene file (JSON)
//	       ↓
//	  [io] ImportJSON
//	       ↓
//	  [scene] Scene ──── [rig] Manager.Load adopts existing rigs
//	       ↓
//	  [rig] / [attach] edit frames, properties and drivers
//	       ↓
//	  [scene] Evaluate (topological order from [dag])
//	       ↓
//	  [io] ExportJSON, or [render/nodelink] for a graph drawing
//
// # Quick Start
//
//	s := scene.New(logger)
//	m := rig.NewManager(s, logger)
//
//	r, _ := m.CreateRig(perspective.DefaultParams())
//	s.AddObject(scene.ObjectSpec{Name: "House", Location: mgl64.Vec3{20, 5, 0}})
//
//	a := attach.New(m, attach.DefaultPolicy(), logger)
//	a.Single(r, []string{"House"})
//
//	m.MoveObserver(r, mgl64.Vec3{0, 3, 0})
//	io.ExportJSON(s, "scene.json")
//
// # Conventions
//
// Operations that edit the scene are all-or-nothing: on error the scene is
// left as it was. Errors carry a [errors.Code] for programmatic handling.
// Lifecycle events are reported through the hooks in [observability].
package pkg
