// Package io provides JSON import and export for MegaMini scenes.
//
// # Overview
//
// A scene file holds everything needed to rebuild a host scene: the 3D
// cursor, every armature with its frames, constraints and drivers, and every
// external object with its parenting. Drivers are stored with the name of
// their formula rather than the formula itself, so loading a scene binds them
// again through the formula registry (see package expr).
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "cursor": [0, 0, 0],
//	  "armatures": [
//	    {
//	      "name": "MegaMini",
//	      "location": [0, 0, 0],
//	      "props": {"mega_mini_scale": 1000, ...},
//	      "tags": {"megamini.role": "rig", ...},
//	      "frames": [
//	        {"name": "ProxyField", "head": [0, 0, 0], "tail": [0, 6.85, 0],
//	         "rotation_mode": "XYZ", "basis": {...}},
//	        ...
//	      ],
//	      "drivers": [
//	        {"output": {"frame": "Place", "path": "scale", "index": 0},
//	         "vars": [...], "formula": "megamini.fp_scale"},
//	        ...
//	      ]
//	    }
//	  ],
//	  "objects": [
//	    {"name": "House", "local": {...},
//	     "parent": {"armature": "MegaMini", "frame": "Place"},
//	     "parent_inverse": [1, 0, 0, 0, ...]}
//	  ]
//	}
//
// Frames are listed in creation order, which always places a parent before
// its children. Frame bases hold the last evaluated driver values, so a file
// written by [WriteJSON] reads back to the same evaluated state.
//
// # Import
//
// Use [ImportJSON] to read a scene from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	s, err := io.ImportJSON("megamini.json", logger)
//	if err != nil {
//	    return err
//	}
//
// Rigs in the loaded scene are recognized again with rig.Manager.Load.
//
// # Export
//
// Use [ExportJSON] to write a scene to a file, or [WriteJSON] to write to any
// io.Writer. The scene is evaluated first.
package io
