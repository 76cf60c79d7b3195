// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about rig construction, attach operations and scene
// evaluation.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Rig operations are synchronous and never block, so hooks take no context.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRigHooks(&myRigHooks{})
//	    observability.SetSceneHooks(&mySceneHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Rig().OnRigCreated(rigName, params.Scale, err)
//	observability.Scene().OnEvaluate(nodeCount, duration, err)
package observability

import (
	"sync"
	"time"
)

// =============================================================================
// Rig Hooks
// =============================================================================

// RigHooks receives events from rig construction and attach operations.
type RigHooks interface {
	// Rig lifecycle
	OnRigCreated(rig string, scale float64, err error)
	OnRigDestroyed(rig string, err error)
	OnParamsUpdated(rig string, scale float64, err error)

	// Place lifecycle
	OnPlaceCreated(rig, place string, err error)
	OnPlaceDestroyed(rig, place string, err error)
	OnPlaceUpdated(rig, place string, err error)

	// OnAttach records one attach operation. Mode is "single" or "multi".
	OnAttach(rig, mode string, attached, skipped int, err error)
}

// =============================================================================
// Scene Hooks
// =============================================================================

// SceneHooks receives events from the host scene.
type SceneHooks interface {
	// OnBind records a driver binding attempt.
	OnBind(armature, channel, formula string, err error)

	// OnEvaluate records one full evaluation pass.
	OnEvaluate(nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRigHooks is a no-op implementation of RigHooks.
type NoopRigHooks struct{}

func (NoopRigHooks) OnRigCreated(string, float64, error)      {}
func (NoopRigHooks) OnRigDestroyed(string, error)             {}
func (NoopRigHooks) OnParamsUpdated(string, float64, error)   {}
func (NoopRigHooks) OnPlaceCreated(string, string, error)     {}
func (NoopRigHooks) OnPlaceDestroyed(string, string, error)   {}
func (NoopRigHooks) OnPlaceUpdated(string, string, error)     {}
func (NoopRigHooks) OnAttach(string, string, int, int, error) {}

// NoopSceneHooks is a no-op implementation of SceneHooks.
type NoopSceneHooks struct{}

func (NoopSceneHooks) OnBind(string, string, string, error) {}
func (NoopSceneHooks) OnEvaluate(int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	rigHooks   RigHooks   = NoopRigHooks{}
	sceneHooks SceneHooks = NoopSceneHooks{}
	hooksMu    sync.RWMutex
)

// SetRigHooks registers custom rig hooks.
// This should be called once at application startup before any rig operations.
func SetRigHooks(h RigHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		rigHooks = h
	}
}

// SetSceneHooks registers custom scene hooks.
func SetSceneHooks(h SceneHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sceneHooks = h
	}
}

// Rig returns the registered rig hooks.
func Rig() RigHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return rigHooks
}

// Scene returns the registered scene hooks.
func Scene() SceneHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sceneHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	rigHooks = NoopRigHooks{}
	sceneHooks = NoopSceneHooks{}
}
