// Package permission tracks whether the user allows reminder notifications.
package permission

import (
	"context"
	"log"
	"sync"

	"github.com/hray3182/Hydrate/internal/models"
)

// Capability is the platform side of notification permission.
type Capability interface {
	// Supported reports whether the platform can deliver notifications at all.
	Supported() bool
	// Status returns the platform's current decision without prompting the user.
	Status(ctx context.Context) (models.PermissionState, error)
	// Prompt asks the user and blocks until they answer or ctx is done. It
	// returns immediately when the platform already has a final answer.
	Prompt(ctx context.Context) (models.PermissionState, error)
}

// Resolver is implemented by capabilities whose consent surface is answered
// out of band, e.g. by a button press handled elsewhere.
type Resolver interface {
	Resolve(granted bool) bool
}

// Gateway caches the permission state of one session.
type Gateway struct {
	capability Capability

	mu    sync.Mutex
	state models.PermissionState
}

func New(capability Capability) *Gateway {
	return &Gateway{capability: capability}
}

// Query returns the cached state. It never talks to the platform.
func (g *Gateway) Query() models.PermissionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Supported reports whether the platform offers notifications.
func (g *Gateway) Supported() bool {
	return g.capability != nil && g.capability.Supported()
}

// Refresh re-reads the platform decision. A platform error keeps the cached
// state; an unknown answer does not overwrite a known one.
func (g *Gateway) Refresh(ctx context.Context) models.PermissionState {
	if !g.Supported() {
		return g.set(models.PermissionDenied)
	}

	state, err := g.capability.Status(ctx)
	if err != nil {
		log.Printf("Failed to check notification permission: %v", err)
		return g.Query()
	}
	if state == models.PermissionUnknown {
		return g.Query()
	}
	return g.set(state)
}

// Request prompts for permission and returns granted or denied. An
// unsupported platform is reported as denied. If ctx ends before the user
// answers, the call returns denied and the cached state is left alone.
func (g *Gateway) Request(ctx context.Context) models.PermissionState {
	if !g.Supported() {
		return g.set(models.PermissionDenied)
	}

	state, err := g.capability.Prompt(ctx)
	if err != nil {
		log.Printf("Failed to request notification permission: %v", err)
		if ctx.Err() != nil {
			return models.PermissionDenied
		}
		return g.set(models.PermissionDenied)
	}
	if state != models.PermissionGranted {
		state = models.PermissionDenied
	}
	return g.set(state)
}

// Revoke records a denial noticed outside of Refresh, such as a delivery
// rejected by the platform.
func (g *Gateway) Revoke() {
	g.set(models.PermissionDenied)
}

// Resolve answers a pending prompt when the capability supports it.
func (g *Gateway) Resolve(granted bool) bool {
	r, ok := g.capability.(Resolver)
	if !ok {
		return false
	}
	return r.Resolve(granted)
}

func (g *Gateway) set(state models.PermissionState) models.PermissionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = state
	return state
}
