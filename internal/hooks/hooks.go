package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// Event names one point in an app's lifecycle where hooks run.
type Event string

// Lifecycle events, in the order a full install/remove cycle visits them.
const (
	PreInstall  Event = "pre_install"
	PostInstall Event = "post_install"
	PreStart    Event = "pre_start"
	PostStart   Event = "post_start"
	PreStop     Event = "pre_stop"
	PostStop    Event = "post_stop"
	PreUpdate   Event = "pre_update"
	PostUpdate  Event = "post_update"
	PreRemove   Event = "pre_remove"
	PostRemove  Event = "post_remove"
)

// DefaultTimeout bounds a single hook invocation. Hooks typically wait for
// the app's HTTP API to come up and then configure it.
const DefaultTimeout = 2 * time.Minute

// Context is the identity bundle handed to a hook after a successful stack
// application: who the app is, how its container is named, and where to
// reach it.
type Context struct {
	AppID            string
	AppName          string
	BlueprintName    string
	ContainerName    string
	ContainerAddress string

	// Inputs is the app's raw configuration, for hooks that need credentials
	// or ports the user chose.
	Inputs map[string]any
}

// Hook is one lifecycle callback for one blueprint.
type Hook func(ctx context.Context, hc *Context) error

// Registry maps blueprint name and event to a registered hook. Blueprints
// without hooks are the common case; lookups that miss are no-ops.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]map[Event]Hook
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]map[Event]Hook)}
}

// Register installs a hook for a blueprint's lifecycle event, replacing any
// previous registration.
func (r *Registry) Register(blueprint string, event Event, hook Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks[blueprint] == nil {
		r.hooks[blueprint] = make(map[Event]Hook)
	}
	r.hooks[blueprint][event] = hook
}

// Run executes the hook registered for the blueprint and event, if any.
// Hook failures are reported to the caller but are expected to be logged
// and tolerated; a misbehaving hook must not wedge an app's lifecycle.
func (r *Registry) Run(ctx context.Context, blueprint string, event Event, hc *Context) error {
	r.mu.RLock()
	hook := r.hooks[blueprint][event]
	r.mu.RUnlock()
	if hook == nil {
		return nil
	}

	logger.Info("Running hook",
		zap.String("blueprint", blueprint), zap.String("event", string(event)))

	hookCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := hook(hookCtx, hc); err != nil {
		logger.Error("Hook failed",
			zap.String("blueprint", blueprint),
			zap.String("event", string(event)),
			zap.Error(err))
		return err
	}
	return nil
}
