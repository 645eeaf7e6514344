package model

import "time"

// App lifecycle states.
const (
	StatusPending    = "pending"
	StatusConfigured = "configured"
	StatusInstalling = "installing"
	StatusRunning    = "running"
	StatusStopped    = "stopped"
	StatusError      = "error"
)

// App is one installed (or pending) instance of a blueprint.
type App struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BlueprintName string `json:"blueprint_name"`

	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`

	// RawInputs is the user's configuration, replaced wholesale on update.
	// The routed form is never persisted; only the final descriptor is.
	RawInputs map[string]any `json:"raw_inputs"`

	// StackData is a snapshot of the last successfully generated descriptor.
	StackData map[string]any `json:"stack_data,omitempty"`
	StackPath string         `json:"stack_path,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AppIdentity is the slice of app state the generation pipeline needs: who
// the app is and where its stack lives on the host. HostPath is resolved by
// the runtime driver before generation so the core itself does no I/O.
type AppIdentity struct {
	ID            string
	Name          string
	BlueprintName string
	HostPath      string
}
