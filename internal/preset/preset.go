package preset

import "fmt"

// Preset is a curated bundle of blueprints installed together, defined as a
// JSON file in the presets directory. The ID is the file name without
// extension.
type Preset struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`

	// Apps lists the blueprint names the preset installs.
	Apps []string `json:"apps"`
}

// Validate checks the preset for structural problems.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if len(p.Apps) == 0 {
		return fmt.Errorf("preset %s: apps must list at least one blueprint", p.Name)
	}
	return nil
}

// RequiredInput describes one blueprint field the user must fill before a
// preset app can be created: required in the schema with no default to fall
// back on.
type RequiredInput struct {
	Field       string `json:"field"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	UIComponent string `json:"ui_component"`
	Description string `json:"description,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	IsSensitive bool   `json:"is_sensitive,omitempty"`
	Required    bool   `json:"required"`
}

// Analysis is the result of checking a preset against the current catalog
// and app list.
type Analysis struct {
	// AvailableApps are preset entries ready to be created.
	AvailableApps []string `json:"available_apps"`

	// MissingBlueprints are preset entries with no loaded blueprint.
	MissingBlueprints []string `json:"missing_blueprints"`

	// AlreadyExists are preset entries that already have an app instance.
	AlreadyExists []string `json:"already_exists"`

	// RequiredInputs maps each available app to the fields the user still
	// has to provide.
	RequiredInputs map[string][]RequiredInput `json:"required_inputs"`
}

// ApplyResult reports what applying a preset did per app.
type ApplyResult struct {
	// CreatedApps holds the IDs of the app records created, in preset order.
	CreatedApps []string `json:"created_apps"`

	// Skipped lists preset entries not created, with the reason in Errors.
	Skipped []string          `json:"skipped"`
	Errors  map[string]string `json:"errors"`
}

// ErrPresetNotFound is returned when no preset file has the requested ID
type ErrPresetNotFound struct {
	ID string
}

// Error implements the error interface
func (e ErrPresetNotFound) Error() string {
	return "preset not found: " + e.ID
}

// IsNotFound returns true if the error is ErrPresetNotFound
func IsNotFound(err error) bool {
	_, ok := err.(ErrPresetNotFound)
	return ok
}
