package model

import "fmt"

// Field types supported by blueprint schemas.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Global value names usable in a field's use_global declaration.
const (
	GlobalPUID  = "PUID"
	GlobalPGID  = "PGID"
	GlobalUmask = "UMASK"
	GlobalTZ    = "TZ"
	GlobalUser  = "USER"
)

// UIOption is a single choice for dropdown and radio_group components.
type UIOption struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// FieldPrerequisite gates a field's visibility on another app's state.
type FieldPrerequisite struct {
	AppName    string `yaml:"app_name" json:"app_name"`
	Status     string `yaml:"status,omitempty" json:"status,omitempty"`
	InputName  string `yaml:"input_name,omitempty" json:"input_name,omitempty"`
	InputValue any    `yaml:"input_value,omitempty" json:"input_value,omitempty"`
}

// FieldSchema describes one input field of a blueprint. Object-typed fields
// carry nested Fields; array-typed fields carry an ItemSchema describing one
// element. SchemaPath routes the field's value into the generated stack
// (service / compose / metadata / env); an empty path means "service".
type FieldSchema struct {
	Type        string `yaml:"type" json:"type"`
	UIComponent string `yaml:"ui_component" json:"ui_component"`
	Label       string `yaml:"label,omitempty" json:"label,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Tooltip     string `yaml:"tooltip,omitempty" json:"tooltip,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`

	Default     any  `yaml:"default,omitempty" json:"default,omitempty"`
	Required    bool `yaml:"required,omitempty" json:"required,omitempty"`
	Visible     bool `yaml:"visible" json:"visible"`
	IsSensitive bool `yaml:"is_sensitive,omitempty" json:"is_sensitive,omitempty"`

	// SchemaPath is the dotted routing path, e.g. "service.environment.PUID",
	// "compose.networks", "metadata.admin_user" or "env.TAG". The wildcard
	// form "service.environment.*" marks a multi-value field.
	SchemaPath string `yaml:"schema,omitempty" json:"schema,omitempty"`

	// ComposeTransform names a transform registry function that converts this
	// field's value into wire-format compose fragments.
	ComposeTransform string `yaml:"compose_transform,omitempty" json:"compose_transform,omitempty"`

	// UseGlobal names a global setting injected when the value is unset.
	UseGlobal string `yaml:"use_global,omitempty" json:"use_global,omitempty"`

	// VolumeTarget is the container path used by the legacy bare-string
	// volume_mapping shape.
	//
	// Deprecated: new blueprints should use compound volume fields.
	VolumeTarget string `yaml:"volume_target,omitempty" json:"volume_target,omitempty"`

	Options       []UIOption          `yaml:"options,omitempty" json:"options,omitempty"`
	ShowWhen      map[string]any      `yaml:"show_when,omitempty" json:"show_when,omitempty"`
	Prerequisites []FieldPrerequisite `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`

	MinValue *int   `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue *int   `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	Pattern  string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Fields holds nested definitions for object-typed fields.
	Fields map[string]*FieldSchema `yaml:"fields,omitempty" json:"fields,omitempty"`

	// ItemSchema describes one element of an array-typed field.
	ItemSchema map[string]*FieldSchema `yaml:"item_schema,omitempty" json:"item_schema,omitempty"`
}

// Clone returns a deep copy of the field definition. Template expansion works
// on clones so the stored blueprint schema is never mutated.
func (f *FieldSchema) Clone() *FieldSchema {
	if f == nil {
		return nil
	}
	c := *f
	if f.Fields != nil {
		c.Fields = make(map[string]*FieldSchema, len(f.Fields))
		for name, sub := range f.Fields {
			c.Fields[name] = sub.Clone()
		}
	}
	if f.ItemSchema != nil {
		c.ItemSchema = make(map[string]*FieldSchema, len(f.ItemSchema))
		for name, sub := range f.ItemSchema {
			c.ItemSchema[name] = sub.Clone()
		}
	}
	if f.Options != nil {
		c.Options = append([]UIOption(nil), f.Options...)
	}
	if f.Prerequisites != nil {
		c.Prerequisites = append([]FieldPrerequisite(nil), f.Prerequisites...)
	}
	return &c
}

// Blueprint is a declarative definition of an installable application.
type Blueprint struct {
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string `yaml:"category" json:"category"`
	IconURL     string `yaml:"icon_url,omitempty" json:"icon_url,omitempty"`

	InstallOrder float64 `yaml:"install_order,omitempty" json:"install_order,omitempty"`
	Visible      bool    `yaml:"visible" json:"visible"`

	// Prerequisites lists blueprint names that must be installed first.
	Prerequisites []string `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`

	// StaticIPs maps service names to fixed addresses on the managed network.
	StaticIPs map[string]string `yaml:"static_ips,omitempty" json:"static_ips,omitempty"`

	Schema map[string]*FieldSchema `yaml:"schema" json:"schema"`

	PostInstallHook  string `yaml:"post_install_hook,omitempty" json:"post_install_hook,omitempty"`
	PreUninstallHook string `yaml:"pre_uninstall_hook,omitempty" json:"pre_uninstall_hook,omitempty"`
	HealthCheckHook  string `yaml:"health_check_hook,omitempty" json:"health_check_hook,omitempty"`
}

// Validate checks the blueprint for structural problems.
func (b *Blueprint) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("blueprint name is required")
	}
	if b.DisplayName == "" {
		return fmt.Errorf("blueprint %s: display_name is required", b.Name)
	}
	if len(b.Schema) == 0 {
		return fmt.Errorf("blueprint %s: schema must define at least one field", b.Name)
	}
	for name, field := range b.Schema {
		if err := validateField(name, field); err != nil {
			return fmt.Errorf("blueprint %s: %w", b.Name, err)
		}
	}
	return nil
}

func validateField(name string, field *FieldSchema) error {
	if field == nil {
		return fmt.Errorf("field %s: definition is empty", name)
	}
	switch field.Type {
	case TypeString, TypeInteger, TypeBoolean, TypeObject, TypeArray:
	default:
		return fmt.Errorf("field %s: unknown type %q", name, field.Type)
	}
	for sub, def := range field.Fields {
		if err := validateField(name+"."+sub, def); err != nil {
			return err
		}
	}
	for sub, def := range field.ItemSchema {
		if err := validateField(name+"[]."+sub, def); err != nil {
			return err
		}
	}
	return nil
}

// CloneSchema deep-copies a full field schema map.
func CloneSchema(schema map[string]*FieldSchema) map[string]*FieldSchema {
	if schema == nil {
		return nil
	}
	out := make(map[string]*FieldSchema, len(schema))
	for name, field := range schema {
		out[name] = field.Clone()
	}
	return out
}
