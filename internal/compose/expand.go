package compose

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stackarr/stackarr/internal/model"
)

// RawInputs maps field names to user-supplied values for one app instance.
// Values may be scalars, objects or arrays.
type RawInputs map[string]any

// wholePlaceholder matches a string that consists of exactly one template
// placeholder, e.g. "${GLOBAL.PUID}".
var wholePlaceholder = regexp.MustCompile(`^\$\{[A-Z_]+\.[A-Z_]+\}$`)

// Expander substitutes ${GLOBAL.*} and ${APP.*} placeholders in blueprint
// schemas using the current global settings and the target app's identity.
// Unrecognized placeholders are left verbatim so compose-level variables
// like ${TAG:-latest} pass through untouched.
type Expander struct {
	globals model.GlobalSettings
	app     model.AppIdentity
}

// NewExpander creates an expander for one generation pass.
func NewExpander(globals model.GlobalSettings, app model.AppIdentity) *Expander {
	return &Expander{globals: globals, app: app}
}

// ExpandSchema returns a deep copy of schema with every string-valued default
// and routing path expanded. Nested fields and item schemas are expanded
// recursively. The input schema is never mutated.
func (e *Expander) ExpandSchema(schema map[string]*model.FieldSchema) map[string]*model.FieldSchema {
	expanded := make(map[string]*model.FieldSchema, len(schema))
	for name, field := range schema {
		expanded[name] = e.expandField(field)
	}
	return expanded
}

func (e *Expander) expandField(field *model.FieldSchema) *model.FieldSchema {
	if field == nil {
		return nil
	}
	out := field.Clone()
	if out.Default != nil {
		out.Default = e.ExpandValue(out.Default)
	}
	if out.SchemaPath != "" {
		// Routing paths stay strings even when the expansion is numeric.
		if s, ok := e.ExpandValue(out.SchemaPath).(string); ok {
			out.SchemaPath = s
		} else {
			out.SchemaPath = e.expandKeepString(out.SchemaPath)
		}
	}
	if out.Fields != nil {
		out.Fields = e.ExpandSchema(out.Fields)
	}
	if out.ItemSchema != nil {
		out.ItemSchema = e.ExpandSchema(out.ItemSchema)
	}
	return out
}

// ExpandValue recursively expands placeholders in strings, maps and lists.
// Other values pass through unchanged.
func (e *Expander) ExpandValue(value any) any {
	switch v := value.(type) {
	case string:
		return e.expandString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, sub := range v {
			out[key] = e.ExpandValue(sub)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, sub := range v {
			out[i] = e.ExpandValue(sub)
		}
		return out
	default:
		return value
	}
}

// expandString substitutes recognized placeholders. When the entire original
// string was a single placeholder and the substitution is all digits, the
// result is coerced to an int so numeric defaults round-trip as numbers.
func (e *Expander) expandString(text string) any {
	expanded := e.expandKeepString(text)
	if expanded != text && wholePlaceholder.MatchString(text) {
		if n, err := strconv.Atoi(expanded); err == nil {
			return n
		}
	}
	return expanded
}

func (e *Expander) expandKeepString(text string) string {
	replacements := [...][2]string{
		{"${GLOBAL.PUID}", strconv.Itoa(e.globals.PUID)},
		{"${GLOBAL.PGID}", strconv.Itoa(e.globals.PGID)},
		{"${GLOBAL.TIMEZONE}", e.globals.Timezone},
		{"${GLOBAL.NETWORK_NAME}", e.globals.NetworkName},
		{"${GLOBAL.NETWORK_SUBNET}", e.globals.NetworkSubnet},
		{"${GLOBAL.NETWORK_GATEWAY}", e.globals.NetworkGateway},
		{"${APP.HOST_PATH}", e.app.HostPath},
		{"${APP.NAME}", e.app.Name},
	}
	for _, r := range replacements {
		if strings.Contains(text, r[0]) {
			text = strings.ReplaceAll(text, r[0], r[1])
		}
	}
	return text
}

// ApplyDefaults copies expanded schema defaults into inputs for every field
// that is absent or explicitly null. User-supplied values, including explicit
// false and 0, are never overwritten. The input map is not mutated.
func ApplyDefaults(inputs RawInputs, schema map[string]*model.FieldSchema) RawInputs {
	complete := make(RawInputs, len(inputs)+len(schema))
	for name, value := range inputs {
		complete[name] = value
	}
	for name, field := range schema {
		if field == nil || field.Default == nil {
			continue
		}
		if existing, ok := complete[name]; ok && existing != nil {
			continue
		}
		complete[name] = field.Default
	}
	return complete
}
