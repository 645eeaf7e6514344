package compose

import (
	"sort"
	"strings"

	"github.com/stackarr/stackarr/internal/model"
)

// RenderEnvFile produces the companion .env file for a stack. HOST_PATH is
// always the first variable; after it come the fields whose pre-expansion
// routing path begins with "env.", named by the remainder of the path and
// read from the raw inputs. Variables are sorted by name so regeneration is
// byte-identical.
func RenderEnvFile(schema map[string]*model.FieldSchema, raw RawInputs, hostPath string) string {
	var b strings.Builder
	b.WriteString("# Environment for the generated stack.\n")
	b.WriteString("# Managed by stackarr; regenerated on every install and update.\n")
	b.WriteString("HOST_PATH=" + hostPath + "\n")

	type envVar struct {
		name  string
		value any
	}
	vars := make([]envVar, 0, len(schema))
	for fieldName, field := range schema {
		if field == nil {
			continue
		}
		varName, ok := strings.CutPrefix(field.SchemaPath, bucketEnv+".")
		if !ok || varName == "" {
			continue
		}
		value, present := raw[fieldName]
		if !present || value == nil {
			continue
		}
		vars = append(vars, envVar{name: varName, value: value})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })

	for _, v := range vars {
		b.WriteString(v.name + "=" + formatEnvValue(v.value) + "\n")
	}
	return b.String()
}
