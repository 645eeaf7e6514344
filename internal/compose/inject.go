package compose

import (
	"strings"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// InjectGlobals fills service config slots flagged use_global with the
// current global settings wherever the blueprint and the user left them
// unset. An explicitly provided value is never overwritten, including
// explicit zero and false values.
func InjectGlobals(service map[string]any, schema map[string]*model.FieldSchema, globals model.GlobalSettings) {
	for name, field := range schema {
		if field == nil || field.UseGlobal == "" {
			continue
		}
		value, ok := globalValue(field.UseGlobal, globals)
		if !ok {
			logger.Warn("Unknown use_global setting",
				zap.String("field", name), zap.String("use_global", field.UseGlobal))
			continue
		}

		path := field.SchemaPath
		if path == "" {
			path = bucketService
		}
		rest, ok := strings.CutPrefix(path, bucketService+".")
		if !ok {
			continue
		}

		if key, isEnv := strings.CutPrefix(rest, "environment."); isEnv {
			env := ensureMap(service, "environment")
			if existing, present := env[key]; !present || existing == nil {
				env[key] = value
			}
			continue
		}
		if strings.Contains(rest, ".") {
			continue
		}
		if existing, present := service[rest]; !present || existing == nil {
			service[rest] = value
		}
	}
}

func globalValue(name string, globals model.GlobalSettings) (any, bool) {
	switch name {
	case model.GlobalPUID:
		return globals.PUID, true
	case model.GlobalPGID:
		return globals.PGID, true
	case model.GlobalUmask:
		return globals.Umask, true
	case model.GlobalTZ:
		return globals.Timezone, true
	case model.GlobalUser:
		return globals.User(), true
	default:
		return nil, false
	}
}
