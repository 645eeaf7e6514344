package compose

import (
	"strings"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// MergeWildcardFields handles routing paths ending in ".*", used for
// arbitrary user-supplied key/value pairs such as extra environment
// variables. The value is either a list of {key, value} objects or a plain
// map; blank keys are skipped. This pass runs after global injection so
// user-custom keys override computed ones.
func MergeWildcardFields(service map[string]any, inputs RawInputs, schema map[string]*model.FieldSchema) {
	for name, field := range schema {
		if field == nil {
			continue
		}
		path := field.SchemaPath
		if !strings.HasSuffix(path, ".*") {
			continue
		}
		value, ok := inputs[name]
		if !ok || value == nil {
			continue
		}

		rest, ok := strings.CutPrefix(path, bucketService+".")
		if !ok {
			// Wildcards are only merged inside the service bucket.
			logger.Warn("Wildcard path outside service bucket, skipping",
				zap.String("field", name), zap.String("path", path))
			continue
		}
		parent := strings.TrimSuffix(rest, ".*")

		node := service
		if parent != "" {
			for _, part := range strings.Split(parent, ".") {
				node = ensureMap(node, part)
			}
		}
		mergePairs(node, value)
	}
}

func mergePairs(target map[string]any, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, sub := range v {
			if key != "" {
				target[key] = sub
			}
		}
	case []any:
		for _, item := range v {
			pair, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key := stringOr(pair["key"], "")
			if key == "" {
				continue
			}
			target[key] = pair["value"]
		}
	}
}
