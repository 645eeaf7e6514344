package compose

import (
	"sort"
	"strings"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// Routing buckets. Fields routed to "env" feed only the env-file generator
// and never appear in the descriptor itself.
const (
	bucketService  = "service"
	bucketCompose  = "compose"
	bucketMetadata = "metadata"
	bucketEnv      = "env"
)

// RoutedData holds the three destination buckets built fresh on every
// generation pass. The routed form is never persisted.
type RoutedData struct {
	Service  map[string]any
	Compose  map[string]any
	Metadata map[string]any
}

// NewRoutedData returns empty buckets.
func NewRoutedData() *RoutedData {
	return &RoutedData{
		Service:  make(map[string]any),
		Compose:  make(map[string]any),
		Metadata: make(map[string]any),
	}
}

// Route walks completed inputs against the expanded schema and places each
// value into its destination bucket at the nested path the field's routing
// path names. Fields without a schema entry are dropped silently so stale
// stored inputs survive blueprint upgrades. Transform-tagged and wildcard
// fields are skipped here; they are handled by their own passes.
func Route(inputs RawInputs, schema map[string]*model.FieldSchema) (*RoutedData, error) {
	routed := NewRoutedData()

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field, ok := schema[name]
		if !ok || field == nil {
			logger.Debug("Dropping input without schema entry", zap.String("field", name))
			continue
		}
		if field.ComposeTransform != "" {
			continue
		}
		if err := routeField(routed, name, inputs[name], field); err != nil {
			return nil, err
		}
	}
	return routed, nil
}

func routeField(routed *RoutedData, name string, value any, field *model.FieldSchema) error {
	path := field.SchemaPath
	if path == "" {
		path = bucketService
	}
	if strings.HasSuffix(path, ".*") {
		// Multi-value fields merge in a dedicated pass after global injection.
		return nil
	}

	bucket, subpath, _ := strings.Cut(path, ".")
	if bucket == "" {
		return SchemaError{Field: name, Reason: "routing path has empty bucket segment: " + path}
	}

	var target map[string]any
	switch bucket {
	case bucketEnv:
		return nil
	case bucketService:
		target = routed.Service
	case bucketCompose:
		target = routed.Compose
	case bucketMetadata:
		target = routed.Metadata
	default:
		// Unknown leading segment: treat the whole path as service-relative.
		logger.Warn("Unknown routing bucket, storing under service",
			zap.String("field", name), zap.String("path", path))
		SetPath(routed.Service, path, value)
		return nil
	}

	if subpath == "" {
		target[name] = value
		return nil
	}

	// A bare string routed at "networks" still has to serialize as a list.
	if subpath == "networks" {
		if s, ok := value.(string); ok {
			value = []any{s}
		}
	}

	SetPath(target, subpath, value)
	return nil
}
