package compose

import (
	"context"
	"strings"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// Transform tags recognized by the registry.
const (
	TransformPortMapping         = "port_mapping"
	TransformPortArray           = "port_array"
	TransformVolumeMapping       = "volume_mapping"
	TransformVolumeArray         = "volume_array"
	TransformNetworkConfig       = "network_config"
	TransformCustomNetworksArray = "custom_networks_array"
)

// NetworkEnsurer is the runtime-driver operation the custom-networks
// transform consumes. Implementations must treat "already exists" as
// success; check-then-create against the container runtime is idempotent
// but not atomic.
type NetworkEnsurer interface {
	EnsureNetwork(ctx context.Context, name string) error
}

// CustomNetwork is one network attachment requested by a blueprint field.
// Mode "create" asks the runtime driver to ensure the network exists; mode
// "existing" only attaches it.
type CustomNetwork struct {
	Name string
	Mode string
}

// Cache is the ephemeral side-channel shared by one generation pass. Custom
// network registrations collected here are reflected at the compose level by
// the assembler.
type Cache struct {
	CustomNetworks []CustomNetwork

	legacyPortDone bool
}

// Pass carries the mutable state a transform operates on: the service bucket,
// the raw inputs for legacy fallbacks, the side-channel cache and the
// optional network ensurer.
type Pass struct {
	Ctx     context.Context
	Service map[string]any
	Raw     RawInputs
	Cache   *Cache
	Ensurer NetworkEnsurer
}

// TransformFunc converts a routed compound or array input into wire-format
// compose fragments, mutating the service bucket in place.
type TransformFunc func(p *Pass, value any, field *model.FieldSchema)

var transformRegistry = map[string]TransformFunc{
	TransformPortMapping:         transformPortMapping,
	TransformPortArray:           transformPortArray,
	TransformVolumeMapping:       transformVolumeMapping,
	TransformVolumeArray:         transformVolumeArray,
	TransformNetworkConfig:       transformNetworkConfig,
	TransformCustomNetworksArray: transformCustomNetworksArray,
}

// ApplyTransform dispatches a named transform. Unknown tags log a warning and
// are no-ops so blueprints referencing newer transforms keep generating.
func ApplyTransform(p *Pass, name string, value any, field *model.FieldSchema) {
	fn, ok := transformRegistry[name]
	if !ok {
		logger.Warn("Unknown compose transform, skipping field", zap.String("transform", name))
		return
	}
	fn(p, value, field)
}

// AvailableTransforms lists the registered transform tags.
func AvailableTransforms() []string {
	names := make([]string, 0, len(transformRegistry))
	for name := range transformRegistry {
		names = append(names, name)
	}
	return names
}

// transformPortMapping appends one long-form port entry from a compound
// {host, container, protocol} value.
//
// The legacy shape (separate host_port/container_port scalar inputs) is still
// honored once per pass for blueprints that predate compound fields.
//
// Deprecated: the legacy shape is kept for backward compatibility only.
func transformPortMapping(p *Pass, value any, field *model.FieldSchema) {
	if m, ok := value.(map[string]any); ok && hasKeys(m, "host", "container") {
		AppendAtPath(p.Service, "ports", portEntry(m["host"], m["container"], m["protocol"]))
		return
	}

	if p.Cache.legacyPortDone {
		return
	}
	host := p.Raw["host_port"]
	container := p.Raw["container_port"]
	if isBlank(host) || isBlank(container) {
		return
	}
	AppendAtPath(p.Service, "ports", portEntry(host, container, nil))
	p.Cache.legacyPortDone = true
}

// transformPortArray appends long-form entries for each element of a port
// array, skipping entries with an empty host or container side.
func transformPortArray(p *Pass, value any, field *model.FieldSchema) {
	items, ok := value.([]any)
	if !ok {
		return
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok || !hasKeys(m, "host", "container") {
			continue
		}
		if isBlank(m["host"]) || isBlank(m["container"]) {
			continue
		}
		AppendAtPath(p.Service, "ports", portEntry(m["host"], m["container"], m["protocol"]))
	}
}

func portEntry(host, container, protocol any) map[string]any {
	proto := "tcp"
	if s, ok := protocol.(string); ok && s != "" {
		proto = s
	}
	return map[string]any{
		"published": host,
		"target":    container,
		"protocol":  proto,
	}
}

// transformVolumeMapping appends one long-form volume entry from a compound
// {source, target, ...} value. A bare string value is the legacy shape: it
// becomes a bind mount onto the field's volume_target (default /data).
//
// Deprecated: the legacy bare-string shape is kept for backward compatibility.
func transformVolumeMapping(p *Pass, value any, field *model.FieldSchema) {
	if m, ok := value.(map[string]any); ok && hasKeys(m, "source", "target") {
		AppendAtPath(p.Service, "volumes", volumeEntry(m, stringOr(m["source"], "")))
		return
	}

	source, ok := value.(string)
	if !ok {
		return
	}
	target := field.VolumeTarget
	if target == "" {
		target = "/data"
	}
	AppendAtPath(p.Service, "volumes", map[string]any{
		"type":      "bind",
		"source":    source,
		"target":    target,
		"read_only": false,
	})
}

// transformVolumeArray appends long-form entries for each element of a volume
// array. Relative bind sources ("./...") are rewritten to ${HOST_PATH}/...
// so the generated stack stays relocatable; entries with an empty source or
// target are skipped.
func transformVolumeArray(p *Pass, value any, field *model.FieldSchema) {
	items, ok := value.([]any)
	if !ok {
		return
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok || !hasKeys(m, "source", "target") {
			continue
		}
		if isBlank(m["source"]) || isBlank(m["target"]) {
			continue
		}
		source := stringOr(m["source"], "")
		if volumeType(m) == "bind" && strings.HasPrefix(source, "./") {
			source = "${HOST_PATH}/" + source[2:]
		}
		AppendAtPath(p.Service, "volumes", volumeEntry(m, source))
	}
}

func volumeType(m map[string]any) string {
	if s, ok := m["type"].(string); ok && s != "" {
		return s
	}
	return "bind"
}

func volumeEntry(m map[string]any, source string) map[string]any {
	vtype := volumeType(m)
	entry := map[string]any{
		"type":   vtype,
		"source": source,
		"target": m["target"],
	}
	if b, ok := m["read_only"].(bool); ok && b {
		entry["read_only"] = true
	}
	if vtype == "bind" {
		bind := make(map[string]any)
		if prop, ok := m["bind_propagation"].(string); ok && prop != "" {
			bind["propagation"] = prop
		}
		if chp, ok := m["bind_create_host_path"]; ok && chp != nil {
			bind["create_host_path"] = chp
		}
		if len(bind) > 0 {
			entry["bind"] = bind
		}
	}
	return entry
}

// transformNetworkConfig attaches a single network, optionally with a static
// address. Unrelated existing network entries are never overwritten.
func transformNetworkConfig(p *Pass, value any, field *model.FieldSchema) {
	m, ok := value.(map[string]any)
	if !ok {
		return
	}
	name := stringOr(m["network_name"], "")
	if name == "" {
		return
	}
	networks := serviceNetworks(p.Service)
	if addr := stringOr(m["ipv4_address"], ""); addr != "" {
		networks[name] = map[string]any{"ipv4_address": addr}
	} else {
		networks[name] = map[string]any{}
	}
}

// transformCustomNetworksArray attaches each listed network at the service
// level and registers it in the cache so the assembler can emit a matching
// compose-level entry marked external. Networks with mode "create" are
// ensured to exist through the runtime driver; an ensure failure is logged
// and the network is still attached, since it may already exist.
func transformCustomNetworksArray(p *Pass, value any, field *model.FieldSchema) {
	items, ok := value.([]any)
	if !ok {
		logger.Warn("custom_networks value is not a list, skipping")
		return
	}
	networks := serviceNetworks(p.Service)

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := stringOr(m["network_name"], "")
		if name == "" {
			logger.Warn("Skipping custom network with empty name")
			continue
		}
		mode := stringOr(m["mode"], "existing")

		if mode == "create" && p.Ensurer != nil {
			ctx := p.Ctx
			if ctx == nil {
				ctx = context.Background()
			}
			if err := p.Ensurer.EnsureNetwork(ctx, name); err != nil {
				logger.Error("Failed to ensure custom network",
					zap.String("network", name), zap.Error(err))
			} else {
				logger.Info("Ensured custom network", zap.String("network", name))
			}
		}

		if _, exists := networks[name]; !exists {
			networks[name] = map[string]any{}
		}
		p.Cache.CustomNetworks = append(p.Cache.CustomNetworks, CustomNetwork{Name: name, Mode: mode})
	}
}

// serviceNetworks returns the service networks map, converting a list-form
// attachment left by plain routing into map form first.
func serviceNetworks(service map[string]any) map[string]any {
	switch existing := service["networks"].(type) {
	case map[string]any:
		return existing
	case []any:
		converted := make(map[string]any, len(existing))
		for _, entry := range existing {
			if name, ok := entry.(string); ok && name != "" {
				converted[name] = map[string]any{}
			}
		}
		service["networks"] = converted
		return converted
	default:
		converted := make(map[string]any)
		service["networks"] = converted
		return converted
	}
}

func hasKeys(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := m[key]; !ok {
			return false
		}
	}
	return true
}

// isBlank reports whether a value is missing or empty in the loose sense user
// form inputs produce: nil, empty string, or numeric zero.
func isBlank(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case string:
		return n == ""
	case int:
		return n == 0
	case float64:
		return n == 0
	default:
		return false
	}
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
