package compose

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stackarr/stackarr/internal/model"
	"gopkg.in/yaml.v3"
)

// StackDescriptor is the validated output of one generation pass: the
// compose-format stack for a single app instance.
type StackDescriptor struct {
	Services map[string]map[string]any `yaml:"services"`
	Networks map[string]any            `yaml:"networks,omitempty"`
	Volumes  map[string]any            `yaml:"volumes,omitempty"`
	Secrets  map[string]any            `yaml:"secrets,omitempty"`
	Configs  map[string]any            `yaml:"configs,omitempty"`
}

// YAML serializes the descriptor. Map keys marshal in sorted order, so the
// same descriptor always produces byte-identical output.
func (d *StackDescriptor) YAML() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stack descriptor: %w", err)
	}
	return data, nil
}

// Tree returns the descriptor as a generic map for persistence alongside the
// app record.
func (d *StackDescriptor) Tree() map[string]any {
	out := map[string]any{}
	services := make(map[string]any, len(d.Services))
	for name, svc := range d.Services {
		services[name] = DeepCopy(svc)
	}
	out["services"] = services
	if len(d.Networks) > 0 {
		out["networks"] = DeepCopy(d.Networks).(map[string]any)
	}
	if len(d.Volumes) > 0 {
		out["volumes"] = DeepCopy(d.Volumes).(map[string]any)
	}
	if len(d.Secrets) > 0 {
		out["secrets"] = DeepCopy(d.Secrets).(map[string]any)
	}
	if len(d.Configs) > 0 {
		out["configs"] = DeepCopy(d.Configs).(map[string]any)
	}
	return out
}

// Assemble merges the routed buckets, transform outputs and custom-network
// registrations into one validated descriptor. The service bucket is consumed
// in place.
func Assemble(routed *RoutedData, cache *Cache, app model.AppIdentity) (*StackDescriptor, error) {
	service := routed.Service

	serviceName := stringOr(service["container_name"], "")
	if serviceName == "" {
		serviceName = app.Name
		service["container_name"] = serviceName
	}

	applyImageTagPolicy(service)
	if err := normalizePorts(service); err != nil {
		return nil, err
	}
	if err := normalizeVolumes(service); err != nil {
		return nil, err
	}

	desc := &StackDescriptor{
		Services: map[string]map[string]any{serviceName: service},
		Networks: composeSection(routed.Compose, "networks"),
		Volumes:  composeSection(routed.Compose, "volumes"),
		Secrets:  composeSection(routed.Compose, "secrets"),
		Configs:  composeSection(routed.Compose, "configs"),
	}

	// Custom networks appear at the compose level marked external. Existing
	// definitions from the compose bucket are never overwritten.
	for _, net := range cache.CustomNetworks {
		if desc.Networks == nil {
			desc.Networks = make(map[string]any)
		}
		if _, exists := desc.Networks[net.Name]; !exists {
			desc.Networks[net.Name] = map[string]any{"external": true}
		}
	}

	pruneDescriptor(desc)
	if err := validateDescriptor(desc); err != nil {
		return nil, err
	}

	for _, svc := range desc.Services {
		flattenEnvironment(svc)
	}
	return desc, nil
}

// applyImageTagPolicy appends the overridable default tag to images that name
// neither a tag nor a variable.
func applyImageTagPolicy(service map[string]any) {
	image, ok := service["image"].(string)
	if !ok || image == "" {
		return
	}
	if !strings.ContainsAny(image, ":$") {
		service["image"] = image + ":${TAG:-latest}"
	}
}

// normalizePorts rewrites every service port entry to long form. Short-form
// strings accept "PORT", "HOST:CONTAINER" and "IP:HOST:CONTAINER", each with
// an optional "/PROTOCOL" suffix.
func normalizePorts(service map[string]any) error {
	ports, ok := service["ports"].([]any)
	if !ok {
		return nil
	}
	normalized := make([]any, 0, len(ports))
	for _, entry := range ports {
		switch v := entry.(type) {
		case map[string]any:
			if _, ok := v["protocol"]; !ok {
				v["protocol"] = "tcp"
			}
			normalized = append(normalized, v)
		case string:
			long, err := parsePortString(v)
			if err != nil {
				return ValidationError{Reason: err.Error()}
			}
			normalized = append(normalized, long)
		default:
			return ValidationError{Reason: fmt.Sprintf("unsupported port entry %v", entry)}
		}
	}
	service["ports"] = normalized
	return nil
}

func parsePortString(spec string) (map[string]any, error) {
	proto := "tcp"
	if base, suffix, found := strings.Cut(spec, "/"); found {
		spec = base
		if suffix != "" {
			proto = suffix
		}
	}

	parts := strings.Split(spec, ":")
	entry := map[string]any{"protocol": proto}
	switch len(parts) {
	case 1:
		entry["published"] = portValue(parts[0])
		entry["target"] = portValue(parts[0])
	case 2:
		entry["published"] = portValue(parts[0])
		entry["target"] = portValue(parts[1])
	case 3:
		entry["host_ip"] = parts[0]
		entry["published"] = portValue(parts[1])
		entry["target"] = portValue(parts[2])
	default:
		return nil, fmt.Errorf("malformed port mapping %q", spec)
	}
	return entry, nil
}

func portValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

// normalizeVolumes rewrites every service volume entry to long form. Relative
// bind sources are rewritten onto ${HOST_PATH} exactly once.
func normalizeVolumes(service map[string]any) error {
	volumes, ok := service["volumes"].([]any)
	if !ok {
		return nil
	}
	normalized := make([]any, 0, len(volumes))
	for _, entry := range volumes {
		switch v := entry.(type) {
		case map[string]any:
			rewriteRelativeSource(v)
			normalized = append(normalized, v)
		case string:
			long, err := parseVolumeString(v)
			if err != nil {
				return ValidationError{Reason: err.Error()}
			}
			rewriteRelativeSource(long)
			normalized = append(normalized, long)
		default:
			return ValidationError{Reason: fmt.Sprintf("unsupported volume entry %v", entry)}
		}
	}
	service["volumes"] = normalized
	return nil
}

func parseVolumeString(spec string) (map[string]any, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("malformed volume mapping %q", spec)
	}
	entry := map[string]any{
		"type":   "volume",
		"source": parts[0],
		"target": parts[1],
	}
	if isPathSource(parts[0]) {
		entry["type"] = "bind"
	}
	if len(parts) == 3 && parts[2] == "ro" {
		entry["read_only"] = true
	}
	return entry, nil
}

func isPathSource(source string) bool {
	return strings.HasPrefix(source, "/") ||
		strings.HasPrefix(source, "./") ||
		strings.HasPrefix(source, "../") ||
		strings.HasPrefix(source, "~") ||
		strings.HasPrefix(source, "$")
}

func rewriteRelativeSource(entry map[string]any) {
	if stringOr(entry["type"], "") != "bind" {
		return
	}
	source := stringOr(entry["source"], "")
	if strings.HasPrefix(source, "./") {
		entry["source"] = "${HOST_PATH}/" + source[2:]
	}
}

// composeSection extracts one top-level section from the compose bucket,
// wrapping list forms into maps.
func composeSection(bucket map[string]any, key string) map[string]any {
	switch v := bucket[key].(type) {
	case map[string]any:
		return v
	case []any:
		out := make(map[string]any, len(v))
		for _, entry := range v {
			if name, ok := entry.(string); ok && name != "" {
				out[name] = map[string]any{}
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return map[string]any{v: map[string]any{}}
	default:
		return nil
	}
}

func pruneDescriptor(desc *StackDescriptor) {
	for name, svc := range desc.Services {
		// A network attachment with no per-network config is expressed as an
		// empty map; the generic empty-value pruning must not swallow it.
		networks, hadNetworks := svc["networks"].(map[string]any)
		if hadNetworks {
			delete(svc, "networks")
		}

		if _, empty := Prune(svc); empty && !hadNetworks {
			delete(desc.Services, name)
			continue
		}
		if hadNetworks && len(networks) > 0 {
			for netName, cfg := range networks {
				if cleaned, empty := Prune(cfg); !empty {
					networks[netName] = cleaned
				} else {
					networks[netName] = map[string]any{}
				}
			}
			svc["networks"] = networks
		}
	}
	for _, section := range []*map[string]any{&desc.Networks, &desc.Volumes, &desc.Secrets, &desc.Configs} {
		if *section == nil {
			continue
		}
		for name, entry := range *section {
			// A nil entry is a valid compose shorthand for "defaults", but the
			// normalized output always uses explicit maps.
			if entry == nil {
				(*section)[name] = map[string]any{}
				continue
			}
			if cleaned, empty := Prune(entry); !empty {
				(*section)[name] = cleaned
			} else {
				(*section)[name] = map[string]any{}
			}
		}
	}
}

func validateDescriptor(desc *StackDescriptor) error {
	if len(desc.Services) == 0 {
		return ValidationError{Reason: "no services in descriptor"}
	}
	for name, svc := range desc.Services {
		image, ok := svc["image"].(string)
		if !ok || image == "" {
			return ValidationError{Service: name, Reason: "image is required"}
		}
		if ports, ok := svc["ports"].([]any); ok {
			for _, entry := range ports {
				m, ok := entry.(map[string]any)
				if !ok {
					return ValidationError{Service: name, Reason: "port entry is not in long form"}
				}
				if _, ok := m["published"]; !ok {
					return ValidationError{Service: name, Reason: "port entry is missing published"}
				}
				if _, ok := m["target"]; !ok {
					return ValidationError{Service: name, Reason: "port entry is missing target"}
				}
			}
		}
		if volumes, ok := svc["volumes"].([]any); ok {
			for _, entry := range volumes {
				m, ok := entry.(map[string]any)
				if !ok {
					return ValidationError{Service: name, Reason: "volume entry is not in long form"}
				}
				if stringOr(m["target"], "") == "" {
					return ValidationError{Service: name, Reason: "volume entry is missing target"}
				}
				if stringOr(m["source"], "") == "" {
					return ValidationError{Service: name, Reason: "volume entry is missing source"}
				}
			}
		}
	}
	for name, entry := range desc.Networks {
		if _, ok := entry.(map[string]any); !ok {
			return ValidationError{Reason: fmt.Sprintf("network %q has a non-map definition", name)}
		}
	}
	return nil
}

// flattenEnvironment converts the internal environment map into the
// "KEY=VALUE" sequence form of the target compose format. Keys are emitted
// in sorted order so regeneration is reproducible.
func flattenEnvironment(service map[string]any) {
	env, ok := service["environment"].(map[string]any)
	if !ok {
		return
	}
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]any, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+formatEnvValue(env[key]))
	}
	service["environment"] = lines
}

func formatEnvValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
