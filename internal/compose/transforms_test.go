package compose

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stackarr/stackarr/internal/model"
)

func newPass() *Pass {
	return &Pass{
		Ctx:     context.Background(),
		Service: map[string]any{},
		Raw:     RawInputs{},
		Cache:   &Cache{},
	}
}

func TestTransformPortMappingCompound(t *testing.T) {
	p := newPass()
	value := map[string]any{"host": 8989, "container": 8989, "protocol": "udp"}

	transformPortMapping(p, value, &model.FieldSchema{})

	want := []any{map[string]any{"published": 8989, "target": 8989, "protocol": "udp"}}
	if !reflect.DeepEqual(p.Service["ports"], want) {
		t.Errorf("ports = %v", p.Service["ports"])
	}
}

func TestTransformPortMappingLegacyRunsOnce(t *testing.T) {
	p := newPass()
	p.Raw = RawInputs{"host_port": 8080, "container_port": 80}

	transformPortMapping(p, "ignored", &model.FieldSchema{})
	transformPortMapping(p, "ignored", &model.FieldSchema{})

	ports, _ := p.Service["ports"].([]any)
	if len(ports) != 1 {
		t.Fatalf("legacy mapping emitted %d entries, want 1", len(ports))
	}
	want := map[string]any{"published": 8080, "target": 80, "protocol": "tcp"}
	if !reflect.DeepEqual(ports[0], want) {
		t.Errorf("entry = %v", ports[0])
	}
}

func TestTransformPortArraySkipsBlankEntries(t *testing.T) {
	p := newPass()
	value := []any{
		map[string]any{"host": 8080, "container": 80},
		map[string]any{"host": "", "container": 443},
		map[string]any{"host": 0, "container": 22},
		"not a map",
	}

	transformPortArray(p, value, &model.FieldSchema{})

	ports, _ := p.Service["ports"].([]any)
	if len(ports) != 1 {
		t.Fatalf("got %d port entries, want 1: %v", len(ports), ports)
	}
}

func TestTransformVolumeMappingLegacyString(t *testing.T) {
	p := newPass()
	field := &model.FieldSchema{VolumeTarget: "/config"}

	transformVolumeMapping(p, "/mnt/media", field)

	want := []any{map[string]any{
		"type": "bind", "source": "/mnt/media", "target": "/config", "read_only": false,
	}}
	if !reflect.DeepEqual(p.Service["volumes"], want) {
		t.Errorf("volumes = %v", p.Service["volumes"])
	}
}

func TestTransformVolumeMappingLegacyDefaultTarget(t *testing.T) {
	p := newPass()

	transformVolumeMapping(p, "/mnt/media", &model.FieldSchema{})

	volumes, _ := p.Service["volumes"].([]any)
	entry := volumes[0].(map[string]any)
	if entry["target"] != "/data" {
		t.Errorf("target = %v, want /data", entry["target"])
	}
}

func TestTransformVolumeArrayRewritesRelativeBindSource(t *testing.T) {
	p := newPass()
	value := []any{
		map[string]any{"type": "bind", "source": "./config", "target": "/config"},
		map[string]any{"type": "volume", "source": "media", "target": "/media"},
		map[string]any{"source": "", "target": "/skip"},
	}

	transformVolumeArray(p, value, &model.FieldSchema{})

	volumes, _ := p.Service["volumes"].([]any)
	if len(volumes) != 2 {
		t.Fatalf("got %d volume entries, want 2", len(volumes))
	}
	first := volumes[0].(map[string]any)
	if first["source"] != "${HOST_PATH}/config" {
		t.Errorf("bind source = %v", first["source"])
	}
	second := volumes[1].(map[string]any)
	if second["source"] != "media" {
		t.Errorf("volume source rewritten: %v", second["source"])
	}
}

func TestTransformNetworkConfigStaticAddress(t *testing.T) {
	p := newPass()
	value := map[string]any{"network_name": "lan", "ipv4_address": "10.21.12.9"}

	transformNetworkConfig(p, value, &model.FieldSchema{})

	networks := p.Service["networks"].(map[string]any)
	if !reflect.DeepEqual(networks["lan"], map[string]any{"ipv4_address": "10.21.12.9"}) {
		t.Errorf("lan = %v", networks["lan"])
	}
}

type fakeEnsurer struct {
	ensured []string
	fail    bool
}

func (f *fakeEnsurer) EnsureNetwork(ctx context.Context, name string) error {
	f.ensured = append(f.ensured, name)
	if f.fail {
		return errors.New("daemon unreachable")
	}
	return nil
}

func TestTransformCustomNetworksArray(t *testing.T) {
	p := newPass()
	ensurer := &fakeEnsurer{}
	p.Ensurer = ensurer
	value := []any{
		map[string]any{"network_name": "vpn", "mode": "create"},
		map[string]any{"network_name": "backend"},
		map[string]any{"network_name": ""},
	}

	transformCustomNetworksArray(p, value, &model.FieldSchema{})

	if !reflect.DeepEqual(ensurer.ensured, []string{"vpn"}) {
		t.Errorf("ensured = %v, want [vpn]", ensurer.ensured)
	}
	networks := p.Service["networks"].(map[string]any)
	if _, ok := networks["vpn"]; !ok {
		t.Error("vpn not attached")
	}
	if _, ok := networks["backend"]; !ok {
		t.Error("backend not attached")
	}
	want := []CustomNetwork{{Name: "vpn", Mode: "create"}, {Name: "backend", Mode: "existing"}}
	if !reflect.DeepEqual(p.Cache.CustomNetworks, want) {
		t.Errorf("cache = %v", p.Cache.CustomNetworks)
	}
}

func TestTransformCustomNetworksArrayEnsureFailureStillAttaches(t *testing.T) {
	p := newPass()
	p.Ensurer = &fakeEnsurer{fail: true}
	value := []any{map[string]any{"network_name": "vpn", "mode": "create"}}

	transformCustomNetworksArray(p, value, &model.FieldSchema{})

	networks := p.Service["networks"].(map[string]any)
	if _, ok := networks["vpn"]; !ok {
		t.Error("network must be attached even when the ensure call fails")
	}
}

func TestTransformCustomNetworksPreservesExistingConfig(t *testing.T) {
	p := newPass()
	p.Service["networks"] = map[string]any{"vpn": map[string]any{"ipv4_address": "10.0.0.5"}}
	value := []any{map[string]any{"network_name": "vpn"}}

	transformCustomNetworksArray(p, value, &model.FieldSchema{})

	networks := p.Service["networks"].(map[string]any)
	if !reflect.DeepEqual(networks["vpn"], map[string]any{"ipv4_address": "10.0.0.5"}) {
		t.Errorf("existing network config was overwritten: %v", networks["vpn"])
	}
}

func TestApplyTransformUnknownTagIsNoOp(t *testing.T) {
	p := newPass()
	ApplyTransform(p, "future_transform", "value", &model.FieldSchema{})
	if len(p.Service) != 0 {
		t.Errorf("unknown transform mutated the service: %v", p.Service)
	}
}
