package compose

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stackarr/stackarr/internal/model"
)

func TestRouteBuckets(t *testing.T) {
	schema := map[string]*model.FieldSchema{
		"image":      {Type: model.TypeString, SchemaPath: "service.image"},
		"puid":       {Type: model.TypeInteger, SchemaPath: "service.environment.PUID"},
		"admin_user": {Type: model.TypeString, SchemaPath: "metadata.admin_user"},
		"tag":        {Type: model.TypeString, SchemaPath: "env.TAG"},
		"volumes":    {Type: model.TypeObject, SchemaPath: "compose.volumes"},
	}
	inputs := RawInputs{
		"image":      "linuxserver/sonarr",
		"puid":       1000,
		"admin_user": "admin",
		"tag":        "4.0",
		"volumes":    map[string]any{"media": map[string]any{}},
	}

	routed, err := Route(inputs, schema)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	if routed.Service["image"] != "linuxserver/sonarr" {
		t.Errorf("service.image = %v", routed.Service["image"])
	}
	env, _ := GetPath(routed.Service, "environment.PUID")
	if env != 1000 {
		t.Errorf("service.environment.PUID = %v", env)
	}
	if routed.Metadata["admin_user"] != "admin" {
		t.Errorf("metadata.admin_user = %v", routed.Metadata["admin_user"])
	}
	// env-routed fields never reach the descriptor buckets
	for _, bucket := range []map[string]any{routed.Service, routed.Compose, routed.Metadata} {
		if _, ok := bucket["TAG"]; ok {
			t.Error("env-routed value leaked into a descriptor bucket")
		}
		if _, ok := bucket["tag"]; ok {
			t.Error("env-routed value leaked into a descriptor bucket")
		}
	}
	if _, ok := routed.Compose["volumes"]; !ok {
		t.Error("compose.volumes missing")
	}
}

func TestRouteDropsFieldsWithoutSchema(t *testing.T) {
	routed, err := Route(RawInputs{"stale": "x"}, map[string]*model.FieldSchema{})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if len(routed.Service) != 0 {
		t.Errorf("stale input was routed: %v", routed.Service)
	}
}

func TestRouteSkipsTransformAndWildcardFields(t *testing.T) {
	schema := map[string]*model.FieldSchema{
		"ports": {Type: model.TypeArray, SchemaPath: "service.ports", ComposeTransform: TransformPortArray},
		"env":   {Type: model.TypeArray, SchemaPath: "service.environment.*"},
	}
	inputs := RawInputs{
		"ports": []any{map[string]any{"host": 1, "container": 2}},
		"env":   []any{map[string]any{"key": "A", "value": "1"}},
	}

	routed, err := Route(inputs, schema)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if len(routed.Service) != 0 {
		t.Errorf("transform or wildcard field was routed directly: %v", routed.Service)
	}
}

func TestRouteDefaultsToServiceBucket(t *testing.T) {
	schema := map[string]*model.FieldSchema{
		"restart": {Type: model.TypeString},
	}
	routed, err := Route(RawInputs{"restart": "unless-stopped"}, schema)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if routed.Service["restart"] != "unless-stopped" {
		t.Errorf("service.restart = %v", routed.Service["restart"])
	}
}

func TestRouteUnknownBucketFallsBackToService(t *testing.T) {
	schema := map[string]*model.FieldSchema{
		"weird": {Type: model.TypeString, SchemaPath: "mystery.deep.slot"},
	}
	routed, err := Route(RawInputs{"weird": "v"}, schema)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	got, _ := GetPath(routed.Service, "mystery.deep.slot")
	if got != "v" {
		t.Errorf("fallback path = %v", got)
	}
}

func TestRouteEmptyBucketSegmentFails(t *testing.T) {
	schema := map[string]*model.FieldSchema{
		"bad": {Type: model.TypeString, SchemaPath: ".image"},
	}
	_, err := Route(RawInputs{"bad": "x"}, schema)
	var schemaErr SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestRouteWrapsBareNetworkString(t *testing.T) {
	schema := map[string]*model.FieldSchema{
		"net": {Type: model.TypeString, SchemaPath: "service.networks"},
	}
	routed, err := Route(RawInputs{"net": "backend"}, schema)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if !reflect.DeepEqual(routed.Service["networks"], []any{"backend"}) {
		t.Errorf("networks = %v", routed.Service["networks"])
	}
}
