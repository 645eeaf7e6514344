package compose

import (
	"reflect"
	"testing"
)

func TestSetPathCreatesIntermediateMaps(t *testing.T) {
	root := map[string]any{}
	SetPath(root, "environment.PUID", 1000)
	SetPath(root, "environment.TZ", "UTC")
	SetPath(root, "restart", "unless-stopped")

	want := map[string]any{
		"environment": map[string]any{"PUID": 1000, "TZ": "UTC"},
		"restart":     "unless-stopped",
	}
	if !reflect.DeepEqual(root, want) {
		t.Errorf("got %v, want %v", root, want)
	}
}

func TestSetPathReplacesNonMapNode(t *testing.T) {
	root := map[string]any{"environment": "oops"}
	SetPath(root, "environment.TZ", "UTC")

	env, ok := root["environment"].(map[string]any)
	if !ok {
		t.Fatalf("environment is not a map: %v", root["environment"])
	}
	if env["TZ"] != "UTC" {
		t.Errorf("TZ = %v, want UTC", env["TZ"])
	}
}

func TestAppendAtPath(t *testing.T) {
	root := map[string]any{}
	AppendAtPath(root, "ports", "8080:80")
	AppendAtPath(root, "ports", "8443:443")

	if !reflect.DeepEqual(root["ports"], []any{"8080:80", "8443:443"}) {
		t.Errorf("ports = %v", root["ports"])
	}
}

func TestAppendAtPathWrapsScalar(t *testing.T) {
	root := map[string]any{"ports": "8080:80"}
	AppendAtPath(root, "ports", "8443:443")

	if !reflect.DeepEqual(root["ports"], []any{"8080:80", "8443:443"}) {
		t.Errorf("ports = %v", root["ports"])
	}
}

func TestGetPath(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 1}}

	if v, ok := GetPath(root, "a.b"); !ok || v != 1 {
		t.Errorf("a.b = %v, %v", v, ok)
	}
	if _, ok := GetPath(root, "a.missing"); ok {
		t.Error("a.missing should not be found")
	}
	if _, ok := GetPath(root, "a.b.c"); ok {
		t.Error("descending through a scalar should fail")
	}
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		want      any
		wantEmpty bool
	}{
		{"empty string", "", "", true},
		{"false survives", false, false, false},
		{"zero survives", 0, 0, false},
		{"nil", nil, nil, true},
		{
			"nested map",
			map[string]any{"keep": "x", "drop": "", "sub": map[string]any{"also": ""}},
			map[string]any{"keep": "x"},
			false,
		},
		{
			"list drops empties",
			[]any{"a", "", map[string]any{}, 0},
			[]any{"a", 0},
			false,
		},
		{
			"all-empty map",
			map[string]any{"a": "", "b": []any{}},
			map[string]any{},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, empty := Prune(tt.value)
			if empty != tt.wantEmpty {
				t.Errorf("empty = %v, want %v", empty, tt.wantEmpty)
			}
			if !tt.wantEmpty && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	original := map[string]any{"a": map[string]any{"b": []any{1, 2}}}
	copied := DeepCopy(original).(map[string]any)

	copied["a"].(map[string]any)["b"].([]any)[0] = 99
	if original["a"].(map[string]any)["b"].([]any)[0] != 1 {
		t.Error("mutation of the copy leaked into the original")
	}
}
