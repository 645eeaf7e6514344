package compose

import (
	"context"
	"fmt"
	"sort"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// Generator runs the full input-routing and compose-generation pipeline for
// one app instance. It is stateless between calls: every pass takes an
// immutable snapshot of schema, globals and inputs and returns a value, so
// concurrent generation for different apps needs no locking. The only
// side effect is network creation requested through the injected ensurer.
type Generator struct {
	ensurer NetworkEnsurer
}

// NewGenerator creates a generator. The ensurer may be nil, in which case
// custom networks with mode "create" are attached without being created;
// dry-run callers use this.
func NewGenerator(ensurer NetworkEnsurer) *Generator {
	return &Generator{ensurer: ensurer}
}

// Result is the output of one generation pass.
type Result struct {
	Stack       *StackDescriptor
	EnvFile     string
	ServiceName string

	// Metadata holds fields routed to the metadata bucket (admin credentials
	// and the like). It is recomputed on every pass and surfaced to the
	// caller only; nothing writes it to disk or the store.
	Metadata map[string]any

	// CustomNetworks lists the network attachments requested by transforms,
	// including their create/existing mode.
	CustomNetworks []CustomNetwork
}

// Generate produces the validated stack descriptor and env-file text for one
// app. Given identical blueprint, globals, identity and inputs it returns
// byte-identical output.
func (g *Generator) Generate(ctx context.Context, bp *model.Blueprint, globals model.GlobalSettings, app model.AppIdentity, raw RawInputs) (*Result, error) {
	if bp == nil || len(bp.Schema) == 0 {
		return nil, SchemaError{Field: "", Reason: "blueprint has no field schema"}
	}
	logger.Debug("Generating stack",
		zap.String("app", app.Name), zap.String("blueprint", bp.Name))

	expander := NewExpander(globals, app)
	expanded := expander.ExpandSchema(bp.Schema)
	complete := ApplyDefaults(raw, expanded)

	routed, err := Route(complete, expanded)
	if err != nil {
		return nil, err
	}

	cache := &Cache{}
	pass := &Pass{
		Ctx:     ctx,
		Service: routed.Service,
		Raw:     complete,
		Cache:   cache,
		Ensurer: g.ensurer,
	}
	for _, name := range sortedTransformFields(expanded) {
		value, ok := complete[name]
		if !ok || value == nil {
			continue
		}
		ApplyTransform(pass, expanded[name].ComposeTransform, value, expanded[name])
	}

	InjectGlobals(routed.Service, expanded, globals)
	MergeWildcardFields(routed.Service, complete, expanded)
	g.applyStaticIP(routed.Service, bp, globals)

	desc, err := Assemble(routed, cache, app)
	if err != nil {
		return nil, fmt.Errorf("assembling stack for %s: %w", app.Name, err)
	}

	serviceName := ""
	for name := range desc.Services {
		serviceName = name
	}

	return &Result{
		Stack:          desc,
		EnvFile:        RenderEnvFile(bp.Schema, raw, app.HostPath),
		ServiceName:    serviceName,
		Metadata:       routed.Metadata,
		CustomNetworks: cache.CustomNetworks,
	}, nil
}

// applyStaticIP attaches the managed network with the blueprint's fixed
// address when one is declared and nothing else configured that network.
func (g *Generator) applyStaticIP(service map[string]any, bp *model.Blueprint, globals model.GlobalSettings) {
	if len(bp.StaticIPs) == 0 {
		return
	}
	ip := bp.StaticIPs[bp.Name]
	if ip == "" {
		return
	}
	networks := serviceNetworks(service)
	if _, exists := networks[globals.NetworkName]; !exists {
		networks[globals.NetworkName] = map[string]any{"ipv4_address": ip}
	}
}

func sortedTransformFields(schema map[string]*model.FieldSchema) []string {
	names := make([]string, 0, len(schema))
	for name, field := range schema {
		if field != nil && field.ComposeTransform != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
