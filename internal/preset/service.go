package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/store"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// Service loads preset definitions from a directory and turns them into
// pending app records. Presets are never persisted; the JSON files are the
// source of truth and are re-read on every call.
type Service struct {
	dir   string
	store store.Store
}

// NewService creates a preset service for the given presets directory.
func NewService(dir string, st store.Store) *Service {
	return &Service{dir: dir, store: st}
}

// List loads every preset file in the directory, sorted by preset name. A
// broken file is logged and skipped so one bad preset never hides the rest.
func (s *Service) List(ctx context.Context) ([]*Preset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Presets directory not found", zap.String("dir", s.dir))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read presets directory %s: %w", s.dir, err)
	}

	var presets []*Preset
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		p, err := s.loadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			logger.Error("Failed to load preset",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		presets = append(presets, p)
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}

// Get loads a single preset by ID.
func (s *Service) Get(ctx context.Context, id string) (*Preset, error) {
	path := filepath.Join(s.dir, id+".json")
	if _, err := os.Stat(path); err != nil {
		return nil, ErrPresetNotFound{ID: id}
	}
	return s.loadFile(path)
}

func (s *Service) loadFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	p := &Preset{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	p.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Analyze checks a preset against the loaded blueprints and existing apps:
// which entries can be created, which blueprints are missing, which apps
// exist already, and which required inputs have no default and therefore
// need a user-supplied value.
func (s *Service) Analyze(ctx context.Context, id string) (*Analysis, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.appsByBlueprint(ctx)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{RequiredInputs: make(map[string][]RequiredInput)}
	for _, appName := range p.Apps {
		bp, err := s.store.GetBlueprint(ctx, appName)
		if err != nil {
			if store.IsNotFound(err) {
				analysis.MissingBlueprints = append(analysis.MissingBlueprints, appName)
				continue
			}
			return nil, err
		}
		if existing[appName] {
			analysis.AlreadyExists = append(analysis.AlreadyExists, appName)
			continue
		}

		analysis.AvailableApps = append(analysis.AvailableApps, appName)
		if required := requiredInputs(bp.Schema); len(required) > 0 {
			analysis.RequiredInputs[appName] = required
		}
	}
	return analysis, nil
}

// requiredInputs extracts the fields that are required but carry no default.
func requiredInputs(schema map[string]*model.FieldSchema) []RequiredInput {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	var required []RequiredInput
	for _, name := range names {
		field := schema[name]
		if field == nil || !field.Required || field.Default != nil {
			continue
		}
		label := field.Label
		if label == "" {
			label = name
		}
		required = append(required, RequiredInput{
			Field:       name,
			Label:       label,
			Type:        field.Type,
			UIComponent: field.UIComponent,
			Description: field.Description,
			Placeholder: field.Placeholder,
			IsSensitive: field.IsSensitive,
			Required:    true,
		})
	}
	return required
}

// Apply creates a configured app record for every preset entry whose
// blueprint is loaded and not yet instantiated. inputs maps app name to the
// user's answers for that app; schema defaults fill the rest. Entries that
// cannot be created are skipped with the reason recorded, never failing the
// whole preset.
func (s *Service) Apply(ctx context.Context, id string, inputs map[string]map[string]any) (*ApplyResult, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.appsByBlueprint(ctx)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Errors: make(map[string]string)}
	for _, appName := range p.Apps {
		bp, err := s.store.GetBlueprint(ctx, appName)
		if err != nil {
			if store.IsNotFound(err) {
				result.Skipped = append(result.Skipped, appName)
				result.Errors[appName] = "blueprint not found"
				continue
			}
			return nil, err
		}
		if existing[appName] {
			result.Skipped = append(result.Skipped, appName)
			result.Errors[appName] = "app already exists"
			continue
		}

		app := &model.App{
			Name:          appName,
			BlueprintName: appName,
			Status:        model.StatusConfigured,
			RawInputs:     fillDefaults(bp.Schema, inputs[appName]),
		}
		if err := s.store.CreateApp(ctx, app); err != nil {
			logger.Error("Failed to create app from preset",
				zap.String("preset", id), zap.String("app", appName), zap.Error(err))
			result.Skipped = append(result.Skipped, appName)
			result.Errors[appName] = err.Error()
			continue
		}
		logger.Info("Created pending app from preset",
			zap.String("preset", id), zap.String("app", appName), zap.String("id", app.ID))
		result.CreatedApps = append(result.CreatedApps, app.ID)
	}
	return result, nil
}

// fillDefaults copies schema defaults into the inputs for fields the user
// did not answer. User values are never overwritten.
func fillDefaults(schema map[string]*model.FieldSchema, inputs map[string]any) map[string]any {
	filled := make(map[string]any, len(inputs)+len(schema))
	for name, value := range inputs {
		filled[name] = value
	}
	for name, field := range schema {
		if field == nil || field.Default == nil {
			continue
		}
		if _, ok := filled[name]; !ok {
			filled[name] = field.Default
		}
	}
	return filled
}

func (s *Service) appsByBlueprint(ctx context.Context) (map[string]bool, error) {
	apps, err := s.store.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(apps))
	for _, app := range apps {
		out[app.BlueprintName] = true
	}
	return out, nil
}
