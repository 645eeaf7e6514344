package installer

import (
	"fmt"
	"sort"

	"github.com/stackarr/stackarr/internal/model"
)

// MissingPrerequisites returns the blueprint names required by the selected
// apps that are neither already installed nor part of the selection.
func MissingPrerequisites(apps []*model.App, blueprints map[string]*model.Blueprint, installed map[string]bool) []string {
	available := make(map[string]bool, len(installed)+len(apps))
	for name := range installed {
		available[name] = true
	}
	for _, app := range apps {
		available[app.BlueprintName] = true
	}

	missing := make(map[string]bool)
	for _, app := range apps {
		bp := blueprints[app.BlueprintName]
		if bp == nil {
			continue
		}
		for _, prereq := range bp.Prerequisites {
			if !available[prereq] {
				missing[prereq] = true
			}
		}
	}

	out := make([]string, 0, len(missing))
	for name := range missing {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResolveOrder sorts the selected apps so every app installs after its
// prerequisites, using each blueprint's install_order to break ties.
// Prerequisites outside the selection are assumed installed already and do
// not gate ordering. A dependency cycle within the selection is an error.
func ResolveOrder(apps []*model.App, blueprints map[string]*model.Blueprint) ([]*model.App, error) {
	selected := make(map[string]*model.App, len(apps))
	for _, app := range apps {
		selected[app.BlueprintName] = app
	}

	// Only prerequisites inside the selection participate in the sort.
	deps := make(map[string][]string, len(apps))
	inDegree := make(map[string]int, len(apps))
	for _, app := range apps {
		inDegree[app.BlueprintName] = 0
	}
	for _, app := range apps {
		bp := blueprints[app.BlueprintName]
		if bp == nil {
			continue
		}
		for _, prereq := range bp.Prerequisites {
			if _, ok := selected[prereq]; ok {
				deps[app.BlueprintName] = append(deps[app.BlueprintName], prereq)
				inDegree[app.BlueprintName]++
			}
		}
	}

	installOrder := func(name string) float64 {
		if bp := blueprints[name]; bp != nil {
			return bp.InstallOrder
		}
		return 0
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	var sorted []string
	for len(queue) > 0 {
		sort.Slice(queue, func(i, j int) bool {
			oi, oj := installOrder(queue[i]), installOrder(queue[j])
			if oi != oj {
				return oi < oj
			}
			return queue[i] < queue[j]
		})
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for name, prereqs := range deps {
			for _, prereq := range prereqs {
				if prereq != current {
					continue
				}
				inDegree[name]--
				if inDegree[name] == 0 {
					queue = append(queue, name)
				}
			}
		}
	}

	if len(sorted) != len(apps) {
		remaining := make([]string, 0)
		for name, degree := range inDegree {
			if degree > 0 {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return nil, fmt.Errorf("circular dependency detected among: %v", remaining)
	}

	out := make([]*model.App, len(sorted))
	for i, name := range sorted {
		out[i] = selected[name]
	}
	return out, nil
}
