package scenario

import (
	"fmt"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

func requiredString(args map[string]any, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func optionalString(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return fallback
}

func optionalInt(args map[string]any, key string, fallback int) int {
	if value, ok := args[key].(int); ok {
		return value
	}
	return fallback
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	if value, ok := args[key].(bool); ok {
		return value
	}
	return fallback
}

// stringList accepts a Lua sequence of strings; nil and {} are empty.
func stringList(raw any) ([]string, error) {
	items, err := list(raw)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		value, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("entry %d is not a string", i+1)
		}
		out = append(out, value)
	}
	return out, nil
}

func intList(raw any) ([]int, error) {
	items, err := list(raw)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(items))
	for i, item := range items {
		value, ok := item.(int)
		if !ok {
			return nil, fmt.Errorf("entry %d is not an integer", i+1)
		}
		out = append(out, value)
	}
	return out, nil
}

func list(raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected a list, got %T", raw)
}

func actionList(raw any) ([]lancer.Action, error) {
	items, err := list(raw)
	if err != nil {
		return nil, err
	}
	actions := make([]lancer.Action, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("action %d is not a table", i+1)
		}
		name, err := requiredString(fields, "name")
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		actions = append(actions, lancer.Action{
			Name:       name,
			Activation: lancer.Activation(optionalString(fields, "activation", string(lancer.ActivationQuick))),
			Detail:     optionalString(fields, "detail", ""),
		})
	}
	return actions, nil
}

func editFrom(raw any) (accdiff.Edit, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return accdiff.Edit{}, fmt.Errorf("edit must be a table, got %T", raw)
	}
	edit := accdiff.Edit{
		Accuracy:   optionalInt(fields, "accuracy", 0),
		Difficulty: optionalInt(fields, "difficulty", 0),
		Cover:      accdiff.Cover(optionalString(fields, "cover", "")),
	}
	switch edit.Cover {
	case accdiff.CoverNone, accdiff.CoverSoft, accdiff.CoverHard:
	default:
		return accdiff.Edit{}, fmt.Errorf("unknown cover %q", edit.Cover)
	}
	return edit, nil
}
