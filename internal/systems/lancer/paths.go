package lancer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidPath indicates an empty or malformed dot path.
var ErrInvalidPath = errors.New("invalid document path")

// ResolveDotPath looks up path (for example "system.actions.0") in a JSON
// document. The boolean is false when nothing exists at path.
func ResolveDotPath(doc []byte, path string) (gjson.Result, bool) {
	path = strings.TrimSpace(path)
	if path == "" || !gjson.ValidBytes(doc) {
		return gjson.Result{}, false
	}
	result := gjson.GetBytes(doc, path)
	if !result.Exists() || result.Type == gjson.Null {
		return gjson.Result{}, false
	}
	return result, true
}

// ResolveAction returns the action found at path on item, or nil when the
// path does not name an object with an action name.
func ResolveAction(item Item, path string) (*Action, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode item %s: %w", item.UUID, err)
	}
	result, ok := ResolveDotPath(doc, path)
	if !ok || !result.IsObject() {
		return nil, nil
	}
	var action Action
	if err := json.Unmarshal([]byte(result.Raw), &action); err != nil {
		return nil, fmt.Errorf("decode action at %s: %w", path, err)
	}
	if action.Name == "" {
		return nil, nil
	}
	return &action, nil
}

// ApplyPatch sets each path in patch to its value. Paths are applied in
// sorted order so the same patch always yields the same bytes.
func ApplyPatch(doc []byte, patch map[string]any) ([]byte, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("patch: document is not valid json")
	}
	paths := make([]string, 0, len(patch))
	for path := range patch {
		if strings.TrimSpace(path) == "" {
			return nil, ErrInvalidPath
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := doc
	for _, path := range paths {
		next, err := sjson.SetBytes(out, path, patch[path])
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", path, err)
		}
		out = next
	}
	return out, nil
}
