// Package docseed loads actor and item fixtures into a document store.
//
// Fixtures are JSON or YAML documents with two lists:
//
//	actors:
//	  - uuid: m1
//	    name: Raven
//	    type: mech
//	    system: {tech_attack: 2, edef: 10, evasion: 8}
//	items:
//	  - uuid: f1
//	    name: Spike
//	    type: npc_feature
//	    actor_uuid: n1
package docseed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/lancerflow/internal/services/flow/storage"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// ErrInvalidFixture indicates a fixture that cannot be loaded.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is a set of documents to load.
type Fixture struct {
	Actors []lancer.Actor `json:"actors"`
	Items  []lancer.Item  `json:"items"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Actors int
	Items  int
}

// Format selects the fixture encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file extension; anything that is not
// .yaml or .yml is read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a fixture and validates it.
func Decode(r io.Reader, format Format) (Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	if format == FormatYAML {
		// Documents only carry json tags; route YAML through a generic value.
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Fixture{}, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return Fixture{}, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var fixture Fixture
	if err := dec.Decode(&fixture); err != nil {
		return Fixture{}, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if err := fixture.Validate(); err != nil {
		return Fixture{}, err
	}
	return fixture, nil
}

// Validate checks identifiers and item ownership.
func (f Fixture) Validate() error {
	seen := make(map[string]bool, len(f.Actors)+len(f.Items))
	actors := make(map[string]bool, len(f.Actors))
	for i, actor := range f.Actors {
		if actor.UUID == "" {
			return fmt.Errorf("%w: actor %d has no uuid", ErrInvalidFixture, i)
		}
		if seen[actor.UUID] {
			return fmt.Errorf("%w: duplicate uuid %s", ErrInvalidFixture, actor.UUID)
		}
		seen[actor.UUID] = true
		actors[actor.UUID] = true
	}
	for i, item := range f.Items {
		if item.UUID == "" {
			return fmt.Errorf("%w: item %d has no uuid", ErrInvalidFixture, i)
		}
		if seen[item.UUID] {
			return fmt.Errorf("%w: duplicate uuid %s", ErrInvalidFixture, item.UUID)
		}
		seen[item.UUID] = true
		if item.ActorUUID != "" && !actors[item.ActorUUID] {
			return fmt.Errorf("%w: item %s owned by unknown actor %s", ErrInvalidFixture, item.UUID, item.ActorUUID)
		}
	}
	return nil
}

// Apply writes every document in f. Existing documents are replaced.
func Apply(ctx context.Context, store storage.DocumentStore, f Fixture) (Summary, error) {
	var summary Summary
	if err := f.Validate(); err != nil {
		return summary, err
	}
	for _, actor := range f.Actors {
		if err := store.PutActor(ctx, actor); err != nil {
			return summary, fmt.Errorf("put actor %s: %w", actor.UUID, err)
		}
		summary.Actors++
	}
	for _, item := range f.Items {
		if err := store.PutItem(ctx, item); err != nil {
			return summary, fmt.Errorf("put item %s: %w", item.UUID, err)
		}
		summary.Items++
	}
	return summary, nil
}
