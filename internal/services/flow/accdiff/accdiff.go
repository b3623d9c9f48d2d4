// Package accdiff models the accuracy and difficulty applied to one attack
// roll, both globally and per target.
//
// Values are copy-on-edit: negotiation works on a Clone and returns a new
// AccDiff. ReplaceTargets is the only method that mutates in place.
package accdiff

import (
	"errors"
	"fmt"

	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// ErrInvalid indicates an AccDiff that cannot drive a roll.
var ErrInvalid = errors.New("invalid accuracy/difficulty")

// Cover is the cover a target benefits from.
type Cover string

const (
	CoverNone Cover = ""
	CoverSoft Cover = "soft"
	CoverHard Cover = "hard"
)

// Difficulty is the difficulty cover adds to an attack.
func (c Cover) Difficulty() int {
	switch c {
	case CoverSoft:
		return 1
	case CoverHard:
		return 2
	default:
		return 0
	}
}

// Next cycles none -> soft -> hard -> none.
func (c Cover) Next() Cover {
	switch c {
	case CoverNone:
		return CoverSoft
	case CoverSoft:
		return CoverHard
	default:
		return CoverNone
	}
}

func (c Cover) valid() bool {
	return c == CoverNone || c == CoverSoft || c == CoverHard
}

// Edit is an operator adjustment, either for the whole roll or one target.
type Edit struct {
	Accuracy   int   `json:"accuracy"`
	Difficulty int   `json:"difficulty"`
	Cover      Cover `json:"cover,omitempty"`
}

// TargetRef identifies a target and the defenses an attack is checked against.
type TargetRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	EDefense int    `json:"edef"`
	Evasion  int    `json:"evasion"`
}

// Target is a target plus the operator's edit for it.
type Target struct {
	Ref  TargetRef `json:"ref"`
	Edit Edit      `json:"edit"`
}

// AccDiff is the accuracy/difficulty state for one roll attempt.
type AccDiff struct {
	Title             string       `json:"title"`
	SourceTags        []lancer.Tag `json:"source_tags"`
	Seeking           bool         `json:"seeking"`
	Accurate          bool         `json:"accurate"`
	Inaccurate        bool         `json:"inaccurate"`
	BaseAccuracy      int          `json:"base_accuracy"`
	BaseDifficulty    int          `json:"base_difficulty"`
	PerSourceModifier int          `json:"per_source_modifier"`
	Base              Edit         `json:"base"`
	Targets           []Target     `json:"targets"`
}

// FromParams builds the initial AccDiff for a fresh flow. extraAccuracy is a
// situational bonus applied as base accuracy; a negative value becomes base
// difficulty so BaseAccuracy stays non-negative.
func FromParams(title string, sourceTags []lancer.Tag, targets []TargetRef, extraAccuracy int) AccDiff {
	ad := AccDiff{
		Title:      title,
		SourceTags: append([]lancer.Tag{}, sourceTags...),
		Targets:    []Target{},
	}
	for _, tag := range sourceTags {
		switch {
		case tag.IsAccurate():
			ad.Accurate = true
		case tag.IsInaccurate():
			ad.Inaccurate = true
		case tag.IsSeeking():
			ad.Seeking = true
		}
	}
	if extraAccuracy >= 0 {
		ad.BaseAccuracy = extraAccuracy
	} else {
		ad.BaseDifficulty = -extraAccuracy
	}
	for _, ref := range dedupe(targets) {
		ad.Targets = append(ad.Targets, Target{Ref: ref})
	}
	return ad
}

// ReplaceTargets swaps the target list for newTargets. Edits survive for
// targets present in both lists; new targets start with a zero edit.
func (ad *AccDiff) ReplaceTargets(newTargets []TargetRef) {
	previous := make(map[string]Edit, len(ad.Targets))
	for _, target := range ad.Targets {
		previous[target.Ref.ID] = target.Edit
	}
	refs := dedupe(newTargets)
	replaced := make([]Target, 0, len(refs))
	for _, ref := range refs {
		replaced = append(replaced, Target{Ref: ref, Edit: previous[ref.ID]})
	}
	ad.Targets = replaced
}

// NetModifierFor returns accuracy minus difficulty for target, or for the
// unconditional roll when target is nil. The result may be negative.
func (ad AccDiff) NetModifierFor(target *TargetRef) int {
	accuracy := ad.BaseAccuracy + ad.PerSourceModifier + ad.Base.Accuracy
	difficulty := ad.BaseDifficulty + ad.Base.Difficulty
	if ad.Accurate {
		accuracy++
	}
	if ad.Inaccurate {
		difficulty++
	}

	cover := ad.Base.Cover
	if target != nil {
		if edit, ok := ad.EditFor(target.ID); ok {
			accuracy += edit.Accuracy
			difficulty += edit.Difficulty
			if edit.Cover.Difficulty() > cover.Difficulty() {
				cover = edit.Cover
			}
		}
	}
	if !ad.Seeking {
		difficulty += cover.Difficulty()
	}
	return accuracy - difficulty
}

// EditFor returns the edit recorded for target id.
func (ad AccDiff) EditFor(id string) (Edit, bool) {
	for _, target := range ad.Targets {
		if target.Ref.ID == id {
			return target.Edit, true
		}
	}
	return Edit{}, false
}

// SetEdit replaces the edit for target id on a copy of ad.
func (ad AccDiff) SetEdit(id string, edit Edit) (AccDiff, error) {
	out := ad.Clone()
	for i := range out.Targets {
		if out.Targets[i].Ref.ID == id {
			out.Targets[i].Edit = edit
			return out, nil
		}
	}
	return ad, fmt.Errorf("%w: unknown target %q", ErrInvalid, id)
}

// TargetIDs lists target ids in order.
func (ad AccDiff) TargetIDs() []string {
	ids := make([]string, 0, len(ad.Targets))
	for _, target := range ad.Targets {
		ids = append(ids, target.Ref.ID)
	}
	return ids
}

// Clone returns a deep copy.
func (ad AccDiff) Clone() AccDiff {
	out := ad
	out.SourceTags = append([]lancer.Tag{}, ad.SourceTags...)
	out.Targets = append([]Target{}, ad.Targets...)
	return out
}

// Validate checks the structural rules a roll depends on.
func (ad AccDiff) Validate() error {
	if ad.BaseAccuracy < 0 {
		return fmt.Errorf("%w: base accuracy %d is negative", ErrInvalid, ad.BaseAccuracy)
	}
	if !ad.Base.Cover.valid() {
		return fmt.Errorf("%w: unknown cover %q", ErrInvalid, ad.Base.Cover)
	}
	seen := make(map[string]struct{}, len(ad.Targets))
	for i, target := range ad.Targets {
		if target.Ref.ID == "" {
			return fmt.Errorf("%w: target %d has no id", ErrInvalid, i)
		}
		if _, dup := seen[target.Ref.ID]; dup {
			return fmt.Errorf("%w: duplicate target %q", ErrInvalid, target.Ref.ID)
		}
		if !target.Edit.Cover.valid() {
			return fmt.Errorf("%w: unknown cover %q for %q", ErrInvalid, target.Edit.Cover, target.Ref.ID)
		}
		seen[target.Ref.ID] = struct{}{}
	}
	return nil
}

// SameTargets reports whether ad and other cover the same targets, ignoring
// order. Refs must match in full, defenses included.
func (ad AccDiff) SameTargets(other AccDiff) bool {
	if len(ad.Targets) != len(other.Targets) {
		return false
	}
	refs := make(map[TargetRef]int, len(ad.Targets))
	for _, target := range ad.Targets {
		refs[target.Ref]++
	}
	for _, target := range other.Targets {
		if refs[target.Ref] == 0 {
			return false
		}
		refs[target.Ref]--
	}
	return true
}

func dedupe(refs []TargetRef) []TargetRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]TargetRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		out = append(out, ref)
	}
	return out
}
