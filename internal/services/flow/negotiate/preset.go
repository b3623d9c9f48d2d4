// Package negotiate provides non-interactive Negotiators for surfaces that
// collect accuracy/difficulty edits up front, such as MCP tools, HTTP forms
// and scenario scripts.
package negotiate

import (
	"context"
	"fmt"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

// Preset applies fixed edits to whatever AccDiff it is shown.
type Preset struct {
	// Base replaces the roll-wide edit when set.
	Base *accdiff.Edit
	// Targets replaces per-target edits by target id. Ids that are not among
	// the current targets are an error.
	Targets map[string]accdiff.Edit
	// Cancel makes Negotiate behave like an operator backing out.
	Cancel bool
}

// Negotiate returns a copy of ad with the preset edits applied.
func (p Preset) Negotiate(ctx context.Context, _ tech.Kind, ad accdiff.AccDiff) (accdiff.AccDiff, error) {
	if err := ctx.Err(); err != nil {
		return accdiff.AccDiff{}, err
	}
	if p.Cancel {
		return accdiff.AccDiff{}, tech.ErrCancelled
	}
	out := ad.Clone()
	if p.Base != nil {
		out.Base = *p.Base
	}
	for id, edit := range p.Targets {
		next, err := out.SetEdit(id, edit)
		if err != nil {
			return accdiff.AccDiff{}, fmt.Errorf("preset edit: %w", err)
		}
		out = next
	}
	return out, nil
}

// Confirm is a Negotiator that accepts the AccDiff unchanged.
var Confirm tech.Negotiator = Preset{}

var _ tech.Negotiator = Preset{}
