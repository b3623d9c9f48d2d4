package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/louisbranch/lancerflow/internal/services/flow/attack"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

// ErrUnknownTemplate is returned for template ids with no registered card.
var ErrUnknownTemplate = errors.New("render: unknown template")

// CardFunc builds the component for one payload.
type CardFunc func(labels Labels, speaker tech.Speaker, payload tech.Payload) templ.Component

// HTML renders cards to HTML fragments.
type HTML struct {
	Labels    Labels
	templates map[string]CardFunc
}

// NewHTML returns a renderer with the tech attack card registered.
func NewHTML(locale string) *HTML {
	return &HTML{
		Labels:    LabelsFor(locale),
		templates: map[string]CardFunc{tech.TemplateID: TechAttackCard},
	}
}

// Register binds id to card, replacing any previous binding.
func (h *HTML) Register(id string, card CardFunc) {
	h.templates[id] = card
}

// Render implements tech.Renderer.
func (h *HTML) Render(ctx context.Context, speaker tech.Speaker, templateID string, payload tech.Payload) (string, error) {
	card, ok := h.templates[templateID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	var b strings.Builder
	if err := card(h.Labels, speaker, payload).Render(ctx, &b); err != nil {
		return "", fmt.Errorf("render %s: %w", templateID, err)
	}
	return b.String(), nil
}

// TechAttackCard is the chat card for a tech attack roll.
func TechAttackCard(labels Labels, speaker tech.Speaker, payload tech.Payload) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		cw := &cardWriter{w: w}
		cw.printf(`<div class="lancer-card tech-attack" data-speaker="%s">`, templ.EscapeString(speaker.ActorUUID))
		cw.printf(`<header><h3>%s</h3>`, templ.EscapeString(payload.Title))
		if speaker.Name != "" {
			cw.printf(`<span class="speaker">%s</span>`, templ.EscapeString(speaker.Name))
		}
		cw.printf(`</header>`)
		if len(payload.Tags) > 0 {
			cw.printf(`<ul class="tags">`)
			for _, tag := range payload.Tags {
				cw.printf(`<li data-tag="%s">%s</li>`, templ.EscapeString(tag.LID), templ.EscapeString(tagLabel(tag.LID, tag.Val)))
			}
			cw.printf(`</ul>`)
		}
		cw.printf(`<ol class="outcomes">`)
		for _, outcome := range payload.Outcomes {
			writeOutcome(cw, labels, outcome)
		}
		cw.printf(`</ol>`)
		if payload.Effect != "" {
			cw.printf(`<section class="effect"><h4>%s</h4><p>%s</p></section>`,
				templ.EscapeString(labels.Effect), templ.EscapeString(payload.Effect))
		}
		cw.printf(`<button type="button" class="reroll" data-macro="%s">%s</button>`,
			templ.EscapeString(payload.RerollInvocation), templ.EscapeString(labels.Reroll))
		cw.printf(`</div>`)
		return cw.err
	})
}

func writeOutcome(cw *cardWriter, labels Labels, outcome attack.Outcome) {
	name := labels.NoTarget
	if outcome.Target != nil {
		name = outcome.Target.Name
		if name == "" {
			name = outcome.Target.ID
		}
	}
	cw.printf(`<li class="outcome">`)
	cw.printf(`<span class="target">%s</span>`, templ.EscapeString(name))
	cw.printf(`<span class="formula">%s</span>`, templ.EscapeString(outcome.Formula))
	cw.printf(`<span class="total" title="%s">%d</span>`, templ.EscapeString(labels.Total), outcome.Total)
	if outcome.Doubles() {
		cw.printf(`<span class="doubles">%s</span>`, templ.EscapeString(labels.Doubles))
	}
	if outcome.Target != nil {
		if outcome.Hit {
			cw.printf(`<span class="result hit">%s</span>`, templ.EscapeString(labels.Hit))
		} else {
			cw.printf(`<span class="result miss">%s</span>`, templ.EscapeString(labels.Miss))
		}
	}
	cw.printf(`</li>`)
}

func tagLabel(lid, val string) string {
	name := strings.TrimPrefix(lid, "tg_")
	name = strings.ToUpper(strings.ReplaceAll(name, "_", " "))
	if val == "" {
		return name
	}
	return name + " " + val
}

// cardWriter keeps the first write error.
type cardWriter struct {
	w   io.Writer
	err error
}

func (c *cardWriter) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(c.w, format, args...)
}

var _ tech.Renderer = (*HTML)(nil)
