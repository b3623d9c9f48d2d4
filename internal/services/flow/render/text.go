package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

var (
	cardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	hitStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	missStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Text renders cards for a terminal.
type Text struct {
	Labels Labels
}

// NewText returns a terminal renderer for locale.
func NewText(locale string) *Text {
	return &Text{Labels: LabelsFor(locale)}
}

// Render implements tech.Renderer. Only the tech attack card is known.
func (r *Text) Render(_ context.Context, speaker tech.Speaker, templateID string, payload tech.Payload) (string, error) {
	if templateID != tech.TemplateID {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	var b strings.Builder
	title := payload.Title
	if speaker.Name != "" {
		title = fmt.Sprintf("%s (%s)", title, speaker.Name)
	}
	b.WriteString(cardTitleStyle.Render(title))
	b.WriteString("\n")
	if len(payload.Tags) > 0 {
		labels := make([]string, 0, len(payload.Tags))
		for _, tag := range payload.Tags {
			labels = append(labels, tagLabel(tag.LID, tag.Val))
		}
		b.WriteString(dimStyle.Render(strings.Join(labels, ", ")))
		b.WriteString("\n")
	}
	for _, outcome := range payload.Outcomes {
		name := r.Labels.NoTarget
		if outcome.Target != nil {
			name = outcome.Target.Name
			if name == "" {
				name = outcome.Target.ID
			}
		}
		line := fmt.Sprintf("%s: %s = %d", name, outcome.Formula, outcome.Total)
		if outcome.Doubles() {
			line += " [" + r.Labels.Doubles + "]"
		}
		if outcome.Target != nil {
			if outcome.Hit {
				line += " " + hitStyle.Render(r.Labels.Hit)
			} else {
				line += " " + missStyle.Render(r.Labels.Miss)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if payload.Effect != "" {
		b.WriteString(fmt.Sprintf("%s: %s\n", r.Labels.Effect, payload.Effect))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s: %s", r.Labels.Reroll, payload.RerollInvocation)))
	return cardStyle.Render(b.String()), nil
}

var _ tech.Renderer = (*Text)(nil)
