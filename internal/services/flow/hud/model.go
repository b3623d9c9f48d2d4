// Package hud is the interactive terminal accuracy/difficulty prompt.
//
// The operator moves between the roll-wide row and one row per target and
// adjusts accuracy, difficulty and cover. The target set is fixed for the
// lifetime of the prompt.
package hud

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/message"

	"github.com/louisbranch/lancerflow/internal/platform/i18n/catalog"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
)

// Labels are the localized strings the prompt shows.
type Labels struct {
	Title      string
	Base       string
	Accuracy   string
	Difficulty string
	Cover      string
	Net        string
	Help       string
}

// LabelsFor loads labels for locale from the embedded catalog.
func LabelsFor(locale string) Labels {
	p := catalog.Default().Printer(locale)
	return labelsFrom(p)
}

func labelsFrom(p *message.Printer) Labels {
	return Labels{
		Title:      p.Sprintf("flow.hud.title"),
		Base:       p.Sprintf("flow.hud.base"),
		Accuracy:   p.Sprintf("flow.hud.accuracy"),
		Difficulty: p.Sprintf("flow.hud.difficulty"),
		Cover:      p.Sprintf("flow.hud.cover"),
		Net:        p.Sprintf("flow.hud.net"),
		Help:       p.Sprintf("flow.hud.help"),
	}
}

// Model is the bubbletea model for one negotiation.
type Model struct {
	ad        accdiff.AccDiff
	labels    Labels
	cursor    int
	confirmed bool
	cancelled bool
}

// NewModel starts a prompt over a copy of ad.
func NewModel(ad accdiff.AccDiff, labels Labels) Model {
	return Model{ad: ad.Clone(), labels: labels}
}

// AccDiff returns the edited state.
func (m Model) AccDiff() accdiff.AccDiff { return m.ad.Clone() }

// Confirmed reports whether the operator pressed enter.
func (m Model) Confirmed() bool { return m.confirmed }

// Cancelled reports whether the operator backed out.
func (m Model) Cancelled() bool { return m.cancelled }

// Cursor is the selected row; 0 is the roll-wide row.
func (m Model) Cursor() int { return m.cursor }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.ad.Targets) {
			m.cursor++
		}
	case "a":
		m.adjust(func(e *accdiff.Edit) { e.Accuracy++ })
	case "A":
		m.adjust(func(e *accdiff.Edit) { e.Accuracy = max(0, e.Accuracy-1) })
	case "d":
		m.adjust(func(e *accdiff.Edit) { e.Difficulty++ })
	case "D":
		m.adjust(func(e *accdiff.Edit) { e.Difficulty = max(0, e.Difficulty-1) })
	case "c":
		m.adjust(func(e *accdiff.Edit) { e.Cover = e.Cover.Next() })
	case "enter":
		m.confirmed = true
		return m, tea.Quit
	case "esc", "q", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

// adjust edits the selected row. Targets are copied first so the value
// returned by an earlier Update never shares a slice with this one.
func (m *Model) adjust(fn func(*accdiff.Edit)) {
	if m.cursor == 0 {
		fn(&m.ad.Base)
		return
	}
	m.ad.Targets = append([]accdiff.Target{}, m.ad.Targets...)
	fn(&m.ad.Targets[m.cursor-1].Edit)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", m.labels.Title, m.ad.Title)))
	b.WriteString("\n")

	b.WriteString(m.row(0, m.labels.Base, m.ad.Base, m.ad.NetModifierFor(nil)))
	for i, target := range m.ad.Targets {
		ref := target.Ref
		name := ref.Name
		if name == "" {
			name = ref.ID
		}
		b.WriteString(m.row(i+1, name, target.Edit, m.ad.NetModifierFor(&ref)))
	}
	b.WriteString(helpStyle.Render(m.labels.Help))
	return boxStyle.Render(b.String())
}

func (m Model) row(index int, name string, edit accdiff.Edit, net int) string {
	cover := string(edit.Cover)
	if cover == "" {
		cover = "-"
	}
	netText := fmt.Sprintf("%+d", net)
	switch {
	case net > 0:
		netText = positiveStyle.Render(netText)
	case net < 0:
		netText = negativeStyle.Render(netText)
	}
	line := fmt.Sprintf("%-18s %s %d  %s %d  %s %-4s  %s %s",
		name, m.labels.Accuracy, edit.Accuracy, m.labels.Difficulty, edit.Difficulty, m.labels.Cover, cover, m.labels.Net, netText)
	if index == m.cursor {
		return selectedRowStyle.Render("> "+line) + "\n"
	}
	return rowStyle.Render(line) + "\n"
}
