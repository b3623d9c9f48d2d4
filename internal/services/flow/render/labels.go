package render

import "github.com/louisbranch/lancerflow/internal/platform/i18n/catalog"

// Labels are the localized strings printed on a card.
type Labels struct {
	Effect   string
	Target   string
	NoTarget string
	Hit      string
	Miss     string
	Total    string
	Reroll   string
	Doubles  string
}

// LabelsFor loads card labels for locale.
func LabelsFor(locale string) Labels {
	p := catalog.Default().Printer(locale)
	return Labels{
		Effect:   p.Sprintf("flow.card.effect"),
		Target:   p.Sprintf("flow.card.target"),
		NoTarget: p.Sprintf("flow.card.no_target"),
		Hit:      p.Sprintf("flow.card.hit"),
		Miss:     p.Sprintf("flow.card.miss"),
		Total:    p.Sprintf("flow.card.total"),
		Reroll:   p.Sprintf("flow.card.reroll"),
		Doubles:  p.Sprintf("flow.card.doubles"),
	}
}
