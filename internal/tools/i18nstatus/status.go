// Package i18nstatus reports how much of each locale catalog is translated
// relative to the base locale.
package i18nstatus

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	i18ncatalog "github.com/louisbranch/lancerflow/internal/platform/i18n/catalog"
)

// Report is the translation status of every locale in a bundle.
type Report struct {
	BaseLocale string         `json:"base_locale"`
	Locales    []LocaleStatus `json:"locales"`
}

// LocaleStatus summarizes one locale.
type LocaleStatus struct {
	Locale      string            `json:"locale"`
	BaseKeys    int               `json:"base_keys"`
	Translated  int               `json:"translated"`
	Missing     int               `json:"missing"`
	Extra       int               `json:"extra"`
	Completion  float64           `json:"completion"`
	Namespaces  []NamespaceStatus `json:"namespaces"`
	MissingKeys []string          `json:"missing_keys"`
	ExtraKeys   []string          `json:"extra_keys"`
}

// NamespaceStatus summarizes one catalog namespace (errors, flow) of a locale.
type NamespaceStatus struct {
	Namespace  string  `json:"namespace"`
	BaseKeys   int     `json:"base_keys"`
	Translated int     `json:"translated"`
	Missing    int     `json:"missing"`
	Completion float64 `json:"completion"`
}

// Build compares every locale in bundle against baseLocale.
func Build(bundle *i18ncatalog.Bundle, baseLocale string) (Report, error) {
	if bundle == nil || !bundle.HasLocale(baseLocale) {
		return Report{}, fmt.Errorf("base locale %q is missing from catalogs", baseLocale)
	}
	base := bundle.LocaleMessages(baseLocale)

	rep := Report{BaseLocale: baseLocale}
	for _, locale := range bundle.Locales() {
		messages := bundle.LocaleMessages(locale)
		missing := diffKeys(base, messages)
		extra := diffKeys(messages, base)
		translated := len(base) - len(missing)

		status := LocaleStatus{
			Locale:      locale,
			BaseKeys:    len(base),
			Translated:  translated,
			Missing:     len(missing),
			Extra:       len(extra),
			Completion:  percent(translated, len(base)),
			MissingKeys: missing,
			ExtraKeys:   extra,
		}
		for _, namespace := range bundle.Namespaces(baseLocale) {
			baseNS := bundle.NamespaceMessages(baseLocale, namespace)
			nsMissing := diffKeys(baseNS, bundle.NamespaceMessages(locale, namespace))
			nsTranslated := len(baseNS) - len(nsMissing)
			status.Namespaces = append(status.Namespaces, NamespaceStatus{
				Namespace:  namespace,
				BaseKeys:   len(baseNS),
				Translated: nsTranslated,
				Missing:    len(nsMissing),
				Completion: percent(nsTranslated, len(baseNS)),
			})
		}
		rep.Locales = append(rep.Locales, status)
	}

	sort.Slice(rep.Locales, func(i, j int) bool {
		return rep.Locales[i].Locale < rep.Locales[j].Locale
	})
	return rep, nil
}

// Incomplete lists the locales with missing keys.
func (r Report) Incomplete() []string {
	var out []string
	for _, locale := range r.Locales {
		if locale.Missing > 0 {
			out = append(out, locale.Locale)
		}
	}
	return out
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteMarkdown writes a translator-friendly summary.
func WriteMarkdown(w io.Writer, rep Report) error {
	var b strings.Builder
	b.WriteString("# I18n Status\n\n")
	fmt.Fprintf(&b, "Base locale: `%s`.\n\n", rep.BaseLocale)
	b.WriteString("| Locale | Base Keys | Translated | Missing | Extra | Completion |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: |\n")
	for _, locale := range rep.Locales {
		fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %d | %.1f%% |\n", locale.Locale, locale.BaseKeys, locale.Translated, locale.Missing, locale.Extra, locale.Completion)
	}

	for _, locale := range rep.Locales {
		if len(locale.MissingKeys) == 0 && len(locale.ExtraKeys) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## `%s`\n", locale.Locale)
		for _, ns := range locale.Namespaces {
			if ns.Missing > 0 {
				fmt.Fprintf(&b, "\n%s: %d of %d missing\n", ns.Namespace, ns.Missing, ns.BaseKeys)
			}
		}
		writeKeys(&b, "Missing", locale.MissingKeys)
		writeKeys(&b, "Extra", locale.ExtraKeys)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeKeys(b *strings.Builder, heading string, keys []string) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s Keys\n\n", heading)
	for _, key := range keys {
		fmt.Fprintf(b, "- `%s`\n", key)
	}
}

// diffKeys returns the keys of a absent from b, sorted.
func diffKeys(a, b map[string]string) []string {
	out := make([]string, 0)
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func percent(numerator int, denominator int) float64 {
	if denominator <= 0 {
		return 100
	}
	value := float64(numerator) * 100 / float64(denominator)
	return math.Round(value*10) / 10
}
