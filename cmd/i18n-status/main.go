// Package main prints the translation status of the embedded catalogs.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/lancerflow/internal/platform/config"
	i18ncatalog "github.com/louisbranch/lancerflow/internal/platform/i18n/catalog"
	"github.com/louisbranch/lancerflow/internal/tools/i18nstatus"
)

func main() {
	var baseLocale string
	var asJSON bool
	var strict bool
	flag.StringVar(&baseLocale, "base-locale", i18ncatalog.BaseLocale, "base locale used as translation source of truth")
	flag.BoolVar(&asJSON, "json", false, "write JSON instead of markdown")
	flag.BoolVar(&strict, "strict", false, "exit non-zero when a locale is incomplete")
	flag.Parse()

	rep, err := i18nstatus.Build(i18ncatalog.Default(), baseLocale)
	config.ExitIf(err, "build report")

	if asJSON {
		err = i18nstatus.WriteJSON(os.Stdout, rep)
	} else {
		err = i18nstatus.WriteMarkdown(os.Stdout, rep)
	}
	config.ExitIf(err, "write report")

	if incomplete := rep.Incomplete(); strict && len(incomplete) > 0 {
		config.Exitf("incomplete locales: %v", incomplete)
	}
}
