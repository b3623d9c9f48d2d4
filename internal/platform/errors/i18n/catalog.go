// Package i18n formats user-facing error notices from the locale catalogs.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	i18ncatalog "github.com/louisbranch/lancerflow/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

const namespace = "errors"

// Catalog holds the notice templates of one locale, compiled once.
type Catalog struct {
	locale    string
	raw       map[Code]string
	templates map[Code]*template.Template
}

var (
	mu       sync.RWMutex
	catalogs = map[string]*Catalog{}
)

// GetCatalog returns the catalog for locale. Codes the locale does not
// translate use the base-locale template, and an unknown locale gets the
// base catalog itself.
func GetCatalog(locale string) *Catalog {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = i18ncatalog.BaseLocale
	}
	if c := lookup(locale); c != nil {
		return c
	}
	resolved, messages := i18ncatalog.Default().Resolve(locale, namespace)
	if c := lookup(resolved); c != nil {
		return c
	}

	mu.Lock()
	defer mu.Unlock()
	if c, ok := catalogs[resolved]; ok {
		return c
	}
	c := NewCatalog(resolved, messages)
	catalogs[resolved] = c
	return c
}

// RegisterCatalog installs cat for locale, replacing the embedded one.
func RegisterCatalog(locale string, cat *Catalog) {
	mu.Lock()
	defer mu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog compiles messages into a catalog. Templates that fail to parse
// are kept as plain text.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if t, err := template.New(code).Option("missingkey=zero").Parse(text); err == nil {
			c.templates[code] = t
		}
	}
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the notice for code. An unknown code renders as itself; a
// template that cannot be parsed or executed renders as its raw text.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	text, ok := c.raw[code]
	if !ok {
		return code
	}
	t, ok := c.templates[code]
	if !ok {
		return text
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return text
	}
	return buf.String()
}

func lookup(locale string) *Catalog {
	mu.RLock()
	defer mu.RUnlock()
	return catalogs[locale]
}
