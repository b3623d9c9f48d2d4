// Package catalog loads the embedded locale message catalogs and registers
// them with x/text so printers can resolve keys per language.
//
// Catalogs live at locales/<locale>/<namespace>.yaml. The flow namespace
// holds card and HUD labels; the errors namespace holds notice templates.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every other catalog is translated from. It must
// define every key.
const BaseLocale = "en-US"

const catalogGlob = "locales/*/*.yaml"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds every loaded locale, keyed by locale then namespace.
type Bundle struct {
	locales map[string]map[string]map[string]string
	// owner maps each key to its namespace; keys are unique per locale.
	owner   map[string]string
	matcher language.Matcher
	tags    []language.Tag
}

//go:embed locales/*/*.yaml
var embedded embed.FS

var defaultBundle = mustLoadAndRegisterEmbedded()

// Default returns the process-wide embedded bundle, already registered.
func Default() *Bundle {
	return defaultBundle
}

// LoadEmbedded loads the catalogs shipped with the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embedded)
}

// LoadFromFS loads every locales/<locale>/<namespace>.yaml file in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, catalogGlob)
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	slices.Sort(paths)

	b := &Bundle{
		locales: map[string]map[string]map[string]string{},
		owner:   map[string]string{},
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, file); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
	}
	if !b.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	b.buildMatcher()
	return b, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	namespace := strings.TrimSpace(file.Namespace)
	switch {
	case locale == "":
		return fmt.Errorf("locale is required")
	case locale != path.Base(path.Dir(p)):
		return fmt.Errorf("locale %q does not match its directory", locale)
	case namespace == "":
		return fmt.Errorf("namespace is required")
	case namespace != strings.TrimSuffix(path.Base(p), path.Ext(p)):
		return fmt.Errorf("namespace %q does not match its file name", namespace)
	case len(file.Messages) == 0:
		return fmt.Errorf("messages map is required")
	}

	namespaces := b.locales[locale]
	if namespaces == nil {
		namespaces = map[string]map[string]string{}
		b.locales[locale] = namespaces
	}
	if _, ok := namespaces[namespace]; ok {
		return fmt.Errorf("namespace %q defined twice for %s", namespace, locale)
	}

	messages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("message key cannot be blank")
		}
		if owner, ok := b.owner[key]; ok && owner != namespace {
			return fmt.Errorf("key %q already belongs to namespace %q", key, owner)
		}
		b.owner[key] = namespace
		messages[key] = value
	}
	namespaces[namespace] = messages
	return nil
}

func (b *Bundle) buildMatcher() {
	b.tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range b.Locales() {
		if locale == BaseLocale {
			continue
		}
		if tag, err := language.Parse(locale); err == nil {
			b.tags = append(b.tags, tag)
		}
	}
	b.matcher = language.NewMatcher(b.tags)
}

// Register installs every message with x/text/message. Keys missing from a
// locale get the base-locale text so printers never fall through to the raw
// key.
func (b *Bundle) Register() error {
	if b == nil {
		return nil
	}
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		messages := b.LocaleMessages(BaseLocale)
		maps.Copy(messages, b.LocaleMessages(locale))
		for _, key := range slices.Sorted(maps.Keys(messages)) {
			if err := message.SetString(tag, key, messages[key]); err != nil {
				return fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
		}
	}
	return nil
}

// Printer returns a printer for the closest loaded locale. An empty or
// unknown locale gets the base locale.
func (b *Bundle) Printer(locale string) *message.Printer {
	requested, _, _ := language.ParseAcceptLanguage(strings.TrimSpace(locale))
	_, index, _ := b.matcher.Match(requested...)
	return message.NewPrinter(b.tags[index])
}

// HasLocale reports whether the locale exists in this bundle.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns the loaded locales, sorted.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.locales))
}

// Namespaces returns the sorted namespaces defined for a locale.
func (b *Bundle) Namespaces(locale string) []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.locales[strings.TrimSpace(locale)]))
}

// LocaleMessages returns a copy of every message a locale defines, across
// namespaces.
func (b *Bundle) LocaleMessages(locale string) map[string]string {
	out := map[string]string{}
	if b == nil {
		return out
	}
	for _, messages := range b.locales[strings.TrimSpace(locale)] {
		maps.Copy(out, messages)
	}
	return out
}

// NamespaceMessages returns a copy of exactly what a locale defines for one
// namespace.
func (b *Bundle) NamespaceMessages(locale string, namespace string) map[string]string {
	out := map[string]string{}
	if b == nil {
		return out
	}
	maps.Copy(out, b.locales[strings.TrimSpace(locale)][strings.TrimSpace(namespace)])
	return out
}

// Resolve returns the messages for namespace in locale, with base-locale
// text filling any key the locale leaves out. A locale that defines nothing
// for the namespace resolves to BaseLocale, which is returned as the
// effective locale.
func (b *Bundle) Resolve(locale string, namespace string) (string, map[string]string) {
	locale = strings.TrimSpace(locale)
	messages := b.NamespaceMessages(BaseLocale, namespace)
	own := b.NamespaceMessages(locale, namespace)
	if len(own) == 0 {
		return BaseLocale, messages
	}
	maps.Copy(messages, own)
	return locale, messages
}

func mustLoadAndRegisterEmbedded() *Bundle {
	bundle, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	if err := bundle.Register(); err != nil {
		panic(err)
	}
	return bundle
}
