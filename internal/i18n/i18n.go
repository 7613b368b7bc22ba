// Package i18n resolves message keys into localized strings. Descriptions
// carried by weather items use a leading '!' to mean "this is a key"; anything
// else is displayed verbatim.
package i18n

import (
	"fmt"
	"strings"
	"time"
)

const fallbackLanguage = "en"

// Catalog holds per-language message templates.
type Catalog struct {
	langs map[string]map[string]string
}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog {
	return &Catalog{langs: map[string]map[string]string{
		"en": english,
		"ru": russian,
	}}
}

// Get resolves key for lang, formatting args into the template. Languages
// fall back to English; an untranslated key renders as the key itself so the
// gap is visible instead of silently swallowed.
func (c *Catalog) Get(lang, key string, args ...any) string {
	table, ok := c.langs[lang]
	if !ok {
		table = c.langs[fallbackLanguage]
	}
	tpl, ok := table[key]
	if !ok {
		tpl, ok = c.langs[fallbackLanguage][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}

// Resolve renders a weather description: '!'-prefixed strings resolve through
// the catalog, everything else is provider text shown as-is.
func (c *Catalog) Resolve(lang, name string) string {
	if strings.HasPrefix(name, "!") {
		return c.Get(lang, name[1:])
	}
	return name
}

// Weekday returns the localized weekday name.
func (c *Catalog) Weekday(lang string, wd time.Weekday) string {
	return c.Get(lang, "weekday."+strings.ToLower(wd.String()))
}

// Month returns the localized month name.
func (c *Catalog) Month(lang string, m time.Month) string {
	return c.Get(lang, "month."+strings.ToLower(m.String()))
}

// FormatDuration renders a duration as "3h05m" / "45m", for the sunrise and
// sunset countdowns.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
