// Package i18n holds the translation tables shown to clients and the
// helpers that pick a language and format relative times.
package i18n

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	English  = "en"
	Spanish  = "es"
	Fallback = English
)

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	catalogs  = map[string]map[string]string{}
	supported = []language.Tag{language.English, language.Spanish}
	matcher   = language.NewMatcher(supported)
)

func init() {
	for _, lang := range []string{English, Spanish} {
		raw, err := localeFS.ReadFile("locales/" + lang + ".yaml")
		if err != nil {
			panic(fmt.Sprintf("i18n: missing catalog %s: %v", lang, err))
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(raw, &table); err != nil {
			panic(fmt.Sprintf("i18n: parsing catalog %s: %v", lang, err))
		}
		catalogs[lang] = table
	}
}

// Languages lists the supported language codes.
func Languages() []string {
	return []string{English, Spanish}
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalogs[lang]
	return ok
}

// Translate looks key up in lang, then in English, then returns key itself.
func Translate(lang, key string) string {
	if v, ok := catalogs[lang][key]; ok {
		return v
	}
	if v, ok := catalogs[Fallback][key]; ok {
		return v
	}
	return key
}

// Catalog returns a copy of the table for lang with English filling any gaps.
func Catalog(lang string) map[string]string {
	out := make(map[string]string, len(catalogs[Fallback]))
	for k, v := range catalogs[Fallback] {
		out[k] = v
	}
	for k, v := range catalogs[lang] {
		out[k] = v
	}
	return out
}

// DisplayName is the language's own name for itself.
func DisplayName(lang string) string {
	if lang == Spanish {
		return "Español"
	}
	return "English"
}

// Match picks the best supported language for an Accept-Language header.
// ok is false when the header names nothing we support.
func Match(acceptLanguage string) (lang string, ok bool) {
	if strings.TrimSpace(acceptLanguage) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	base, _ := supported[idx].Base()
	return base.String(), true
}

// RelativeTime renders ts relative to now the way the history list shows it.
// Anything a week or older falls back to a localized date.
func RelativeTime(ts, now time.Time, lang string) string {
	diff := now.Sub(ts)
	seconds := int(diff / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case seconds < 60:
		return Translate(lang, "justNow")
	case minutes < 60:
		return plural(lang, "minuteAgo", "minutesAgo", minutes)
	case hours < 24:
		return plural(lang, "hourAgo", "hoursAgo", hours)
	case days < 7:
		return plural(lang, "dayAgo", "daysAgo", days)
	}
	return FormatDate(ts, lang)
}

// FormatDate renders a short numeric date: d/m/yyyy for Spanish and
// m/d/yyyy otherwise. The date is taken in ts's own location.
func FormatDate(ts time.Time, lang string) string {
	if lang == Spanish {
		return fmt.Sprintf("%d/%d/%d", ts.Day(), int(ts.Month()), ts.Year())
	}
	return fmt.Sprintf("%d/%d/%d", int(ts.Month()), ts.Day(), ts.Year())
}

func plural(lang, one, many string, n int) string {
	key := many
	if n == 1 {
		key = one
	}
	return strings.ReplaceAll(Translate(lang, key), "{n}", strconv.Itoa(n))
}
