// Package i18n negotiates the response language and looks up message catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

// Fallback is the language every catalog falls back to.
const Fallback = "en"

// Catalog holds flattened messages per language ("error.not_found").
type Catalog struct {
	langs    []string
	matcher  language.Matcher
	messages map[string]map[string]string
}

var defaultCatalog = mustLoad()

// Default returns the catalog built from the embedded locales.
func Default() *Catalog { return defaultCatalog }

func mustLoad() *Catalog {
	c, err := Load(locales)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads every locales/*.toml file in fsys. The file name is the language tag.
func Load(fsys fs.FS) (*Catalog, error) {
	files, err := fs.Glob(fsys, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, f := range files {
		lang := strings.TrimSuffix(path.Base(f), ".toml")
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("locale %s: %w", f, err)
		}
		var raw map[string]any
		if _, err := toml.DecodeFS(fsys, f, &raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		msgs := make(map[string]string)
		flatten("", raw, msgs)
		c.messages[lang] = msgs
		c.langs = append(c.langs, lang)
	}
	if _, ok := c.messages[Fallback]; !ok {
		return nil, fmt.Errorf("missing %s catalog", Fallback)
	}

	// The fallback goes first: the matcher returns it when nothing matches.
	tags := []language.Tag{language.Make(Fallback)}
	for _, l := range c.langs {
		if l != Fallback {
			tags = append(tags, language.Make(l))
		}
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		}
	}
}

// Languages lists the supported language tags.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.langs...)
}

// Match picks the best supported language for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Fallback
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return Fallback
	}
	if idx == 0 {
		return Fallback
	}
	others := make([]string, 0, len(c.langs))
	for _, l := range c.langs {
		if l != Fallback {
			others = append(others, l)
		}
	}
	return others[idx-1]
}

// T formats the message key in lang, falling back to English and then to the key itself.
func (c *Catalog) T(lang, key string, args ...any) string {
	msg, ok := c.messages[lang][key]
	if !ok {
		msg, ok = c.messages[Fallback][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
