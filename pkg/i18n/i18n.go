// Package i18n serves the fr, en and es message catalogues.
// Catalogues are nested JSON objects embedded in the binary and looked up
// with dotted keys such as "commands.mute.success".
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/goccy/go-json"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is used when a guild has no language or an unknown one
const DefaultLanguage = "fr"

// Vars are the {placeholder} substitutions of a message
type Vars map[string]any

// Catalog holds every loaded language, flattened to dotted keys
type Catalog struct {
	fallback string
	langs    map[string]map[string]string
}

var (
	catalog *Catalog
	once    sync.Once
)

// Init loads the embedded catalogues with the given fallback language
func Init(fallback string) *Catalog {
	once.Do(func() {
		c, err := Load(localeFS, "locales", fallback)
		if err != nil {
			logger.Error(fmt.Sprintf("Error cargando idiomas: %v", err), "I18n")
			c = &Catalog{fallback: DefaultLanguage, langs: map[string]map[string]string{}}
		}
		catalog = c
	})
	return catalog
}

// Get returns the global catalog, loading it with the default fallback
func Get() *Catalog {
	return Init(DefaultLanguage)
}

// Load reads every <lang>.json file under dir
func Load(fsys embed.FS, dir, fallback string) (*Catalog, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	c := &Catalog{fallback: fallback, langs: map[string]map[string]string{}}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := fsys.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		flat := map[string]string{}
		flatten("", tree, flat)
		c.langs[strings.TrimSuffix(name, ".json")] = flat
	}
	if _, ok := c.langs[fallback]; !ok {
		return nil, fmt.Errorf("fallback language %q not found", fallback)
	}

	logger.System(fmt.Sprintf("Idiomas cargados: %s", strings.Join(c.Languages(), ", ")), "I18n")
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Languages returns the loaded language codes, sorted
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.langs))
	for l := range c.langs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether lang has a catalogue
func (c *Catalog) Supported(lang string) bool {
	_, ok := c.langs[lang]
	return ok
}

// Has reports whether key exists in lang
func (c *Catalog) Has(lang, key string) bool {
	_, ok := c.langs[lang][key]
	return ok
}

// Keys returns every key of lang, sorted
func (c *Catalog) Keys(lang string) []string {
	out := make([]string, 0, len(c.langs[lang]))
	for k := range c.langs[lang] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// T translates key into lang. Missing keys fall back to the fallback
// language and then to the key itself.
func (c *Catalog) T(lang, key string, vars Vars) string {
	msg, ok := c.langs[lang][key]
	if !ok {
		msg, ok = c.langs[c.fallback][key]
	}
	if !ok {
		return key
	}
	if len(vars) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// T translates with the global catalog
func T(lang, key string, vars Vars) string {
	return Get().T(lang, key, vars)
}
