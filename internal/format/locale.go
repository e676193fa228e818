package format

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLang is used whenever the requested locale is unknown.
const DefaultLang = "en"

// Locale holds every template of one language. Loaded once at startup and
// never mutated afterwards.
type Locale struct {
	Messages map[string]string `json:"messages"`
	Stats    map[string]string `json:"stats"`
	Activity map[string]string `json:"activity"`
	Segment  map[string]string `json:"segment"`
	Gear     map[string]string `json:"gear"`
	Users    map[string]string `json:"users"`
}

func loadLocales() (map[string]Locale, error) {
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("reading embedded locales: %w", err)
	}

	locales := make(map[string]Locale, len(entries))
	for _, entry := range entries {
		raw, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading locale %s: %w", entry.Name(), err)
		}

		var loc Locale
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, fmt.Errorf("parsing locale %s: %w", entry.Name(), err)
		}

		lang := strings.TrimSuffix(entry.Name(), ".json")
		locales[lang] = loc
	}

	if _, ok := locales[DefaultLang]; !ok {
		return nil, fmt.Errorf("default locale %q missing", DefaultLang)
	}

	return locales, nil
}
