package translate

import (
	"strings"

	"golang.org/x/text/language"
)

// LanguageTable maps user-facing language codes to one provider's native codes.
type LanguageTable struct {
	// Auto is the provider's auto-detect sentinel.
	Auto string
	// DefaultTarget is used when neither the requested nor the configured target is recognized.
	DefaultTarget string

	aliases   map[string]string
	supported map[string]string
}

func newLanguageTable(auto, defaultTarget string, supported []string, aliases map[string]string) *LanguageTable {
	t := &LanguageTable{
		Auto:          auto,
		DefaultTarget: defaultTarget,
		aliases:       make(map[string]string, len(aliases)),
		supported:     make(map[string]string, len(supported)),
	}
	for _, code := range supported {
		t.supported[strings.ToLower(code)] = code
	}
	for from, to := range aliases {
		t.aliases[strings.ToLower(from)] = to
	}
	return t
}

func (t *LanguageTable) lookup(code string) (string, bool) {
	if native, ok := t.aliases[code]; ok {
		return native, true
	}
	native, ok := t.supported[code]
	return native, ok
}

// Normalize resolves code to a native code, or returns fallback when nothing matches.
// BCP-47 forms such as "zh-Hans-CN" or "en_US" are reduced to their base/script/region parts.
func (t *LanguageTable) Normalize(code, fallback string) string {
	lower := strings.ToLower(strings.TrimSpace(code))
	if lower == "" {
		return fallback
	}
	if native, ok := t.lookup(lower); ok {
		return native
	}

	tag, err := language.Parse(strings.ReplaceAll(lower, "_", "-"))
	if err != nil {
		return fallback
	}
	base, _ := tag.Base()
	script, scriptConf := tag.Script()
	region, regionConf := tag.Region()

	candidates := []string{strings.ToLower(tag.String())}
	if scriptConf == language.Exact {
		candidates = append(candidates, base.String()+"-"+strings.ToLower(script.String()))
	}
	if regionConf == language.Exact {
		candidates = append(candidates, base.String()+"-"+strings.ToLower(region.String()))
	}
	candidates = append(candidates, base.String())
	for _, c := range candidates {
		if native, ok := t.lookup(c); ok {
			return native
		}
	}
	return fallback
}
