// Package country maps country display names to the short codes used in FTA
// annotations of the tariff reference table.
package country

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var defaultTable []byte

type file struct {
	Countries map[string]string `yaml:"countries"`
}

// Resolver looks up country codes. It is read-only after construction.
type Resolver struct {
	codes map[string]string
}

// NewResolver builds a Resolver from the embedded table, merged with the
// names in overridesPath when it is non-empty.
func NewResolver(overridesPath string) (*Resolver, error) {
	codes, err := parse(defaultTable)
	if err != nil {
		return nil, eris.Wrap(err, "country: embedded table")
	}

	if overridesPath != "" {
		data, err := os.ReadFile(overridesPath)
		if err != nil {
			return nil, eris.Wrapf(err, "country: read overrides %s", overridesPath)
		}
		extra, err := parse(data)
		if err != nil {
			return nil, eris.Wrapf(err, "country: overrides %s", overridesPath)
		}
		for name, code := range extra {
			codes[name] = code
		}
	}

	return &Resolver{codes: codes}, nil
}

// Default returns a Resolver over the embedded table only.
func Default() *Resolver {
	r, err := NewResolver("")
	if err != nil {
		panic(err)
	}
	return r
}

func parse(data []byte) (map[string]string, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "parse yaml")
	}
	codes := make(map[string]string, len(f.Countries))
	for name, code := range f.Countries {
		if name == "" || code == "" {
			return nil, eris.Errorf("empty name or code in entry %q: %q", name, code)
		}
		codes[name] = code
	}
	return codes, nil
}

// Resolve returns the code for the exact display name, or "" when unknown.
// The empty code never appears in an FTA country list, so unknown countries
// are never FTA eligible.
func (r *Resolver) Resolve(name string) string {
	return r.codes[name]
}

// Codes returns the distinct codes in sorted order.
func (r *Resolver) Codes() []string {
	seen := make(map[string]bool, len(r.codes))
	out := make([]string, 0, len(r.codes))
	for _, code := range r.codes {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
