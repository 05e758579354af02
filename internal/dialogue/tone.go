package dialogue

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"brief-agent/internal/domain"
)

//go:embed tones.yaml
var defaultTonesYAML []byte

type toneRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type toneFile struct {
	Profiles map[domain.ToneProfile][]toneRule `yaml:"profiles"`
}

// ToneRenderer applies a tone profile's phrase rewrites to templates.
// It is safe for concurrent use once built.
type ToneRenderer struct {
	replacers map[domain.ToneProfile]*strings.Replacer
}

// NewToneRenderer parses a YAML profile document.
func NewToneRenderer(data []byte) (*ToneRenderer, error) {
	var f toneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dialogue: parse tone profiles: %w", err)
	}
	r := &ToneRenderer{replacers: make(map[domain.ToneProfile]*strings.Replacer, len(f.Profiles))}
	for name, rules := range f.Profiles {
		if len(rules) == 0 {
			continue
		}
		pairs := make([]string, 0, 2*len(rules))
		for _, rule := range rules {
			if rule.From == "" {
				return nil, fmt.Errorf("dialogue: tone %q has a rule with empty 'from'", name)
			}
			pairs = append(pairs, rule.From, rule.To)
		}
		r.replacers[name] = strings.NewReplacer(pairs...)
	}
	return r, nil
}

// DefaultToneRenderer returns the renderer built from the embedded profiles.
func DefaultToneRenderer() *ToneRenderer {
	r, err := NewToneRenderer(defaultTonesYAML)
	if err != nil {
		panic(err)
	}
	return r
}

// Render rewrites template for the given tone. Unknown tones and a nil
// renderer pass the template through unchanged.
func (r *ToneRenderer) Render(template string, tone domain.ToneProfile) string {
	if r == nil {
		return template
	}
	rep, ok := r.replacers[tone]
	if !ok {
		return template
	}
	return rep.Replace(template)
}
