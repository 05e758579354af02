package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// BriefVersion tags the payload contract shared with the job queue.
const BriefVersion = "brief.v1"

const (
	MinSlides       = 1
	MaxSlides       = 30
	maxPromptLength = 2000
)

// Kind is the type of asset a brief asks for.
type Kind string

const (
	KindImage    Kind = "image"
	KindCarousel Kind = "carousel"
	KindVideo    Kind = "video"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindImage || k == KindCarousel || k == KindVideo
}

// Slot names a draft field the assistant asks the user about.
type Slot string

const (
	SlotNone      Slot = ""
	SlotObjective Slot = "objective"
	SlotFormat    Slot = "format"
	SlotStyle     Slot = "style"
	SlotPrompt    Slot = "prompt"
	SlotSlides    Slot = "slides"
)

// Accepted slot values.
var (
	Objectives = []string{"acquisition", "conversion", "notoriete", "engagement"}
	Formats    = []string{"1:1", "4:5", "9:16", "16:9"}
	Styles     = []string{"minimal", "bold", "elegant", "playful", "corporate", "vintage"}
)

var templateIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NormalizeSlides rounds v half up and clamps it to [MinSlides, MaxSlides].
func NormalizeSlides(v float64) int {
	if math.IsNaN(v) {
		return MinSlides
	}
	n := math.Floor(v + 0.5)
	if n < MinSlides {
		return MinSlides
	}
	if n > MaxSlides {
		return MaxSlides
	}
	return int(n)
}

// Draft is a partially filled brief accumulated across turns. Empty strings
// and a nil Slides mean "not answered yet".
type Draft struct {
	Kind       Kind        `json:"kind,omitempty"`
	Objective  string      `json:"objective,omitempty"`
	Format     string      `json:"format,omitempty"`
	Style      string      `json:"style,omitempty"`
	Prompt     string      `json:"prompt,omitempty"`
	Slides     *int        `json:"slides,omitempty"`
	TemplateID string      `json:"templateId,omitempty"`
	Tone       ToneProfile `json:"tone,omitempty"`
	BrandID    string      `json:"brandId,omitempty"`
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	out := d
	if d.Slides != nil {
		n := *d.Slides
		out.Slides = &n
	}
	return out
}

// SetSlides stores a normalized slide count.
func (d *Draft) SetSlides(v float64) {
	n := NormalizeSlides(v)
	d.Slides = &n
}

// Get returns the current value of a slot as text.
func (d Draft) Get(slot Slot) string {
	switch slot {
	case SlotObjective:
		return d.Objective
	case SlotFormat:
		return d.Format
	case SlotStyle:
		return d.Style
	case SlotPrompt:
		return d.Prompt
	case SlotSlides:
		if d.Slides == nil {
			return ""
		}
		return fmt.Sprintf("%d", *d.Slides)
	}
	return ""
}

// Missing lists unanswered slots in asking order: objective, format, style,
// prompt, then slides for carousels.
func (d Draft) Missing() []Slot {
	var out []Slot
	if d.Objective == "" {
		out = append(out, SlotObjective)
	}
	if d.Format == "" {
		out = append(out, SlotFormat)
	}
	if d.Style == "" {
		out = append(out, SlotStyle)
	}
	if strings.TrimSpace(d.Prompt) == "" {
		out = append(out, SlotPrompt)
	}
	if d.Kind == KindCarousel && d.Slides == nil {
		out = append(out, SlotSlides)
	}
	return out
}

// UnmarshalJSON decodes a draft and rejects unknown fields.
func (d *Draft) UnmarshalJSON(data []byte) error {
	type plain Draft
	var out plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return fmt.Errorf("domain: decode draft: %w", err)
	}
	*d = Draft(out)
	return nil
}

// FieldError describes one invalid brief field.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError is returned when a draft cannot become a Brief.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "domain: invalid brief"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "domain: invalid brief: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Finalize schema-checks the draft and returns the immutable Brief.
func (d Draft) Finalize() (Brief, error) {
	verr := &ValidationError{}
	if !d.Kind.Valid() {
		verr.add("kind", "unknown kind")
	}
	if !slices.Contains(Objectives, d.Objective) {
		verr.add("objective", "unsupported value")
	}
	if !slices.Contains(Formats, d.Format) {
		verr.add("format", "unsupported ratio")
	}
	if !slices.Contains(Styles, d.Style) {
		verr.add("style", "unsupported value")
	}
	prompt := strings.TrimSpace(d.Prompt)
	switch {
	case prompt == "":
		verr.add("prompt", "required")
	case utf8.RuneCountInString(prompt) > maxPromptLength:
		verr.add("prompt", "too long")
	}
	var slides *int
	if d.Kind == KindCarousel {
		if d.Slides == nil {
			verr.add("slides", "required for carousel")
		} else if *d.Slides < MinSlides || *d.Slides > MaxSlides {
			verr.add("slides", "out of range")
		} else {
			n := *d.Slides
			slides = &n
		}
	}
	if d.TemplateID != "" && !templateIDPattern.MatchString(d.TemplateID) {
		verr.add("templateId", "malformed")
	}
	if strings.TrimSpace(d.BrandID) == "" {
		verr.add("brandId", "required")
	}
	if len(verr.Fields) > 0 {
		return Brief{}, verr
	}
	tone := d.Tone
	if tone == "" {
		tone = ToneNeutral
	}
	return Brief{
		kind:       d.Kind,
		objective:  d.Objective,
		format:     d.Format,
		style:      d.Style,
		prompt:     prompt,
		slides:     slides,
		templateID: d.TemplateID,
		tone:       tone,
		brandID:    d.BrandID,
	}, nil
}

// Brief is the finalized, validated creative request for one job.
// The zero value is not a valid brief; obtain one from Draft.Finalize.
type Brief struct {
	kind       Kind
	objective  string
	format     string
	style      string
	prompt     string
	slides     *int
	templateID string
	tone       ToneProfile
	brandID    string
}

func (b Brief) Kind() Kind         { return b.kind }
func (b Brief) Objective() string  { return b.objective }
func (b Brief) Format() string     { return b.format }
func (b Brief) Style() string      { return b.style }
func (b Brief) Prompt() string     { return b.prompt }
func (b Brief) TemplateID() string { return b.templateID }
func (b Brief) Tone() ToneProfile  { return b.tone }
func (b Brief) BrandID() string    { return b.brandID }

// IsZero reports whether b was not produced by Finalize.
func (b Brief) IsZero() bool { return b.kind == "" }

// Slides returns the slide count for carousels.
func (b Brief) Slides() (int, bool) {
	if b.slides == nil {
		return 0, false
	}
	return *b.slides, true
}

// Draft returns a draft holding the brief's values.
func (b Brief) Draft() Draft {
	d := Draft{
		Kind:       b.kind,
		Objective:  b.objective,
		Format:     b.format,
		Style:      b.style,
		Prompt:     b.prompt,
		TemplateID: b.templateID,
		Tone:       b.tone,
		BrandID:    b.brandID,
	}
	if b.slides != nil {
		n := *b.slides
		d.Slides = &n
	}
	return d
}

// briefPayload is the wire shape of brief.v1.
type briefPayload struct {
	Version    string      `json:"version"`
	Kind       Kind        `json:"kind"`
	Objective  string      `json:"objective"`
	Format     string      `json:"format"`
	Style      string      `json:"style"`
	Prompt     string      `json:"prompt"`
	Slides     *int        `json:"slides"`
	TemplateID string      `json:"templateId,omitempty"`
	Tone       ToneProfile `json:"tone"`
	BrandID    string      `json:"brandId"`
}

// MarshalJSON encodes the brief.v1 payload.
func (b Brief) MarshalJSON() ([]byte, error) {
	if b.IsZero() {
		return nil, errors.New("domain: cannot encode empty brief")
	}
	return json.Marshal(briefPayload{
		Version:    BriefVersion,
		Kind:       b.kind,
		Objective:  b.objective,
		Format:     b.format,
		Style:      b.style,
		Prompt:     b.prompt,
		Slides:     b.slides,
		TemplateID: b.templateID,
		Tone:       b.tone,
		BrandID:    b.brandID,
	})
}

// UnmarshalJSON decodes a brief.v1 payload and re-validates it.
func (b *Brief) UnmarshalJSON(data []byte) error {
	var p briefPayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("domain: decode brief: %w", err)
	}
	if p.Version != BriefVersion {
		return fmt.Errorf("domain: unsupported brief version %q", p.Version)
	}
	out, err := Draft{
		Kind:       p.Kind,
		Objective:  p.Objective,
		Format:     p.Format,
		Style:      p.Style,
		Prompt:     p.Prompt,
		Slides:     p.Slides,
		TemplateID: p.TemplateID,
		Tone:       p.Tone,
		BrandID:    p.BrandID,
	}.Finalize()
	if err != nil {
		return err
	}
	*b = out
	return nil
}
