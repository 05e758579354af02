package dialogue

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"brief-agent/internal/domain"
)

// minPromptLength is the length a free message must exceed to be taken as
// the prompt without being asked for it.
const minPromptLength = 20

type valueProbe struct {
	value string
	match *regexp.Regexp
}

var objectiveProbes = []valueProbe{
	{"acquisition", regexp.MustCompile(`(?i)(acquisition|acqu[ée]rir|nouveaux clients|\bleads?\b)`)},
	{"conversion", regexp.MustCompile(`(?i)(conversion|convertir|\bventes?\b|\bvendre\b)`)},
	{"notoriete", regexp.MustCompile(`(?i)(notori[ée]t[ée]|awareness|visibilit[ée])`)},
	{"engagement", regexp.MustCompile(`(?i)(engagement|\binteractions?\b|communaut[ée])`)},
}

var formatProbes = []valueProbe{
	{"9:16", regexp.MustCompile(`(?i)(\b9\s*[:/x]\s*16\b|\bvertical\b)`)},
	{"16:9", regexp.MustCompile(`(?i)(\b16\s*[:/x]\s*9\b|\bhorizontal\b|\bpaysage\b)`)},
	{"4:5", regexp.MustCompile(`(?i)(\b4\s*[:/x]\s*5\b|\bportrait\b)`)},
	{"1:1", regexp.MustCompile(`(?i)(\b1\s*[:/x]\s*1\b|\bcarr[ée]e?s?(?:[^\p{L}]|$))`)},
}

var styleProbes = []valueProbe{
	{"minimal", regexp.MustCompile(`(?i)(minimal\w*|[ée]pur[ée])`)},
	{"bold", regexp.MustCompile(`(?i)(\bbold\b|audacieu\w*|percutant\w*)`)},
	{"elegant", regexp.MustCompile(`(?i)([ée]l[ée]gan\w*|\bluxe\b|\bpremium\b)`)},
	{"playful", regexp.MustCompile(`(?i)(ludique|\bfun\b|color[ée]\w*|playful)`)},
	{"corporate", regexp.MustCompile(`(?i)(corporate|institutionnel\w*)`)},
	{"vintage", regexp.MustCompile(`(?i)(vintage|r[ée]tro)`)},
}

var (
	slidesPattern     = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])(-?\d+(?:[.,]\d+)?)\s*(slides?|diapos?|pages?|cartes?)\b`)
	bareNumberPattern = regexp.MustCompile(`^\s*(-?\d+(?:[.,]\d+)?)\s*$`)
	templatePattern   = regexp.MustCompile(`(?i)\btemplate\s*[:#]?\s*([A-Za-z0-9_-]+)`)
	explicitPrompt    = regexp.MustCompile(`(?is)^\s*prompt\s*:\s*(.+)$`)
)

// shortcutLiterals are quick-reply labels that must never become a prompt.
var shortcutLiterals = map[string]struct{}{
	"acquisition":           {},
	"conversion":            {},
	"notoriété":             {},
	"notoriete":             {},
	"engagement":            {},
	"minimal":               {},
	"bold":                  {},
	"élégant":               {},
	"elegant":               {},
	"ludique":               {},
	"corporate":             {},
	"vintage":               {},
	"propose-moi un prompt": {},
	"j'écris mon prompt":    {},
}

func isShortcut(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if _, ok := shortcutLiterals[t]; ok {
		return true
	}
	return bareNumberPattern.MatchString(t)
}

// UpdateDraft merges what the message says into a copy of the session's
// draft. A filled slot keeps its value unless the message answers that
// slot's own pending question or the user is correcting the brief.
func UpdateDraft(in TurnInput, s *domain.Session, intent domain.Intent) domain.Draft {
	d := s.Draft.Clone()
	if kind, ok := intent.Kind(); ok {
		d.Kind = kind
	}
	d.BrandID = s.BrandID
	d.Tone = s.Tone

	correcting := s.Flag(domain.FlagCorrecting)
	overwrite := func(slot domain.Slot) bool {
		return d.Get(slot) == "" || correcting || s.PendingSlot == slot
	}

	if slot, value, ok := parseSlotChoice(in.Choice); ok {
		applySlot(&d, slot, value)
	} else if in.Choice == "" {
		text := in.Text
		if v, ok := probe(objectiveProbes, text); ok && overwrite(domain.SlotObjective) {
			d.Objective = v
		}
		if v, ok := probe(formatProbes, text); ok && overwrite(domain.SlotFormat) {
			d.Format = v
		}
		if v, ok := probe(styleProbes, text); ok && overwrite(domain.SlotStyle) {
			d.Style = v
		}
		if d.Kind == domain.KindCarousel && overwrite(domain.SlotSlides) {
			if n, ok := extractSlides(text, s.PendingSlot == domain.SlotSlides); ok {
				d.SetSlides(n)
			}
		}
		if d.TemplateID == "" || correcting {
			if m := templatePattern.FindStringSubmatch(text); m != nil {
				d.TemplateID = m[1]
			}
		}
		if p, ok := extractPrompt(text, d.Prompt, s); ok {
			d.Prompt = p
		}
	}

	if d.Kind != domain.KindCarousel {
		d.Slides = nil
	}
	return d
}

func probe(probes []valueProbe, text string) (string, bool) {
	for _, p := range probes {
		if p.match.MatchString(text) {
			return p.value, true
		}
	}
	return "", false
}

func extractSlides(text string, bare bool) (float64, bool) {
	raw := ""
	if m := slidesPattern.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if bare {
		if m := bareNumberPattern.FindStringSubmatch(text); m != nil {
			raw = m[1]
		}
	}
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractPrompt(text, current string, s *domain.Session) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if s.Flag(domain.FlagCorrecting) {
		if m := explicitPrompt.FindStringSubmatch(trimmed); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	if current != "" || trimmed == "" || isShortcut(trimmed) {
		return "", false
	}
	// A request for a suggestion or for writing one's own prompt is a
	// command, not a description.
	expected := s.Flag(domain.FlagOwnPromptExpected)
	if suggestPattern.MatchString(trimmed) || (!expected && ownPromptPattern.MatchString(trimmed)) {
		return "", false
	}
	if expected || utf8.RuneCountInString(trimmed) > minPromptLength {
		return trimmed, true
	}
	return "", false
}

// parseSlotChoice splits a "slot:value" quick-reply id.
func parseSlotChoice(c domain.Choice) (domain.Slot, string, bool) {
	slot, value, ok := strings.Cut(string(c), ":")
	if !ok || value == "" {
		return "", "", false
	}
	switch domain.Slot(slot) {
	case domain.SlotObjective, domain.SlotFormat, domain.SlotStyle, domain.SlotSlides:
		return domain.Slot(slot), value, true
	}
	return "", "", false
}

func applySlot(d *domain.Draft, slot domain.Slot, value string) {
	switch slot {
	case domain.SlotObjective:
		if slices.Contains(domain.Objectives, value) {
			d.Objective = value
		}
	case domain.SlotFormat:
		if slices.Contains(domain.Formats, value) {
			d.Format = value
		}
	case domain.SlotStyle:
		if slices.Contains(domain.Styles, value) {
			d.Style = value
		}
	case domain.SlotSlides:
		if d.Kind != domain.KindCarousel {
			return
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			d.SetSlides(n)
		}
	}
}
