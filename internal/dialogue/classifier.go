package dialogue

import (
	"regexp"
	"strings"

	"brief-agent/internal/domain"
)

// intentRule pairs a probe with the intent it yields.
type intentRule struct {
	intent domain.Intent
	match  *regexp.Regexp
}

// intentRules is evaluated top to bottom and the first match wins.
// Carousel must precede video and image: "carrousel vidéo" is a carousel.
var intentRules = []intentRule{
	{domain.IntentCreateCarousel, regexp.MustCompile(`(?i)\b(carrousel|carousel|slides?|diapos?|diaporama)\b`)},
	{domain.IntentCreateVideo, regexp.MustCompile(`(?i)(vid[ée]o|\breels?\b|\bclips?\b|\bstory\b|\bstories\b)`)},
	{domain.IntentCreateImage, regexp.MustCompile(`(?i)\b(images?|visuels?|photos?|affiches?|banni[èe]res?|posts?|illustrations?)\b`)},
	{domain.IntentQuestion, regexp.MustCompile(`(?i)(\?\s*$|^\s*(comment|pourquoi|quoi|quel(le)?s?|combien|est-ce|qu'est|peux-tu|pouvez-vous|c'est quoi|how|what|why|can you)\b)`)},
}

// Classify maps free text to a coarse intent. When no probe matches, the
// remembered intent is reused, then smalltalk.
func Classify(text string, remembered domain.Intent) domain.Intent {
	text = strings.TrimSpace(text)
	for _, r := range intentRules {
		if r.match.MatchString(text) {
			return r.intent
		}
	}
	if remembered != domain.IntentNone {
		return remembered
	}
	return domain.IntentSmalltalk
}

// Control phrases recognised outside of slot filling.
var (
	statusPattern    = regexp.MustCompile(`(?i)(\bstatut\b|\bstatus\b|o[uù] en est|c'est pr[eê]t)`)
	progressPattern  = regexp.MustCompile(`(?i)(\bsuivi\b|\bavancement\b)`)
	affirmPattern    = regexp.MustCompile(`(?i)^\s*(oui|yes|ok|okay|go|lance|lancer|valide|valider|confirme|confirmer|c'est parti)\b`)
	modifyPattern    = regexp.MustCompile(`(?i)\b(modifi\w*|changer|change|corrige\w*|non)\b`)
	cancelPattern    = regexp.MustCompile(`(?i)^\s*(annule\w*|recommence\w*|reset|stop)\b`)
	suggestPattern   = regexp.MustCompile(`(?i)(propose[- ]moi|sugg[eè]re|sugg[eè]rez|inspire[- ]moi|un prompt pour moi)`)
	ownPromptPattern = regexp.MustCompile(`(?i)(j'[ée]cris|l'[ée]crire|mon propre prompt|mon prompt|je donne)`)
)

// maxProgressWords bounds the messages where "suivi" or "avancement" alone
// reads as a status question rather than part of a description.
const maxProgressWords = 4

func isStatusQuery(in TurnInput) bool {
	if in.Choice == domain.ChoiceStatus || statusPattern.MatchString(in.Text) {
		return true
	}
	if !progressPattern.MatchString(in.Text) {
		return false
	}
	text := strings.TrimSpace(in.Text)
	return strings.HasSuffix(text, "?") || len(strings.Fields(text)) <= maxProgressWords
}

func isAffirmation(in TurnInput) bool {
	return in.Choice == domain.ChoiceLaunch || (in.Choice == "" && affirmPattern.MatchString(in.Text))
}

func isModify(in TurnInput) bool {
	return in.Choice == domain.ChoiceModify || (in.Choice == "" && modifyPattern.MatchString(in.Text))
}

func isCancel(in TurnInput) bool {
	return in.Choice == domain.ChoiceCancel || (in.Choice == "" && cancelPattern.MatchString(in.Text))
}

func wantsSuggestion(in TurnInput) bool {
	return in.Choice == domain.ChoiceSuggestPrompt || (in.Choice == "" && suggestPattern.MatchString(in.Text))
}

func wantsOwnPrompt(in TurnInput) bool {
	return in.Choice == domain.ChoiceOwnPrompt || (in.Choice == "" && ownPromptPattern.MatchString(in.Text))
}
