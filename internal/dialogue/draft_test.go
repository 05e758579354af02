package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"brief-agent/internal/domain"
)

func newSession() *domain.Session {
	s := domain.NewSession("sess-1", domain.HostStudio, "brand-1", "", time.Now(), time.Hour)
	s.Tone = domain.ToneNeutral
	return s
}

func TestUpdateDraft_ExtractsSlots(t *testing.T) {
	s := newSession()
	d := UpdateDraft(TurnInput{Text: "Un carrousel de 6 slides pour la conversion, en vertical, style épuré"}, s, domain.IntentCreateCarousel)

	require.Equal(t, domain.KindCarousel, d.Kind)
	require.Equal(t, "conversion", d.Objective)
	require.Equal(t, "9:16", d.Format)
	require.Equal(t, "minimal", d.Style)
	require.NotNil(t, d.Slides)
	require.Equal(t, 6, *d.Slides)
	require.Equal(t, "brand-1", d.BrandID)
	require.Equal(t, domain.ToneNeutral, d.Tone)
	require.Equal(t, domain.Draft{}, s.Draft, "session draft must not be mutated")
}

func TestUpdateDraft_KeepsFilledSlots(t *testing.T) {
	s := newSession()
	s.Draft = domain.Draft{Kind: domain.KindImage, Objective: "acquisition", Style: "bold"}
	s.PendingSlot = domain.SlotFormat

	d := UpdateDraft(TurnInput{Text: "carré, pour la conversion, vintage"}, s, domain.IntentCreateImage)
	require.Equal(t, "acquisition", d.Objective)
	require.Equal(t, "bold", d.Style)
	require.Equal(t, "1:1", d.Format)

	s.PendingSlot = domain.SlotObjective
	d = UpdateDraft(TurnInput{Text: "plutôt conversion"}, s, domain.IntentCreateImage)
	require.Equal(t, "conversion", d.Objective)

	s.PendingSlot = domain.SlotNone
	s.SetFlag(domain.FlagCorrecting, true)
	d = UpdateDraft(TurnInput{Text: "finalement vintage"}, s, domain.IntentCreateImage)
	require.Equal(t, "vintage", d.Style)
}

func TestUpdateDraft_SlotChoice(t *testing.T) {
	s := newSession()
	s.Draft = domain.Draft{Kind: domain.KindCarousel, Objective: "acquisition"}

	d := UpdateDraft(TurnInput{Choice: domain.SlotChoice(domain.SlotObjective, "conversion"), Text: "Conversion"}, s, domain.IntentCreateCarousel)
	require.Equal(t, "conversion", d.Objective)

	d = UpdateDraft(TurnInput{Choice: domain.SlotChoice(domain.SlotStyle, "neon"), Text: "Neon"}, s, domain.IntentCreateCarousel)
	require.Empty(t, d.Style)

	d = UpdateDraft(TurnInput{Choice: domain.SlotChoice(domain.SlotSlides, "99"), Text: "99"}, s, domain.IntentCreateCarousel)
	require.Equal(t, domain.MaxSlides, *d.Slides)

	// a choice never feeds the free-text probes
	d = UpdateDraft(TurnInput{Choice: domain.ChoiceLaunch, Text: "Un visuel très élégant pour la conversion"}, s, domain.IntentCreateCarousel)
	require.Empty(t, d.Style)
	require.Empty(t, d.Prompt)
}

func TestUpdateDraft_Prompt(t *testing.T) {
	s := newSession()
	s.Draft = domain.Draft{Kind: domain.KindImage}

	d := UpdateDraft(TurnInput{Text: "Conversion"}, s, domain.IntentCreateImage)
	require.Empty(t, d.Prompt)

	d = UpdateDraft(TurnInput{Text: "une tasse"}, s, domain.IntentCreateImage)
	require.Empty(t, d.Prompt)

	s.SetFlag(domain.FlagOwnPromptExpected, true)
	d = UpdateDraft(TurnInput{Text: "une tasse"}, s, domain.IntentCreateImage)
	require.Equal(t, "une tasse", d.Prompt)

	d = UpdateDraft(TurnInput{Text: "12"}, s, domain.IntentCreateImage)
	require.Empty(t, d.Prompt)

	s.SetFlag(domain.FlagOwnPromptExpected, false)
	s.Draft.Prompt = "Une tasse fumante sur une table en bois"
	d = UpdateDraft(TurnInput{Text: "Un autre texte assez long pour passer le seuil"}, s, domain.IntentCreateImage)
	require.Equal(t, "Une tasse fumante sur une table en bois", d.Prompt)

	s.SetFlag(domain.FlagCorrecting, true)
	d = UpdateDraft(TurnInput{Text: "Prompt : un mug en céramique"}, s, domain.IntentCreateImage)
	require.Equal(t, "un mug en céramique", d.Prompt)
}

func TestUpdateDraft_PromptCommandsNotAdopted(t *testing.T) {
	s := newSession()
	s.Draft = domain.Draft{Kind: domain.KindCarousel}

	for _, text := range []string{
		"Je veux un carrousel, suggère-moi un prompt",
		"Je préfère écrire mon prompt moi-même",
		"Je veux une vidéo et j'écris mon propre prompt ensuite",
	} {
		d := UpdateDraft(TurnInput{Text: text}, s, domain.IntentCreateCarousel)
		require.Empty(t, d.Prompt, text)
	}

	s.SetFlag(domain.FlagOwnPromptExpected, true)
	d := UpdateDraft(TurnInput{Text: "Voici mon prompt : un chat roux sur un canapé"}, s, domain.IntentCreateCarousel)
	require.Equal(t, "Voici mon prompt : un chat roux sur un canapé", d.Prompt)

	d = UpdateDraft(TurnInput{Text: "finalement propose-moi un prompt"}, s, domain.IntentCreateCarousel)
	require.Empty(t, d.Prompt)
}

func TestUpdateDraft_Slides(t *testing.T) {
	s := newSession()
	s.Draft = domain.Draft{Kind: domain.KindCarousel}

	d := UpdateDraft(TurnInput{Text: "7"}, s, domain.IntentCreateCarousel)
	require.Nil(t, d.Slides, "bare number only counts when slides were asked")

	s.PendingSlot = domain.SlotSlides
	d = UpdateDraft(TurnInput{Text: "7,5"}, s, domain.IntentCreateCarousel)
	require.Equal(t, 8, *d.Slides)

	d = UpdateDraft(TurnInput{Text: "-3"}, s, domain.IntentCreateCarousel)
	require.Equal(t, domain.MinSlides, *d.Slides)

	d = UpdateDraft(TurnInput{Text: "entre 3-6 slides"}, s, domain.IntentCreateCarousel)
	require.Equal(t, 6, *d.Slides)

	d = UpdateDraft(TurnInput{Text: "3 diapos"}, s, domain.IntentCreateImage)
	require.Equal(t, domain.KindImage, d.Kind)
	require.Nil(t, d.Slides)
}

func TestUpdateDraft_Template(t *testing.T) {
	s := newSession()
	s.Draft = domain.Draft{Kind: domain.KindImage}

	d := UpdateDraft(TurnInput{Text: "avec le template: promo-ete_2"}, s, domain.IntentCreateImage)
	require.Equal(t, "promo-ete_2", d.TemplateID)

	s.Draft.TemplateID = "promo-ete_2"
	d = UpdateDraft(TurnInput{Text: "template #autre"}, s, domain.IntentCreateImage)
	require.Equal(t, "promo-ete_2", d.TemplateID)
}

func TestSuggestPrompt(t *testing.T) {
	require.Equal(t, suggestions[suggestionKey{domain.KindCarousel, "conversion", "9:16"}], SuggestPrompt(domain.KindCarousel, "conversion", "9:16"))
	require.Equal(t, suggestions[suggestionKey{domain.KindCarousel, "conversion", ""}], SuggestPrompt(domain.KindCarousel, "conversion", "1:1"))
	require.Equal(t, suggestions[suggestionKey{domain.KindImage, "", ""}], SuggestPrompt(domain.KindImage, "notoriete", "4:5"))
	require.Equal(t, fallbackSuggestion, SuggestPrompt("", "", ""))
}
