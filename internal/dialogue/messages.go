package dialogue

import (
	"fmt"
	"strings"

	"brief-agent/internal/domain"
)

// Reply templates, written in the neutral voice. Tone profiles rewrite
// phrases before arguments are substituted.
const (
	msgWelcome           = "Bonjour ! "
	msgCapability        = "Je peux créer pour toi des images, des carrousels et des vidéos pour ta marque. Dis-moi ce que tu veux créer !"
	msgUnavailable       = "La création de %s est temporairement indisponible. Réessaie un peu plus tard."
	msgAskObjective      = "Quel est l'objectif de ta campagne ?"
	msgAskFormat         = "Quel format veux-tu pour ton %s ?"
	msgAskStyle          = "Quel style visuel préfères-tu ?"
	msgAskPrompt         = "Décris ce que tu veux voir, ou laisse-moi te proposer un prompt."
	msgAskSlides         = "Combien de slides veux-tu dans ton carrousel ?"
	msgAskOwnPrompt      = "Parfait, envoie-moi ton prompt dans ton prochain message."
	msgStillMissing      = "Il me manque encore quelques détails : %s. Tu peux me les donner en une seule phrase."
	msgNeedDetail        = "J'ai besoin d'un peu plus de précisions : %s."
	msgRecap             = "Voici ton brief :\n%s\nOn lance la création ?"
	msgModify            = "D'accord, dis-moi ce que tu veux changer."
	msgCancelled         = "C'est noté, on repart de zéro. Dis-moi ce que tu veux créer !"
	msgLaunched          = "C'est parti ! Ta création est lancée (commande %s)."
	msgQueueNote         = " Il y a %d création(s) avant la tienne."
	msgDispatchFailed    = "Oups, le lancement a échoué (%s). Tes réponses sont conservées, tu peux relancer."
	msgNothingInProgress = "Aucune création en cours pour le moment."
	msgStatusDone        = "C'est prêt ! Voici ta création :\n%s"
	msgStatusQueued      = "Ta création est en cours de production. Tu peux suivre son avancement ici : %s"
	msgStatusFailed      = "Impossible de vérifier le statut pour le moment (%s)."
)

// Quick-reply labels. Control flow keys off the ids, never the wording.
var (
	qrLaunch = domain.QuickReply{ID: domain.ChoiceLaunch, Label: "Oui, lancer"}
	qrModify = domain.QuickReply{ID: domain.ChoiceModify, Label: "Modifier"}
	qrStatus = domain.QuickReply{ID: domain.ChoiceStatus, Label: "Statut"}
)

var kindLabels = map[domain.Kind]string{
	domain.KindImage:    "visuel",
	domain.KindCarousel: "carrousel",
	domain.KindVideo:    "vidéo",
}

var slotLabels = map[domain.Slot]string{
	domain.SlotObjective: "objectif",
	domain.SlotFormat:    "format",
	domain.SlotStyle:     "style",
	domain.SlotPrompt:    "prompt",
	domain.SlotSlides:    "nombre de slides",
}

var valueLabels = map[string]string{
	"acquisition": "Acquisition",
	"conversion":  "Conversion",
	"notoriete":   "Notoriété",
	"engagement":  "Engagement",
	"minimal":     "Minimal",
	"bold":        "Bold",
	"elegant":     "Élégant",
	"playful":     "Ludique",
	"corporate":   "Corporate",
	"vintage":     "Vintage",
}

func kindLabel(k domain.Kind) string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return "contenu"
}

func valueLabel(v string) string {
	if l, ok := valueLabels[v]; ok {
		return l
	}
	return v
}

func slotList(slots []domain.Slot) string {
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, slotLabels[s])
	}
	return strings.Join(names, ", ")
}

func slotOption(slot domain.Slot, value string) domain.QuickReply {
	return domain.QuickReply{ID: domain.SlotChoice(slot, value), Label: valueLabel(value)}
}

// formatOptions lists the two ratios offered for each kind.
func formatOptions(k domain.Kind) []string {
	switch k {
	case domain.KindCarousel:
		return []string{"9:16", "1:1"}
	case domain.KindVideo:
		return []string{"9:16", "16:9"}
	default:
		return []string{"1:1", "4:5"}
	}
}

// question returns the template, arguments and quick replies used to ask
// about slot.
func question(slot domain.Slot, k domain.Kind) (string, []any, []domain.QuickReply) {
	switch slot {
	case domain.SlotObjective:
		return msgAskObjective, nil, []domain.QuickReply{
			slotOption(domain.SlotObjective, "acquisition"),
			slotOption(domain.SlotObjective, "conversion"),
		}
	case domain.SlotFormat:
		opts := formatOptions(k)
		return msgAskFormat, []any{kindLabel(k)}, []domain.QuickReply{
			slotOption(domain.SlotFormat, opts[0]),
			slotOption(domain.SlotFormat, opts[1]),
		}
	case domain.SlotStyle:
		return msgAskStyle, nil, []domain.QuickReply{
			slotOption(domain.SlotStyle, "minimal"),
			slotOption(domain.SlotStyle, "bold"),
		}
	case domain.SlotPrompt:
		return msgAskPrompt, nil, []domain.QuickReply{
			{ID: domain.ChoiceSuggestPrompt, Label: "Propose-moi un prompt"},
			{ID: domain.ChoiceOwnPrompt, Label: "J'écris mon prompt"},
		}
	case domain.SlotSlides:
		return msgAskSlides, nil, []domain.QuickReply{
			slotOption(domain.SlotSlides, "5"),
			slotOption(domain.SlotSlides, "8"),
		}
	}
	return msgNeedDetail, []any{slotLabels[slot]}, nil
}

// recap lists the brief for the confirmation message.
func recap(b domain.Brief) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "• Type : %s\n", kindLabel(b.Kind()))
	fmt.Fprintf(&sb, "• Objectif : %s\n", valueLabel(b.Objective()))
	fmt.Fprintf(&sb, "• Format : %s\n", b.Format())
	fmt.Fprintf(&sb, "• Style : %s\n", valueLabel(b.Style()))
	if n, ok := b.Slides(); ok {
		fmt.Fprintf(&sb, "• Slides : %d\n", n)
	}
	if b.TemplateID() != "" {
		fmt.Fprintf(&sb, "• Template : %s\n", b.TemplateID())
	}
	fmt.Fprintf(&sb, "• Prompt : %s", b.Prompt())
	return sb.String()
}
