package dialogue

import "brief-agent/internal/domain"

type suggestionKey struct {
	kind      domain.Kind
	objective string
	format    string
}

// suggestions is looked up most specific first: (kind, objective, format),
// then (kind, objective, any format), then (kind, any, any).
var suggestions = map[suggestionKey]string{
	{domain.KindCarousel, "conversion", "9:16"}: "Carrousel vertical qui présente le produit phare étape par étape, un bénéfice clé par slide, et se termine par une offre claire avec appel à l'action.",
	{domain.KindCarousel, "conversion", ""}:     "Carrousel produit : problème du client, solution, trois bénéfices concrets, témoignage, puis offre avec appel à l'action.",
	{domain.KindCarousel, "acquisition", ""}:    "Carrousel éducatif avec des conseils pratiques liés à la marque, une astuce par slide, et une dernière slide qui invite à suivre le compte.",
	{domain.KindCarousel, "", ""}:               "Carrousel qui raconte l'histoire de la marque en quelques slides, avec un visuel fort et une phrase courte par slide.",
	{domain.KindVideo, "conversion", "9:16"}:    "Vidéo verticale de 15 secondes : accroche en 2 secondes, démonstration du produit en usage réel, offre et appel à l'action final.",
	{domain.KindVideo, "notoriete", "16:9"}:     "Vidéo horizontale d'ambiance qui met en scène l'univers de la marque, rythme posé, logo en fin de séquence.",
	{domain.KindVideo, "", ""}:                  "Vidéo courte et rythmée qui montre le produit sous plusieurs angles avec le logo de la marque en fin de séquence.",
	{domain.KindImage, "conversion", "1:1"}:     "Visuel carré centré sur le produit, fond uni aux couleurs de la marque, prix ou offre mis en avant en gros caractères.",
	{domain.KindImage, "engagement", ""}:        "Visuel qui pose une question à la communauté, avec le produit en situation et un espace clair pour le texte.",
	{domain.KindImage, "", ""}:                  "Visuel lumineux qui met le produit en situation dans un décor du quotidien, avec le logo discret en bas à droite.",
}

const fallbackSuggestion = "Création qui met en valeur le produit principal de la marque dans un décor simple et lumineux."

// SuggestPrompt returns a canned prompt for the brief being built.
func SuggestPrompt(kind domain.Kind, objective, format string) string {
	for _, k := range []suggestionKey{
		{kind, objective, format},
		{kind, objective, ""},
		{kind, "", ""},
	} {
		if s, ok := suggestions[k]; ok {
			return s
		}
	}
	return fallbackSuggestion
}
