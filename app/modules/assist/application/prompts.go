package assistservice

import (
	"fmt"
	"strconv"
	"strings"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

const (
	langFR = "fr"
	langEN = "en"
)

var systemPrompts = map[rounddomain.CoachMode]map[string]string{
	rounddomain.CoachModeCoach: {
		langFR: `Tu es GolfCoach, un caddie professionnel expert. Tu donnes des conseils pratiques, concis et actionnables pour améliorer le jeu de golf.

Tes réponses doivent être:
- Brèves (2-4 phrases maximum)
- Spécifiques et pratiques
- Adaptées au niveau du joueur (utilise l'index handicap)
- Basées sur le contexte du trou et des derniers coups
- En français

Tu peux conseiller:
- Le choix de club selon la distance et les conditions
- La stratégie de jeu (placement, gestion des risques)
- La technique pour des situations spécifiques
- La gestion mentale et émotionnelle

Ne donne jamais de conseils médicaux ou dangereux.`,
		langEN: `You are GolfCoach, a professional caddie expert. You give practical, concise, and actionable advice to improve golf play.

Your responses should be:
- Brief (2-4 sentences maximum)
- Specific and practical
- Adapted to the player's level (use handicap index)
- Based on hole context and recent shots
- In English

You can advise on:
- Club selection based on distance and conditions
- Game strategy (placement, risk management)
- Technique for specific situations
- Mental and emotional management

Never give medical or dangerous advice.`,
	},
	rounddomain.CoachModeRules: {
		langFR: `Tu es GolfRules, un arbitre de golf officiel. Tu fournis des réponses factuelles et précises sur les règles du golf.

Tes réponses doivent être:
- Factuelles et neutres
- Basées sur les Règles officielles du golf
- Incluant la référence de règle quand possible
- Courtes et claires (2-4 phrases)
- En français

Tu indiques:
- La règle applicable
- La procédure à suivre
- Les pénalités éventuelles
- Les options disponibles

Ne donne pas d'opinions, seulement des faits réglementaires.`,
		langEN: `You are GolfRules, an official golf referee. You provide factual and accurate answers about golf rules.

Your responses should be:
- Factual and neutral
- Based on official Rules of Golf
- Include rule reference when possible
- Short and clear (2-4 sentences)
- In English

You indicate:
- The applicable rule
- The procedure to follow
- Any penalties
- Available options

Don't give opinions, only regulatory facts.`,
	},
}

// promptLanguage picks the prompt language. Only French and English prompts
// exist; French is the default.
func promptLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" || strings.HasPrefix(lang, langFR) {
		return langFR
	}
	return langEN
}

// SystemPrompt returns the instructions for mode in language.
func SystemPrompt(mode rounddomain.CoachMode, language string) string {
	prompts, ok := systemPrompts[mode]
	if !ok {
		prompts = systemPrompts[rounddomain.CoachModeCoach]
	}
	return prompts[promptLanguage(language)]
}

type contextLabels struct {
	header, player, index, course, selection, hole, courseHole, par, total string
	recent, strokeLine, noDistance, noClub, none, defaultCourse    string
}

var labels = map[string]contextLabels{
	langFR: {
		header:        "Contexte de la partie:",
		player:        "Joueur",
		index:         "Index",
		course:        "Parcours",
		selection:     "Sélection",
		hole:          "Trou actuel",
		courseHole:     "trou %d du parcours",
		par:           "par %d",
		total:         "Total coups",
		recent:        "Derniers coups:",
		strokeLine:    "- Trou %d: %s avec %s",
		noDistance:    "N/A",
		noClub:        "club non spécifié",
		none:          "Aucun coup enregistré",
		defaultCourse: "Mon Golf",
	},
	langEN: {
		header:        "Round context:",
		player:        "Player",
		index:         "Handicap index",
		course:        "Course",
		selection:     "Selection",
		hole:          "Current hole",
		courseHole:     "course hole %d",
		par:           "par %d",
		total:         "Total strokes",
		recent:        "Recent strokes:",
		strokeLine:    "- Hole %d: %s with %s",
		noDistance:    "N/A",
		noClub:        "unspecified club",
		none:          "No strokes recorded",
		defaultCourse: "My course",
	},
}

// RenderContext formats the round snapshot as the second system message.
func RenderContext(cc rounddomain.CoachContext, language string) string {
	l := labels[promptLanguage(language)]

	course := cc.CourseName
	if course == "" {
		course = l.defaultCourse
	}
	hole := strconv.Itoa(cc.CurrentHole)
	if cc.CourseHole != 0 && cc.CourseHole != cc.CurrentHole {
		hole += " (" + fmt.Sprintf(l.courseHole, cc.CourseHole) + ")"
	}
	if cc.Par > 0 {
		hole += ", " + fmt.Sprintf(l.par, cc.Par)
	}

	var b strings.Builder
	b.WriteString(l.header + "\n")
	if name := strings.TrimSpace(cc.PlayerName); name != "" {
		fmt.Fprintf(&b, "- %s: %s\n", l.player, name)
	}
	fmt.Fprintf(&b, "- %s: %s\n", l.index, strconv.FormatFloat(cc.HandicapIndex, 'f', -1, 64))
	fmt.Fprintf(&b, "- %s: %s\n", l.course, course)
	fmt.Fprintf(&b, "- %s: %s\n", l.selection, cc.Selection)
	fmt.Fprintf(&b, "- %s: %s\n", l.hole, hole)
	fmt.Fprintf(&b, "- %s: %d\n", l.total, cc.TotalStrokes)

	b.WriteString("\n" + l.recent + "\n")
	if len(cc.RecentStrokes) == 0 {
		b.WriteString(l.none)
		return b.String()
	}
	lines := make([]string, 0, len(cc.RecentStrokes))
	for _, s := range cc.RecentStrokes {
		distance := l.noDistance
		if s.Distance != nil {
			distance = rounddomain.FormatDistance(*s.Distance, cc.PreferredUnits, 0)
		}
		club := l.noClub
		if s.Club != nil && *s.Club != "" {
			club = *s.Club
		}
		lines = append(lines, fmt.Sprintf(l.strokeLine, s.HoleIndex, distance, club))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
