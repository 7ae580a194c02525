package rounddomain

import "strings"

// ActionKind identifies what a spoken command asks for.
type ActionKind string

const (
	ActionAddStroke       ActionKind = "add_stroke"
	ActionFinishHole      ActionKind = "finish_hole"
	ActionUndo            ActionKind = "undo"
	ActionFreeformMessage ActionKind = "freeform_message"
)

// Action is the result of classifying a transcript. Text is set only for
// freeform messages.
type Action struct {
	Kind ActionKind `json:"kind"`
	Text string     `json:"text,omitempty"`
}

// IsEngineAction reports whether the action mutates the round.
func (a Action) IsEngineAction() bool {
	return a.Kind != ActionFreeformMessage
}

// voiceKeywords is evaluated in order; the first kind with a matching keyword wins.
// Only English and French command words are recognised.
var voiceKeywords = []struct {
	kind     ActionKind
	keywords []string
}{
	{ActionAddStroke, []string{"play", "jouer", "coup"}},
	{ActionFinishHole, []string{"finish", "fini", "terminer"}},
	{ActionUndo, []string{"undo", "annuler", "retour"}},
}

// Classify maps a transcript to an action by case-insensitive keyword match.
func Classify(transcript string) Action {
	text := strings.TrimSpace(transcript)
	lower := strings.ToLower(text)
	for _, entry := range voiceKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return Action{Kind: entry.kind}
			}
		}
	}
	return Action{Kind: ActionFreeformMessage, Text: text}
}

// ParseActionHint maps the transcription service's action vocabulary onto
// ActionKind. Unknown hints return false.
func ParseActionHint(hint string) (ActionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "add_stroke", "stroke", "play":
		return ActionAddStroke, true
	case "finish_hole", "finish", "next_hole":
		return ActionFinishHole, true
	case "undo", "undo_stroke":
		return ActionUndo, true
	case "message", "freeform", "question":
		return ActionFreeformMessage, true
	}
	return "", false
}
