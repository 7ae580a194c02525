package rounddomain

// HoleRow is one line of a scorecard.
type HoleRow struct {
	LocalHole   int           `json:"local_hole"`
	CourseHole  int           `json:"course_hole"`
	Par         int           `json:"par,omitempty"`
	StrokeIndex int           `json:"stroke_index,omitempty"`
	Strokes     int           `json:"strokes"`
	Diff        *int          `json:"diff,omitempty"`
	Category    ScoreCategory `json:"category,omitempty"`
	Current     bool          `json:"current"`
}

// Subtotal sums a nine.
type Subtotal struct {
	Strokes int `json:"strokes"`
	Par     int `json:"par"`
}

// Scorecard is the per-hole view of a round.
type Scorecard struct {
	RoundID        string    `json:"round_id"`
	CourseName     string    `json:"course_name"`
	Selection      string    `json:"selection"`
	TeeColor       string    `json:"tee_color"`
	Status         string    `json:"status"`
	Rows           []HoleRow `json:"rows"`
	Out            *Subtotal `json:"out,omitempty"`
	In             *Subtotal `json:"in,omitempty"`
	AveragePerHole float64   `json:"average_per_hole"`
	Summary        Summary   `json:"summary"`
}

// BuildScorecard lays out every hole of the selection. Out and In are only
// populated for full eighteen rounds.
func BuildScorecard(round Round, course Course, strokes []Stroke) Scorecard {
	pars := course.ParsFor(round.Selection)
	indexes := course.StrokeIndexesFor(round.Selection)
	perHole := StrokesPerHole(strokes)

	card := Scorecard{
		RoundID:    round.ID.String(),
		CourseName: course.Name,
		Selection:  string(round.Selection),
		TeeColor:   round.TeeColor,
		Status:     string(round.Status),
		Summary:    Summarize(strokes, pars),
	}

	var out, in Subtotal
	played, total := 0, 0
	for local := 1; local <= round.Selection.HoleCount(); local++ {
		row := HoleRow{
			LocalHole:  local,
			CourseHole: round.Selection.CourseHole(local),
			Strokes:    perHole[local],
			Current:    round.IsActive() && local == round.CurrentHole,
		}
		if local <= len(pars) {
			row.Par = pars[local-1]
		}
		if local <= len(indexes) {
			row.StrokeIndex = indexes[local-1]
		}
		if row.Strokes > 0 {
			played++
			total += row.Strokes
			if row.Par > 0 {
				diff := row.Strokes - row.Par
				row.Diff = &diff
				row.Category = Categorize(diff)
			}
		}
		if local <= 9 {
			out.Strokes += row.Strokes
			out.Par += row.Par
		} else {
			in.Strokes += row.Strokes
			in.Par += row.Par
		}
		card.Rows = append(card.Rows, row)
	}

	if round.Selection == SelectionFull {
		card.Out = &out
		card.In = &in
	}
	if played > 0 {
		card.AveragePerHole = float64(total) / float64(played)
	}
	return card
}
