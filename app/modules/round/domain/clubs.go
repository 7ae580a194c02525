package rounddomain

import "sort"

// ClubAverage is the distance profile of a single club.
type ClubAverage struct {
	Club            string  `json:"club"`
	Strokes         int     `json:"strokes"`
	MeasuredStrokes int     `json:"measured_strokes"`
	AverageDistance float64 `json:"average_distance"`
}

// ClubAverages groups strokes with a club label and averages the ones that
// carry a distance. Results are sorted by club name.
func ClubAverages(strokes []Stroke) []ClubAverage {
	type acc struct {
		count, measured int
		total           float64
	}
	byClub := make(map[string]*acc)
	for _, s := range strokes {
		if s.Club == nil || *s.Club == "" {
			continue
		}
		a, ok := byClub[*s.Club]
		if !ok {
			a = &acc{}
			byClub[*s.Club] = a
		}
		a.count++
		if s.Distance != nil {
			a.measured++
			a.total += *s.Distance
		}
	}

	out := make([]ClubAverage, 0, len(byClub))
	for club, a := range byClub {
		avg := ClubAverage{Club: club, Strokes: a.count, MeasuredStrokes: a.measured}
		if a.measured > 0 {
			avg.AverageDistance = a.total / float64(a.measured)
		}
		out = append(out, avg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Club < out[j].Club })
	return out
}
