package rounddomain

import "sort"

// ScoreCategory classifies a hole result against par.
type ScoreCategory string

const (
	CategoryEagleOrBetter ScoreCategory = "eagle_or_better"
	CategoryBirdie        ScoreCategory = "birdie"
	CategoryPar           ScoreCategory = "par"
	CategoryBogey         ScoreCategory = "bogey"
	CategoryDoubleBogey   ScoreCategory = "double_bogey"
	CategoryTripleOrWorse ScoreCategory = "triple_or_worse"
)

// CategoryCounts tallies played holes per category.
type CategoryCounts struct {
	EagleOrBetter int `json:"eagle_or_better"`
	Birdie        int `json:"birdie"`
	Par           int `json:"par"`
	Bogey         int `json:"bogey"`
	DoubleBogey   int `json:"double_bogey"`
	TripleOrWorse int `json:"triple_or_worse"`
}

func (c *CategoryCounts) add(cat ScoreCategory) {
	switch cat {
	case CategoryEagleOrBetter:
		c.EagleOrBetter++
	case CategoryBirdie:
		c.Birdie++
	case CategoryPar:
		c.Par++
	case CategoryBogey:
		c.Bogey++
	case CategoryDoubleBogey:
		c.DoubleBogey++
	case CategoryTripleOrWorse:
		c.TripleOrWorse++
	}
}

// Summary aggregates a round's strokes against par.
type Summary struct {
	TotalStrokes   int            `json:"total_strokes"`
	ParForPlayed   int            `json:"par_for_played"`
	HolesPlayed    int            `json:"holes_played"`
	VsPar          int            `json:"vs_par"`
	UnratedStrokes int            `json:"unrated_strokes"`
	Counts         CategoryCounts `json:"counts"`
}

// Categorize maps strokes minus par onto a category.
func Categorize(diff int) ScoreCategory {
	switch {
	case diff <= -2:
		return CategoryEagleOrBetter
	case diff == -1:
		return CategoryBirdie
	case diff == 0:
		return CategoryPar
	case diff == 1:
		return CategoryBogey
	case diff == 2:
		return CategoryDoubleBogey
	default:
		return CategoryTripleOrWorse
	}
}

// StrokesPerHole groups strokes by local hole index.
func StrokesPerHole(strokes []Stroke) map[int]int {
	counts := make(map[int]int)
	for _, s := range strokes {
		counts[s.HoleIndex]++
	}
	return counts
}

// Summarize computes round statistics. pars[i] is the par of local hole i+1.
// Only holes with at least one stroke contribute par. Strokes on holes with no
// par entry count toward TotalStrokes and UnratedStrokes but are not classified.
func Summarize(strokes []Stroke, pars []int) Summary {
	perHole := StrokesPerHole(strokes)

	holes := make([]int, 0, len(perHole))
	for h := range perHole {
		holes = append(holes, h)
	}
	sort.Ints(holes)

	var sum Summary
	for _, hole := range holes {
		n := perHole[hole]
		sum.TotalStrokes += n
		if hole < 1 || hole > len(pars) {
			sum.UnratedStrokes += n
			continue
		}
		par := pars[hole-1]
		sum.HolesPlayed++
		sum.ParForPlayed += par
		sum.Counts.add(Categorize(n - par))
	}
	sum.VsPar = sum.TotalStrokes - sum.UnratedStrokes - sum.ParForPlayed
	return sum
}
