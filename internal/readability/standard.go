package readability

import "math"

// TextStandard is the consensus grade of the grade-level formulas: each
// contributes the floor and ceiling of its score, Flesch reading ease
// contributes its grade bucket, and the most frequent grade wins. Ties go
// to the grade seen first.
func TextStandard(s Stats) float64 {
	if s.Empty() {
		return 0
	}

	var grades []int
	bracket := func(v float64) {
		grades = append(grades, int(math.Floor(v)), int(math.Ceil(v)))
	}

	bracket(FleschKincaidGrade(s))
	grades = append(grades, readingEaseGrade(FleschReadingEase(s))...)
	if smog, ok := SMOG(s); ok {
		bracket(smog)
	}
	bracket(ColemanLiau(s))
	bracket(AutomatedReadabilityIndex(s))
	bracket(LinsearWrite(s))
	bracket(GunningFog(s))

	return float64(mostCommon(grades))
}

func mostCommon(grades []int) int {
	counts := make(map[int]int, len(grades))
	best, bestCount := 0, 0
	for _, g := range grades {
		counts[g]++
	}
	for _, g := range grades {
		if counts[g] > bestCount {
			best, bestCount = g, counts[g]
		}
	}
	return best
}
