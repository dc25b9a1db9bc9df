package level

import "math"

// QuizAccuracy is the fraction of correct answers.
func QuizAccuracy(answers []bool) (float64, error) {
	if len(answers) == 0 {
		return 0, ErrNoAnswers
	}
	correct := 0
	for _, ok := range answers {
		if ok {
			correct++
		}
	}
	return float64(correct) / float64(len(answers)), nil
}

// BandProgress returns how far xp has advanced through its XP band, as a
// percentage in [0, 100]. The open top band always reports 100.
func BandProgress(xp int) float64 {
	b := XPTable.Lookup(float64(xp))
	if math.IsInf(b.Max, 1) {
		return 100
	}
	width := b.Max - b.Min
	if width <= 0 {
		return 100
	}
	p := (float64(xp) - b.Min) * 100 / width
	return math.Min(math.Max(p, 0), 100)
}

// NextBandXP returns the XP needed to enter the next band, or false when xp
// is already in the top band.
func NextBandXP(xp int) (int, bool) {
	i := XPTable.Index(float64(xp))
	if i+1 >= len(XPTable) {
		return 0, false
	}
	return int(XPTable[i+1].Min), true
}

// UpdateAverageRating folds one more rating into a running mean over total
// previous ratings and returns the new mean and count.
func UpdateAverageRating(avg float64, total, rating int) (float64, int) {
	if total <= 0 {
		return float64(rating), 1
	}
	return (avg*float64(total) + float64(rating)) / float64(total+1), total + 1
}
