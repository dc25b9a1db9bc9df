package readability

import "math"

func (s Stats) wordsPerSentence() float64 {
	return float64(s.Words) / float64(max(s.Sentences, 1))
}

func (s Stats) syllablesPerWord() float64 {
	return float64(s.Syllables) / float64(max(s.Words, 1))
}

// FleschReadingEase is 206.835 - 1.015*ASL - 84.6*ASW. Higher is easier.
func FleschReadingEase(s Stats) float64 {
	return 206.835 - 1.015*s.wordsPerSentence() - 84.6*s.syllablesPerWord()
}

// FleschKincaidGrade is 0.39*ASL + 11.8*ASW - 15.59.
func FleschKincaidGrade(s Stats) float64 {
	return 0.39*s.wordsPerSentence() + 11.8*s.syllablesPerWord() - 15.59
}

// SMOG needs at least three sentences; ok is false otherwise.
func SMOG(s Stats) (grade float64, ok bool) {
	if s.Sentences < 3 {
		return 0, false
	}
	return 1.043*math.Sqrt(float64(s.Polysyllables)*30/float64(s.Sentences)) + 3.1291, true
}

// ColemanLiau uses letters and sentences per hundred words.
func ColemanLiau(s Stats) float64 {
	words := float64(max(s.Words, 1))
	l := float64(s.Letters) / words * 100
	sent := float64(s.Sentences) / words * 100
	return 0.0588*l - 0.296*sent - 15.8
}

// AutomatedReadabilityIndex is 4.71*chars/words + 0.5*words/sentences - 21.43.
func AutomatedReadabilityIndex(s Stats) float64 {
	words := float64(max(s.Words, 1))
	return 4.71*float64(s.Letters)/words + 0.5*s.wordsPerSentence() - 21.43
}

// GunningFog is 0.4 * (ASL + 100*complex/words).
func GunningFog(s Stats) float64 {
	words := float64(max(s.Words, 1))
	return 0.4 * (s.wordsPerSentence() + 100*float64(s.ComplexWords)/words)
}

// LinsearWrite scores the first hundred words: easy words count 1, words of
// three or more syllables count 3.
func LinsearWrite(s Stats) float64 {
	r := float64(s.sampleEasy+3*s.sampleHard) / float64(max(s.sampleSentences, 1))
	if r > 20 {
		return r / 2
	}
	return (r - 2) / 2
}

// readingEaseGrade buckets a Flesch reading-ease score into a school grade.
func readingEaseGrade(ease float64) []int {
	switch {
	case ease >= 90:
		return []int{5}
	case ease >= 80:
		return []int{6}
	case ease >= 70:
		return []int{7}
	case ease >= 60:
		return []int{8, 9}
	case ease >= 50:
		return []int{10}
	case ease >= 40:
		return []int{11}
	case ease >= 30:
		return []int{12}
	default:
		return []int{13}
	}
}
