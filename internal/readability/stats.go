package readability

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// linsearSample is the number of leading words Linsear Write looks at.
const linsearSample = 100

// Stats are the text counts every formula is built from.
type Stats struct {
	Sentences     int `json:"sentences"`
	Words         int `json:"words"`
	Syllables     int `json:"syllables"`
	Letters       int `json:"letters"`       // letters and digits inside words
	Polysyllables int `json:"polysyllables"` // words with three or more syllables
	ComplexWords  int `json:"complex_words"` // polysyllables, excluding hyphenated and capitalized mid-sentence words
	LongWords     int `json:"long_words"`    // words longer than six letters

	// Linsear Write sample over the first linsearSample words.
	sampleEasy      int
	sampleHard      int
	sampleSentences int
}

// Empty reports whether the text had no words.
func (s Stats) Empty() bool {
	return s.Words == 0
}

// Analyze tokenizes text into sentences and words and counts them.
func Analyze(text string) Stats {
	var st Stats
	for _, sentence := range splitSentences(text) {
		words := splitWords(sentence)
		if len(words) == 0 {
			continue
		}
		st.Sentences++

		sampled := false
		for i, w := range words {
			n := countSyllables(w)
			letters := countLetters(w)

			st.Words++
			st.Syllables += n
			st.Letters += letters
			if letters > 6 {
				st.LongWords++
			}
			if n >= 3 {
				st.Polysyllables++
				if (i == 0 || !isCapitalized(w)) && !strings.Contains(w, "-") {
					st.ComplexWords++
				}
			}

			if st.Words <= linsearSample {
				sampled = true
				if n >= 3 {
					st.sampleHard++
				} else {
					st.sampleEasy++
				}
			}
		}
		if sampled {
			st.sampleSentences++
		}
	}
	return st
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '.', '!', '?', ';', '…', '。':
			return true
		}
		return false
	})
}

// splitWords returns the tokens of s that contain at least one letter,
// trimmed of surrounding punctuation.
func splitWords(s string) []string {
	var words []string
	for _, f := range strings.Fields(s) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if strings.IndexFunc(w, unicode.IsLetter) < 0 {
			continue
		}
		words = append(words, w)
	}
	return words
}

func countLetters(w string) int {
	n := 0
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func isCapitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// countSyllables estimates English syllables from vowel groups, with
// corrections for silent endings. Every word has at least one.
func countSyllables(word string) int {
	w := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, word)
	if w == "" {
		return 0
	}
	if len(w) <= 3 {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	switch {
	case strings.HasSuffix(w, "le") && !isVowel(rune(w[len(w)-3])):
		// table, little: the final "le" is its own syllable.
	case strings.HasSuffix(w, "ee"), strings.HasSuffix(w, "ye"):
	case strings.HasSuffix(w, "e"):
		count--
	case strings.HasSuffix(w, "ed") && !strings.ContainsRune("td", rune(w[len(w)-3])):
		count--
	}
	return max(count, 1)
}
