package readability

import "testing"

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"the", 1},
		{"make", 1},
		{"free", 1},
		{"agree", 2},
		{"table", 2},
		{"happy", 2},
		{"jumped", 1},
		{"wanted", 2},
		{"reading", 2},
		{"beautiful", 3},
		{"education", 4},
		{"Don't", 1},
		{"", 0},
	}
	for _, tt := range tests {
		if got := countSyllables(tt.word); got != tt.want {
			t.Errorf("countSyllables(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestAnalyze(t *testing.T) {
	st := Analyze("The cat sat on the mat. The dog ran to the park! It was a fun day?")
	if st.Sentences != 3 {
		t.Errorf("Sentences = %d, want 3", st.Sentences)
	}
	if st.Words != 17 {
		t.Errorf("Words = %d, want 17", st.Words)
	}
	if st.Syllables != 17 {
		t.Errorf("Syllables = %d, want 17", st.Syllables)
	}
	if st.Letters != 47 {
		t.Errorf("Letters = %d, want 47", st.Letters)
	}
	if st.Polysyllables != 0 || st.LongWords != 0 {
		t.Errorf("Polysyllables/LongWords = %d/%d, want 0/0", st.Polysyllables, st.LongWords)
	}
}

func TestAnalyze_IgnoresNonWords(t *testing.T) {
	st := Analyze("  ... 123 -- !!! 42.5 ??? ")
	if !st.Empty() {
		t.Errorf("Analyze(non-text) = %+v, want empty", st)
	}
	if st.Sentences != 0 {
		t.Errorf("Sentences = %d, want 0", st.Sentences)
	}
}

func TestAnalyze_NoTerminalPunctuation(t *testing.T) {
	st := Analyze("a sentence without an ending")
	if st.Sentences != 1 || st.Words != 5 {
		t.Errorf("Sentences/Words = %d/%d, want 1/5", st.Sentences, st.Words)
	}
}

func TestAnalyze_ComplexWords(t *testing.T) {
	st := Analyze("Yesterday the committee considered Pennsylvania regulations and well-intentioned alternatives.")
	// Polysyllables: Yesterday, committee, considered, Pennsylvania, regulations,
	// well-intentioned, alternatives. Pennsylvania is capitalized mid-sentence
	// and well-intentioned is hyphenated.
	if st.Polysyllables != 7 {
		t.Errorf("Polysyllables = %d, want 7", st.Polysyllables)
	}
	if st.ComplexWords != 5 {
		t.Errorf("ComplexWords = %d, want 5", st.ComplexWords)
	}
}
