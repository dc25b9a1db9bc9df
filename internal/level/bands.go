package level

import (
	"math"
	"sort"
)

// CEFRLevels lists the 19 CEFR bands indexed by RA level.
var CEFRLevels = [NumLevels]string{
	"A0-", "A0", "A0+",
	"A1", "A1+",
	"A2-", "A2", "A2+",
	"B1-", "B1", "B1+",
	"B2-", "B2", "B2+",
	"C1-", "C1", "C1+",
	"C2-", "C2",
}

const (
	NumLevels  = 19
	MinRALevel = 0
	MaxRALevel = NumLevels - 1
)

// Band is one contiguous range of a banding table. Max is inclusive.
type Band struct {
	Min     float64
	Max     float64
	CEFR    string
	RALevel int
}

// Contains reports whether v lies inside the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Table is an ordered, contiguous list of bands.
type Table []Band

// Lookup returns the band containing v. Values below the first band map to
// the first band and values above the last band map to the last one.
func (t Table) Lookup(v float64) Band {
	if len(t) == 0 {
		return Band{CEFR: CEFRLevels[0]}
	}
	if math.IsNaN(v) {
		return t[0]
	}
	// First band whose upper edge is not below v.
	i := sort.Search(len(t), func(i int) bool { return t[i].Max >= v })
	if i == len(t) {
		return t[len(t)-1]
	}
	return t[i]
}

// Index returns the position of the band Lookup(v) would return.
func (t Table) Index(v float64) int {
	if len(t) == 0 || math.IsNaN(v) {
		return 0
	}
	i := sort.Search(len(t), func(i int) bool { return t[i].Max >= v })
	return min(i, len(t)-1)
}

// RATable maps a clamped readability score to its RA level: band n covers
// [n, n+1).
var RATable = buildRATable()

func buildRATable() Table {
	t := make(Table, NumLevels)
	for i := range t {
		t[i] = Band{
			Min:     float64(i),
			Max:     math.Nextafter(float64(i+1), math.Inf(-1)),
			CEFR:    CEFRLevels[i],
			RALevel: i,
		}
	}
	t[MaxRALevel].Max = math.Inf(1)
	return t
}

// XPTable maps cumulative experience points to a level. The last band is
// open-ended.
var XPTable = Table{
	{0, 4999, "A0-", 0},
	{5000, 10999, "A0", 1},
	{11000, 17999, "A0+", 2},
	{18000, 25999, "A1", 3},
	{26000, 34999, "A1+", 4},
	{35000, 44999, "A2-", 5},
	{45000, 55999, "A2", 6},
	{56000, 67999, "A2+", 7},
	{68000, 80999, "B1-", 8},
	{81000, 94999, "B1", 9},
	{95000, 109999, "B1+", 10},
	{110000, 125999, "B2-", 11},
	{126000, 142999, "B2", 12},
	{143000, 160999, "B2+", 13},
	{161000, 179999, "C1-", 14},
	{180000, 199999, "C1", 15},
	{200000, 220999, "C1+", 16},
	{221000, 242999, "C2-", 17},
	{243000, math.Inf(1), "C2", 18},
}

// CEFRLevelOf returns the CEFR band for an RA level, saturating outside
// [MinRALevel, MaxRALevel].
func CEFRLevelOf(ra int) string {
	return CEFRLevels[ClampRALevel(ra)]
}

// RALevelOf is the inverse of CEFRLevelOf.
func RALevelOf(cefr string) (int, bool) {
	for i, l := range CEFRLevels {
		if l == cefr {
			return i, true
		}
	}
	return 0, false
}

// ClampRALevel bounds ra to [MinRALevel, MaxRALevel].
func ClampRALevel(ra int) int {
	return min(max(ra, MinRALevel), MaxRALevel)
}
