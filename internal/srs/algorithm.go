package srs

import "math"

// ln(0.9): the forgetting curve is anchored so that R(S) = 0.9.
var logNinety = math.Log(0.9)

// model evaluates the memory formulas for one parameter set.
type model struct {
	w Parameters
}

// retrievability is R(t, S) = exp(ln(0.9) * t / S).
func (m *model) retrievability(elapsedDays, stability float64) float64 {
	return math.Exp(logNinety * elapsedDays / stability)
}

// interval inverts the forgetting curve for the desired retention:
// t = S * ln(r) / ln(0.9), rounded and clamped to [1, maxIvl] days.
func (m *model) interval(stability, desiredRetention float64, maxIvl int) int {
	days := math.Round(stability * math.Log(desiredRetention) / logNinety)
	if math.IsNaN(days) || days >= float64(maxIvl) {
		return maxIvl
	}
	return max(int(days), 1)
}

// initStability is S0(G) = w[G-1].
func (m *model) initStability(r Rating) float64 {
	return clampStability(m.w[r-1])
}

// initDifficulty is D0(G) = w4 - e^(w5*(G-1)) + 1.
func (m *model) initDifficulty(r Rating) float64 {
	return clampDifficulty(m.w[4] - math.Exp(m.w[5]*float64(r-1)) + 1)
}

// nextDifficulty applies the rating delta with linear damping toward 10,
// then mean-reverts toward D0(Easy):
//
//	D'  = D + (10 - D) * (-w6 * (G - 3)) / 9
//	D'' = w7 * D0(Easy) + (1 - w7) * D'
func (m *model) nextDifficulty(d float64, r Rating) float64 {
	delta := -m.w[6] * (float64(r) - 3)
	damped := d + (10-d)*delta/9
	reverted := m.w[7]*m.initDifficulty(Easy) + (1-m.w[7])*damped
	return clampDifficulty(reverted)
}

// recallStability is the stability after a successful review:
//
//	S' = S * (1 + e^w8 * (11 - D) * S^-w9 * (e^((1-R)*w10) - 1) * hard * easy)
//
// The growth term vanishes as R approaches 1, so early reviews gain little.
func (m *model) recallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty, easyBonus := 1.0, 1.0
	switch rating {
	case Hard:
		hardPenalty = m.w[15]
	case Easy:
		easyBonus = m.w[16]
	}
	growth := math.Exp(m.w[8]) *
		(11 - d) *
		math.Pow(s, -m.w[9]) *
		(math.Exp((1-r)*m.w[10]) - 1) *
		hardPenalty * easyBonus
	return clampStability(s * (1 + growth))
}

// forgetStability is the stability after a lapse:
//
//	S'_f = w11 * D^-w12 * ((S+1)^w13 - 1) * e^((1-R)*w14)
//
// bounded above by lapseCeiling.
func (m *model) forgetStability(d, s, r float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	return m.lapse(s, long)
}

// shortTermStability handles reviews on the same day as the previous one:
//
//	S' = S * e^(w17 * (G - 3 + w18))
//
// Hard, Good and Easy never lower stability; Again stays under lapseCeiling.
func (m *model) shortTermStability(s float64, rating Rating) float64 {
	inc := math.Exp(m.w[17] * (float64(rating) - 3 + m.w[18]))
	if rating == Again {
		return m.lapse(s, s*inc)
	}
	return clampStability(s * math.Max(inc, 1))
}

// lapse bounds a post-lapse stability by lapseCeiling. The MinStability
// floor applies only while it is still below s, so the result is always
// strictly below s.
func (m *model) lapse(s, next float64) float64 {
	next = math.Min(next, m.lapseCeiling(s))
	if next < MinStability && s > MinStability {
		return MinStability
	}
	return next
}

// lapseCeiling is S / e^(w17*w18); w17 and w18 are bounded above zero so it
// is strictly below S.
func (m *model) lapseCeiling(s float64) float64 {
	return s / math.Exp(m.w[17]*m.w[18])
}

func clampStability(s float64) float64 {
	return math.Max(s, MinStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, MinDifficulty), MaxDifficulty)
}
