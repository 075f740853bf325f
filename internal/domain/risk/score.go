package risk

// Heuristic credit scoring. This is the documented numeric fallback used when
// no external bureau/ML result is available; it must never be the reason a
// loan application fails.

const (
	MinScore  = 300
	MaxScore  = 850
	BaseScore = 600
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// History is the borrower slice the scorer looks at.
type History struct {
	KYCVerified      bool
	AccountAgeMonths int
	RepaidLoans      int
	DefaultedLoans   int
}

// Score maps history to [300,850]: base 600, +50 for verified KYC,
// +min(accountAgeMonths·2, 50), +20 per repaid loan, −100 per default.
func Score(h History) int {
	s := BaseScore
	if h.KYCVerified {
		s += 50
	}
	age := h.AccountAgeMonths * 2
	if age > 50 {
		age = 50
	}
	s += age
	s += 20 * h.RepaidLoans
	s -= 100 * h.DefaultedLoans

	if s < MinScore {
		s = MinScore
	}
	if s > MaxScore {
		s = MaxScore
	}
	return s
}

// LevelFor buckets a score, downgrading large requests: low needs >=700 and
// at most 10000; medium needs >=600 and at most 5000 to stay medium.
func LevelFor(score int, requestedAmount float64) Level {
	switch {
	case score >= 700:
		if requestedAmount > 10000 {
			return LevelMedium
		}
		return LevelLow
	case score >= 600:
		if requestedAmount > 5000 {
			return LevelHigh
		}
		return LevelMedium
	default:
		return LevelHigh
	}
}
