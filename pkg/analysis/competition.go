package analysis

import "keyword-intel/pkg/model"

// ClassifyCompetition tiers a 0..1 paid-competition score. Boundaries
// belong to the lower tier.
func ClassifyCompetition(score float64) model.Level {
	switch {
	case score > 0.7:
		return model.LevelHigh
	case score > 0.4:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// ClassifyDifficulty tiers a 0..100 keyword difficulty score.
func ClassifyDifficulty(score float64) model.Level {
	switch {
	case score > 70:
		return model.LevelHigh
	case score > 40:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// DifficultyComplexity is a finer five-step tag for a 0..100 difficulty score.
func DifficultyComplexity(score float64) string {
	switch {
	case score > 80:
		return "very_hard"
	case score > 60:
		return "hard"
	case score > 40:
		return "medium"
	case score > 20:
		return "moderate"
	default:
		return "easy"
	}
}

// ClampUnit limits v to [0,1].
func ClampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}

// ClampPercent limits v to [0,100].
func ClampPercent(v float64) float64 {
	return clamp(v, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
