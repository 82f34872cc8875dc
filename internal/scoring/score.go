// Package scoring holds the pure functions that turn fetched upstream data
// into a composite score and an activity flag.
package scoring

import (
	"math"

	"leetscore/internal/models"
)

const (
	// RatingWeight is the weight of the normalized contest rating
	RatingWeight = 60.0

	// ProblemWeight is the weight of the difficulty-weighted solved count
	ProblemWeight = 0.45

	// RatingCap normalizes the contest rating into roughly [0, 1]
	RatingCap = 3000.0

	// EasyMultiplier weights each solved easy problem
	EasyMultiplier = 1.0

	// MediumMultiplier weights each solved medium problem
	MediumMultiplier = 2.5

	// HardMultiplier weights each solved hard problem
	HardMultiplier = 4.0
)

// Score computes the composite score.
// Formula: round(60 * rating/3000 + 0.45 * (easy + 2.5*medium + 4*hard))
// A nil rating counts as zero. Missing difficulties count as zero.
func Score(rating *float64, profile []models.DifficultyCount) int {
	r := 0.0
	if rating != nil {
		r = *rating
	}
	normalizedRating := r / RatingCap

	easy := float64(models.CountFor(profile, models.DifficultyEasy))
	medium := float64(models.CountFor(profile, models.DifficultyMedium))
	hard := float64(models.CountFor(profile, models.DifficultyHard))
	problemScore := EasyMultiplier*easy + MediumMultiplier*medium + HardMultiplier*hard

	return int(math.Round(RatingWeight*normalizedRating + ProblemWeight*problemScore))
}
