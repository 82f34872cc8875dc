package service

import (
	"time"

	"leetscore/internal/models"
	"leetscore/internal/scoring"
	"leetscore/internal/upstream"

	"golang.org/x/sync/singleflight"
)

// Fetcher fetches the upstream data of one user
type Fetcher interface {
	FetchUserData(username string) upstream.Outcome
}

// AttemptFunc resolves one user. A non-nil error means a transient failure
// worth retrying; not-found users come back as a result, not an error.
type AttemptFunc func(username string) (models.UserResult, error)

// Resolver turns one username into a UserResult
type Resolver struct {
	fetcher Fetcher
	now     func() time.Time
	flights singleflight.Group
}

// NewResolver creates a new resolver
func NewResolver(fetcher Fetcher) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		now:     time.Now,
	}
}

// fetch coalesces concurrent lookups of the same username into one upstream
// round trip.
func (r *Resolver) fetch(username string) upstream.Outcome {
	v, _, _ := r.flights.Do(username, func() (interface{}, error) {
		return r.fetcher.FetchUserData(username), nil
	})
	return v.(upstream.Outcome)
}

// Attempt makes one resolution attempt
func (r *Resolver) Attempt(username string) (models.UserResult, error) {
	switch out := r.fetch(username).(type) {
	case upstream.Found:
		score := scoring.Score(out.Data.Rating, out.Data.Profile)
		date, active := scoring.Classify(out.Data.Recent, r.now())
		return models.ScoredResult(username, score, date, active), nil
	case upstream.NotFound:
		return models.NotFoundResult(username), nil
	case upstream.Failure:
		return models.UserResult{}, out.Err
	default:
		panic("unknown upstream outcome")
	}
}

// Resolve never fails: transient failures are encoded as a degraded result
func (r *Resolver) Resolve(username string) models.UserResult {
	res, err := r.Attempt(username)
	if err != nil {
		return models.DegradedResult(username, err.Error())
	}
	return res
}

// Summarize scores a single user without telling missing users apart: a null
// matchedUser is scored as an empty profile.
func (r *Resolver) Summarize(username string) (*models.UserSummary, error) {
	var (
		rating  *float64
		profile []models.DifficultyCount
		recent  *models.RecentSubmission
	)
	switch out := r.fetch(username).(type) {
	case upstream.Found:
		rating, profile, recent = out.Data.Rating, out.Data.Profile, out.Data.Recent
	case upstream.NotFound:
		rating, recent = out.Rating, out.Recent
	case upstream.Failure:
		return nil, out.Err
	}

	date, _ := scoring.Classify(recent, r.now())
	return &models.UserSummary{
		Username:         username,
		CustomScore:      scoring.Score(rating, profile),
		RecentActiveDate: date,
	}, nil
}
