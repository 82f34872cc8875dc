package models

import "encoding/json"

const (
	// NotFoundSentinel replaces score and date for identities the upstream does not know
	NotFoundSentinel = "User Not Found"

	// NoActivity is the date placeholder when no accepted submission is recorded
	NoActivity = "NA"

	// NotFoundMessage is the error text carried by not-found results
	NotFoundMessage = "User does not exist"
)

// ResultStatus tags which variant a UserResult holds
type ResultStatus int

const (
	StatusScored ResultStatus = iota
	StatusNotFound
	StatusDegraded
)

func (s ResultStatus) String() string {
	switch s {
	case StatusScored:
		return "scored"
	case StatusNotFound:
		return "not_found"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// UserResult is the per-username output of the pipeline. It is one of three
// variants and is only built through ScoredResult, NotFoundResult and
// DegradedResult, so the sentinel fields always agree with Status.
type UserResult struct {
	Username         string
	Status           ResultStatus
	CustomScore      int
	RecentActiveDate string
	IsActive         bool
	Error            string
}

// ScoredResult is a user whose data was fetched and scored
func ScoredResult(username string, score int, recentActiveDate string, isActive bool) UserResult {
	return UserResult{
		Username:         username,
		Status:           StatusScored,
		CustomScore:      score,
		RecentActiveDate: recentActiveDate,
		IsActive:         isActive,
	}
}

// NotFoundResult is a user the upstream confirmed does not exist
func NotFoundResult(username string) UserResult {
	return UserResult{
		Username:         username,
		Status:           StatusNotFound,
		RecentActiveDate: NotFoundSentinel,
		Error:            NotFoundMessage,
	}
}

// DegradedResult is a placeholder for a user whose data could not be fetched
func DegradedResult(username, message string) UserResult {
	return UserResult{
		Username:         username,
		Status:           StatusDegraded,
		RecentActiveDate: NoActivity,
		Error:            message,
	}
}

// UserNotFound reports whether this is the not-found variant
func (r UserResult) UserNotFound() bool {
	return r.Status == StatusNotFound
}

type userResultJSON struct {
	Username         string      `json:"username"`
	CustomScore      interface{} `json:"customScore"`
	RecentActiveDate string      `json:"recentActiveDate"`
	IsActive         bool        `json:"isActive"`
	UserNotFound     bool        `json:"userNotFound"`
	Error            string      `json:"error,omitempty"`
}

// MarshalJSON writes the wire shape, where customScore is either an integer
// or the not-found sentinel string.
func (r UserResult) MarshalJSON() ([]byte, error) {
	out := userResultJSON{
		Username:         r.Username,
		CustomScore:      r.CustomScore,
		RecentActiveDate: r.RecentActiveDate,
		IsActive:         r.IsActive,
		UserNotFound:     r.UserNotFound(),
		Error:            r.Error,
	}
	if r.Status == StatusNotFound {
		out.CustomScore = NotFoundSentinel
		out.RecentActiveDate = NotFoundSentinel
		out.IsActive = false
	}
	return json.Marshal(out)
}

// BatchResult is the response of a bulk scoring call
type BatchResult struct {
	Total  int          `json:"total"`
	Active int          `json:"active"`
	Scores []UserResult `json:"scores"`
}

// Counts tallies results by variant
func (b *BatchResult) Counts() (scored, notFound, degraded int) {
	for _, r := range b.Scores {
		switch r.Status {
		case StatusScored:
			scored++
		case StatusNotFound:
			notFound++
		case StatusDegraded:
			degraded++
		}
	}
	return scored, notFound, degraded
}

// UserSummary is the single-user response
type UserSummary struct {
	Username         string `json:"username"`
	CustomScore      int    `json:"customScore"`
	RecentActiveDate string `json:"recentActiveDate"`
}
