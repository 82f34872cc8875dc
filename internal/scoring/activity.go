package scoring

import (
	"time"

	"leetscore/internal/models"
)

// ActiveWindow is how recent the last accepted submission must be for a user
// to count as active. The boundary is inclusive.
const ActiveWindow = 7 * 24 * time.Hour

// DateLayout is the ISO calendar date used for recentActiveDate
const DateLayout = "2006-01-02"

// Classify returns the UTC date of the submission and whether it falls within
// ActiveWindow of now. No submission yields ("NA", false).
func Classify(sub *models.RecentSubmission, now time.Time) (string, bool) {
	if sub == nil || sub.Timestamp == 0 {
		return models.NoActivity, false
	}
	submitted := time.Unix(sub.Timestamp, 0).UTC()
	return submitted.Format(DateLayout), now.Sub(submitted) <= ActiveWindow
}
