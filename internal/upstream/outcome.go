package upstream

import "leetscore/internal/models"

// Outcome is the result of fetching one user: Found, NotFound or Failure.
// The interface is sealed so a type switch over the three variants is
// exhaustive.
type Outcome interface {
	outcome()
}

// Found carries the three data points of an existing user
type Found struct {
	Data models.UserData
}

// NotFound means the profile query returned a null matchedUser. Rating and
// Recent hold whatever the other two queries returned.
type NotFound struct {
	Rating *float64
	Recent *models.RecentSubmission
}

// Failure means at least one of the three queries failed
type Failure struct {
	Err error
}

func (Found) outcome()    {}
func (NotFound) outcome() {}
func (Failure) outcome()  {}
