package models

import "time"

// BatchRequest represents the request payload for bulk scoring
type BatchRequest struct {
	Usernames []string `json:"usernames" validate:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ContestResponse is the GET /api/contest/:username payload. ContestRating is
// a number or "N/A".
type ContestResponse struct {
	ContestRating interface{} `json:"contestRating"`
}

// HealthResponse is the GET /health payload
type HealthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
}

// BatchRun is an audit row written after each bulk call. It only holds
// counters and is never read back by the scoring pipeline.
type BatchRun struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Source     string    `gorm:"size:16;not null;index" json:"source"`
	Total      int       `gorm:"not null" json:"total"`
	Active     int       `gorm:"not null" json:"active"`
	NotFound   int       `gorm:"not null" json:"not_found"`
	Degraded   int       `gorm:"not null" json:"degraded"`
	DurationMS int64     `gorm:"not null" json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (BatchRun) TableName() string {
	return "batch_runs"
}

// NewBatchRun summarizes a finished batch for the audit log
func NewBatchRun(source string, result *BatchResult, took time.Duration) BatchRun {
	_, notFound, degraded := result.Counts()
	return BatchRun{
		Source:     source,
		Total:      result.Total,
		Active:     result.Active,
		NotFound:   notFound,
		Degraded:   degraded,
		DurationMS: took.Milliseconds(),
	}
}
