package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Difficulty is a LeetCode problem difficulty bucket
type Difficulty string

const (
	DifficultyAll    Difficulty = "All"
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// DifficultyCount is one row of a user's solved-problem profile
type DifficultyCount struct {
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count"`
}

// CountFor returns the count for d, zero when the profile has no entry
func CountFor(profile []DifficultyCount, d Difficulty) int {
	for _, item := range profile {
		if item.Difficulty == d {
			return item.Count
		}
	}
	return 0
}

// RecentSubmission is the most recent accepted submission of a user
type RecentSubmission struct {
	Timestamp int64
}

// EpochSeconds decodes a unix timestamp sent either as a JSON number or as a
// numeric string, which is what the upstream does.
type EpochSeconds int64

// UnmarshalJSON implements json.Unmarshaler
func (e *EpochSeconds) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = 0
		return nil
	}
	raw := b
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*e = 0
			return nil
		}
		raw = []byte(s)
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid epoch seconds %s: %w", b, err)
	}
	*e = EpochSeconds(n)
	return nil
}

// UserData is everything fetched upstream for one username
type UserData struct {
	Profile []DifficultyCount
	Rating  *float64
	Recent  *RecentSubmission
}
