package service

import (
	"fmt"
	"time"

	"leetscore/internal/config"
	"leetscore/internal/logger"
	"leetscore/internal/models"

	"golang.org/x/sync/errgroup"
)

// GroupProgress is reported after each group of a batch completes
type GroupProgress struct {
	Index  int
	Offset int
	Scores []models.UserResult
}

// Scheduler runs bulk scoring in fixed-size groups. Members of a group run
// concurrently; groups run one after another with a pause in between.
type Scheduler struct {
	cfg     config.BatchConfig
	attempt AttemptFunc
	sleep   func(time.Duration)
}

// NewScheduler creates a scheduler. cfg is copied and never changes
// afterwards; a non-positive GroupSize or MaxUsernames takes the default.
func NewScheduler(cfg config.BatchConfig, attempt AttemptFunc) *Scheduler {
	defaults := config.DefaultBatch()
	if cfg.GroupSize < 1 {
		cfg.GroupSize = defaults.GroupSize
	}
	if cfg.MaxUsernames < 1 {
		cfg.MaxUsernames = defaults.MaxUsernames
	}
	return &Scheduler{
		cfg:     cfg,
		attempt: attempt,
		sleep:   time.Sleep,
	}
}

// validate checks a username list without touching the network
func (s *Scheduler) validate(usernames []string) error {
	if usernames == nil {
		return &InputError{Reason: "Usernames must be provided as an array"}
	}
	if len(usernames) > s.cfg.MaxUsernames {
		return &InputError{Reason: fmt.Sprintf("at most %d usernames per request, got %d", s.cfg.MaxUsernames, len(usernames))}
	}
	for i, u := range usernames {
		if u == "" {
			return &InputError{Reason: fmt.Sprintf("usernames[%d] is empty", i)}
		}
	}
	return nil
}

// RunBatch scores every username and returns results in input order
func (s *Scheduler) RunBatch(usernames []string) (*models.BatchResult, error) {
	return s.RunBatchWithProgress(usernames, nil)
}

// RunBatchWithProgress is RunBatch with a callback invoked after each group
func (s *Scheduler) RunBatchWithProgress(usernames []string, onGroup func(GroupProgress)) (*models.BatchResult, error) {
	if err := s.validate(usernames); err != nil {
		return nil, err
	}

	policy := RetryPolicy{MaxRetries: s.cfg.MaxRetries, Delay: s.cfg.RetryDelay}
	scores := make([]models.UserResult, len(usernames))
	size := s.cfg.GroupSize

	for index, start := 0, 0; start < len(usernames); index, start = index+1, start+size {
		end := start + size
		if end > len(usernames) {
			end = len(usernames)
		}

		if err := s.runGroup(usernames[start:end], scores[start:end], policy); err != nil {
			logger.Error("Batch aborted in group %d: %v", index, err)
			return nil, err
		}
		logger.Debug("Group %d done (%d-%d of %d)", index, start, end, len(usernames))

		if onGroup != nil {
			onGroup(GroupProgress{Index: index, Offset: start, Scores: scores[start:end]})
		}
		if end < len(usernames) {
			s.sleep(s.cfg.GroupPause)
		}
	}

	active := 0
	for _, r := range scores {
		if r.IsActive {
			active++
		}
	}

	return &models.BatchResult{
		Total:  len(usernames),
		Active: active,
		Scores: scores,
	}, nil
}

// runGroup resolves one group concurrently and waits for all of it. Each
// goroutine writes only its own slot of out.
func (s *Scheduler) runGroup(group []string, out []models.UserResult, policy RetryPolicy) error {
	var g errgroup.Group
	g.SetLimit(len(group))

	for i, username := range group {
		i, username := i, username
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &InternalError{Username: username, Cause: r}
				}
			}()
			out[i] = WithRetry(username, s.attempt, policy, s.sleep)
			return nil
		})
	}

	return g.Wait()
}
