package jobs

import (
	"sync"
	"time"

	"leetscore/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

// Upstream reachability as reported by /health
const (
	StatusUnknown     = "unknown"
	StatusReachable   = "reachable"
	StatusUnreachable = "unreachable"
)

// Pinger is anything that can check the upstream endpoint
type Pinger interface {
	Ping() error
}

// UpstreamProbe periodically pings the upstream and remembers the result.
// It only feeds the health endpoint; the scoring pipeline never consults it.
type UpstreamProbe struct {
	pinger    Pinger
	interval  time.Duration
	scheduler gocron.Scheduler

	mu        sync.RWMutex
	status    string
	lastCheck time.Time
	lastErr   error
}

// NewUpstreamProbe creates a probe; call Start to schedule it
func NewUpstreamProbe(pinger Pinger, interval time.Duration) *UpstreamProbe {
	return &UpstreamProbe{
		pinger:   pinger,
		interval: interval,
		status:   StatusUnknown,
	}
}

// Start schedules Check every interval and runs it once right away
func (p *UpstreamProbe) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	j, err := s.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(p.Check),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.Shutdown()
		return err
	}

	p.scheduler = s
	s.Start()
	// duration jobs don't run on startup
	return j.RunNow()
}

// Stop shuts the scheduler down
func (p *UpstreamProbe) Stop() error {
	if p.scheduler == nil {
		return nil
	}
	return p.scheduler.Shutdown()
}

// Check pings once and records the result
func (p *UpstreamProbe) Check() {
	err := p.pinger.Ping()

	p.mu.Lock()
	previous := p.status
	p.lastCheck = time.Now()
	p.lastErr = err
	if err != nil {
		p.status = StatusUnreachable
	} else {
		p.status = StatusReachable
	}
	current := p.status
	p.mu.Unlock()

	if current == previous {
		return
	}
	if err != nil {
		logger.Warning("Upstream became %s: %v", current, err)
	} else {
		logger.Success("Upstream %s", current)
	}
}

// Status returns the last observed reachability
func (p *UpstreamProbe) Status() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// LastCheck returns when the last check finished and its error
func (p *UpstreamProbe) LastCheck() (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastCheck, p.lastErr
}
