package jobs

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"leetscore/internal/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

type fakePinger struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakePinger) Ping() error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errors.New("dial tcp: connection refused")
	}
	return nil
}

func TestUpstreamProbe_Check(t *testing.T) {
	pinger := &fakePinger{}
	p := NewUpstreamProbe(pinger, time.Minute)

	if got := p.Status(); got != StatusUnknown {
		t.Fatalf("initial status: got %q", got)
	}

	p.Check()
	if got := p.Status(); got != StatusReachable {
		t.Errorf("after ok ping: got %q", got)
	}

	pinger.fail.Store(true)
	p.Check()
	if got := p.Status(); got != StatusUnreachable {
		t.Errorf("after failed ping: got %q", got)
	}
	when, err := p.LastCheck()
	if err == nil || when.IsZero() {
		t.Errorf("last check: got %v, %v", when, err)
	}
}

func TestUpstreamProbe_StartRunsImmediately(t *testing.T) {
	pinger := &fakePinger{}
	p := NewUpstreamProbe(pinger, time.Hour)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for p.Status() == StatusUnknown && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := p.Status(); got != StatusReachable {
		t.Errorf("status: got %q, want %q", got, StatusReachable)
	}
	if pinger.calls.Load() < 1 {
		t.Error("probe never pinged")
	}
}

func TestUpstreamProbe_StopWithoutStart(t *testing.T) {
	if err := NewUpstreamProbe(&fakePinger{}, time.Minute).Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
