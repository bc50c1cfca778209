package distribution

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"astromatic/errs"
)

// scriptedChecker replays a fixed status sequence.
type scriptedChecker struct {
	statuses []JobStatus
	calls    int
}

func (s *scriptedChecker) check(context.Context) (JobStatus, error) {
	st := s.statuses[s.calls]
	s.calls++
	return st, nil
}

func noSleep(t *testing.T) func(context.Context, time.Duration) error {
	t.Helper()
	return func(context.Context, time.Duration) error { return nil }
}

func TestWait_FinishesAfterPendingChecks(t *testing.T) {
	sc := &scriptedChecker{statuses: []JobStatus{
		{Code: "IN_PROGRESS"}, {Code: "IN_PROGRESS"}, {Code: StatusFinished},
	}}
	p := &Poller{MaxChecks: 10, Interval: time.Second, Sleep: noSleep(t)}

	if err := p.Wait(context.Background(), "job1", sc.check); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if sc.calls != 3 {
		t.Errorf("checks = %d, want 3", sc.calls)
	}
}

func TestWait_RemoteErrorStopsImmediately(t *testing.T) {
	sc := &scriptedChecker{statuses: []JobStatus{
		{Code: "IN_PROGRESS"}, {Code: StatusError, Detail: "codec rejected"},
		{Code: StatusFinished}, // must never be reached
	}}
	p := &Poller{MaxChecks: 10, Interval: time.Second, Sleep: noSleep(t)}

	err := p.Wait(context.Background(), "job1", sc.check)
	var pe *errs.Error
	if !errors.As(err, &pe) || pe.Kind != errs.KindDistribution {
		t.Fatalf("err = %v, want Distribution kind", err)
	}
	if !strings.Contains(pe.Message, "codec rejected") {
		t.Errorf("message %q should carry the remote status", pe.Message)
	}
	if sc.calls != 2 {
		t.Errorf("checks = %d, want exactly 2 (no checks after ERROR)", sc.calls)
	}
}

func TestWait_TimesOutAfterMaxChecks(t *testing.T) {
	statuses := make([]JobStatus, 10)
	for i := range statuses {
		statuses[i] = JobStatus{Code: "IN_PROGRESS"}
	}
	sc := &scriptedChecker{statuses: statuses}
	sleeps := 0
	p := &Poller{MaxChecks: 10, Interval: time.Second,
		Sleep: func(context.Context, time.Duration) error { sleeps++; return nil }}

	err := p.Wait(context.Background(), "job1", sc.check)
	var pe *errs.Error
	if !errors.As(err, &pe) || pe.Kind != errs.KindDistribution {
		t.Fatalf("err = %v, want Distribution kind", err)
	}
	if !strings.Contains(pe.Message, "timed out") {
		t.Errorf("message = %q, want timeout", pe.Message)
	}
	if sc.calls != 10 {
		t.Errorf("checks = %d, want exactly MaxChecks", sc.calls)
	}
	if sleeps != 9 {
		t.Errorf("sleeps = %d, want MaxChecks-1", sleeps)
	}
}

func TestWait_CheckErrorPropagatesUnchanged(t *testing.T) {
	sentinel := errors.New("connection refused")
	check := func(context.Context) (JobStatus, error) { return JobStatus{}, sentinel }
	p := &Poller{MaxChecks: 10, Interval: time.Second, Sleep: noSleep(t)}

	if err := p.Wait(context.Background(), "job1", check); !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want the raw check error", err)
	}
}

func TestWait_ContextCancelEndsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	check := func(context.Context) (JobStatus, error) {
		return JobStatus{Code: "IN_PROGRESS"}, nil
	}
	p := &Poller{MaxChecks: 10, Interval: time.Hour}

	start := time.Now()
	err := p.Wait(ctx, "job1", check)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("poller ignored context cancellation")
	}
}
