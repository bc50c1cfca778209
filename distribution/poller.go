package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"astromatic/errs"
	"astromatic/retry"
)

// Remote job status codes reported by the publisher.
const (
	StatusFinished = "FINISHED"
	StatusError    = "ERROR"
)

// JobStatus is one status-check result. Detail carries the remote
// status payload for error reporting.
type JobStatus struct {
	Code   string
	Detail string
}

// StatusChecker performs one status-check call for a job.
type StatusChecker func(ctx context.Context) (JobStatus, error)

// Poller waits for a long-running remote media job to finish. It is
// not a retry mechanism: it repeatedly observes one job until the job
// reports a terminal state or the check budget runs out.
type Poller struct {
	MaxChecks int
	Interval  time.Duration

	// Sleep is injectable for tests; nil means a real timer.
	Sleep retry.Sleeper
}

// Wait polls check until the job finishes, fails, or the budget is
// exhausted. A job-reported error and a timeout both surface as
// Distribution-kind errors; both are terminal, never retried here.
// Errors from the check call itself propagate unchanged.
func (p *Poller) Wait(ctx context.Context, jobID string, check StatusChecker) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = realSleep
	}

	for i := 1; i <= p.MaxChecks; i++ {
		log.Info().Msg(fmt.Sprintf("Checking media processing status (attempt %d/%d)...", i, p.MaxChecks))

		status, err := check(ctx)
		if err != nil {
			return err
		}

		switch status.Code {
		case StatusFinished:
			log.Info().Msg("Media processing finished.")
			return nil
		case StatusError:
			return errs.New(errs.KindDistribution,
				fmt.Sprintf("media processing failed: %s", status.Detail),
				map[string]any{"jobId": jobID, "status": status.Detail})
		}

		if i == p.MaxChecks {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
	}

	return errs.New(errs.KindDistribution, "media processing timed out",
		map[string]any{"jobId": jobID})
}

func realSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
