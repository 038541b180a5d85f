package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DigestSender is the subset of the notification service the scheduler
// drives.
type DigestSender interface {
	SendDailyDigest(ctx context.Context, now time.Time) error
}

// DigestScheduler triggers the daily sales digest once per day at a fixed
// local time.
type DigestScheduler struct {
	sender   DigestSender
	hour     int
	minute   int
	location *time.Location
	logger   *zap.Logger
}

// NewDigestScheduler creates a scheduler firing daily at "HH:MM" in the
// given location.
func NewDigestScheduler(sender DigestSender, at string, location *time.Location, logger *zap.Logger) (*DigestScheduler, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("invalid digest time %q: %w", at, err)
	}
	if location == nil {
		location = time.Local
	}
	return &DigestScheduler{
		sender:   sender,
		hour:     t.Hour(),
		minute:   t.Minute(),
		location: location,
		logger:   logger,
	}, nil
}

// NextRun returns the next scheduled firing strictly after now.
func (s *DigestScheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start runs the scheduler loop until ctx is cancelled.
func (s *DigestScheduler) Start(ctx context.Context) {
	go func() {
		for {
			next := s.NextRun(time.Now())
			s.logger.Info("Next sales digest scheduled", zap.Time("at", next))

			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case now := <-timer.C:
				runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				if err := s.sender.SendDailyDigest(runCtx, now); err != nil {
					s.logger.Error("Sales digest run failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()
}
