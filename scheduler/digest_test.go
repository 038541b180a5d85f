package scheduler_test

import (
	"context"
	"testing"
	"time"

	"cartflow/scheduler"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mockDigestSender struct {
	runs chan time.Time
}

func (m *mockDigestSender) SendDailyDigest(_ context.Context, now time.Time) error {
	m.runs <- now
	return nil
}

func newScheduler(t *testing.T, at string) *scheduler.DigestScheduler {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	loc, err := time.LoadLocation("Asia/Karachi")
	assert.NoError(t, err)

	s, err := scheduler.NewDigestScheduler(&mockDigestSender{runs: make(chan time.Time, 1)}, at, loc, logger)
	assert.NoError(t, err)
	return s
}

func TestNewDigestScheduler_RejectsInvalidTime(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	_, err := scheduler.NewDigestScheduler(&mockDigestSender{}, "25:99", time.UTC, logger)
	assert.Error(t, err)

	_, err = scheduler.NewDigestScheduler(&mockDigestSender{}, "8pm", time.UTC, logger)
	assert.Error(t, err)
}

func TestNextRun_LaterToday(t *testing.T) {
	s := newScheduler(t, "20:00")
	loc, _ := time.LoadLocation("Asia/Karachi")

	now := time.Date(2025, 6, 10, 9, 0, 0, 0, loc)
	next := s.NextRun(now)
	assert.Equal(t, time.Date(2025, 6, 10, 20, 0, 0, 0, loc), next)
}

func TestNextRun_AlreadyPassedRollsToTomorrow(t *testing.T) {
	s := newScheduler(t, "20:00")
	loc, _ := time.LoadLocation("Asia/Karachi")

	now := time.Date(2025, 6, 10, 21, 30, 0, 0, loc)
	next := s.NextRun(now)
	assert.Equal(t, time.Date(2025, 6, 11, 20, 0, 0, 0, loc), next)
}

func TestNextRun_ExactlyAtScheduleIsTomorrow(t *testing.T) {
	s := newScheduler(t, "20:00")
	loc, _ := time.LoadLocation("Asia/Karachi")

	now := time.Date(2025, 6, 10, 20, 0, 0, 0, loc)
	next := s.NextRun(now)
	assert.Equal(t, time.Date(2025, 6, 11, 20, 0, 0, 0, loc), next)
}

func TestNextRun_ConvertsFromOtherZones(t *testing.T) {
	s := newScheduler(t, "20:00")
	loc, _ := time.LoadLocation("Asia/Karachi")

	// 16:00 UTC is 21:00 in Karachi, so the schedule has passed for the day.
	now := time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC)
	next := s.NextRun(now)
	assert.Equal(t, time.Date(2025, 6, 11, 20, 0, 0, 0, loc).Unix(), next.Unix())
}
