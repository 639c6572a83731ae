package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(context.Background(), time.UTC)
	err := s.Start("every day at noon", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.True(t, s.Next().IsZero())
}

func TestStartPlansNextRun(t *testing.T) {
	s := New(context.Background(), time.UTC)
	require.NoError(t, s.Start("0 10 * * 1-5", func(context.Context) error { return nil }))
	defer s.Stop()

	next := s.Next().In(time.UTC)
	assert.Equal(t, 10, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.NotEqual(t, time.Saturday, next.Weekday())
	assert.NotEqual(t, time.Sunday, next.Weekday())
}

func TestRunNow(t *testing.T) {
	s := New(context.Background(), time.UTC)
	calls := 0
	s.RunNow(func(ctx context.Context) error {
		calls++
		assert.NoError(t, ctx.Err())
		return nil
	})
	s.RunNow(func(context.Context) error {
		calls++
		return errors.New("upstream down")
	})
	assert.Equal(t, 2, calls)
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(context.Background(), time.UTC)
	s.Stop()

	var jobErr error
	s.RunNow(func(ctx context.Context) error {
		jobErr = ctx.Err()
		return jobErr
	})
	assert.ErrorIs(t, jobErr, context.Canceled)
}

func TestParentCancelStopsRunNow(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := New(parent, time.UTC)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		s.RunNow(func(ctx context.Context) error {
			close(started)
			select {
			case <-ctx.Done():
				done <- ctx.Err()
			case <-time.After(5 * time.Second):
				done <- nil
			}
			return ctx.Err()
		})
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("job kept running after the parent context was cancelled")
	}
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.Local, LoadLocation(""))
	assert.Equal(t, time.Local, LoadLocation("Mars/Olympus_Mons"))
	assert.Equal(t, "UTC", LoadLocation("UTC").String())
}
