package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/resellkit/ops-api/config"
	"github.com/resellkit/ops-api/internal/mocks"
)

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Interval:      time.Minute,
		JobMaxAge:     time.Hour,
		SessionMaxAge: 2 * time.Hour,
		BatchSize:     100,
	}
}

func TestNewReaperService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success", func(t *testing.T) {
		repo := mocks.NewMockReaperRepository(ctrl)
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   repo,
			Config: testReaperConfig(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("missing repo", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()})
		require.Error(t, err)
		assert.Nil(t, svc)
		assert.Contains(t, err.Error(), "ReaperRepository")
	})
}

func TestReaperService_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("drains batches until empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := mocks.NewMockReaperRepository(ctrl)
		svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})

		gomock.InOrder(
			repo.EXPECT().DeleteTerminalJobs(gomock.Any(), time.Hour, 100).Return(int64(100), nil),
			repo.EXPECT().DeleteTerminalJobs(gomock.Any(), time.Hour, 100).Return(int64(37), nil),
			repo.EXPECT().DeleteTerminalJobs(gomock.Any(), time.Hour, 100).Return(int64(0), nil),
		)
		repo.EXPECT().DeleteTerminalSessions(gomock.Any(), 2*time.Hour, 100).Return(int64(0), nil)

		require.NoError(t, svc.RunOnce(ctx))
	})

	t.Run("session step still runs after job step fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := mocks.NewMockReaperRepository(ctrl)
		svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})

		repo.EXPECT().DeleteTerminalJobs(gomock.Any(), time.Hour, 100).
			Return(int64(0), errors.New("deadlock detected"))
		repo.EXPECT().DeleteTerminalSessions(gomock.Any(), 2*time.Hour, 100).Return(int64(5), nil)
		repo.EXPECT().DeleteTerminalSessions(gomock.Any(), 2*time.Hour, 100).Return(int64(0), nil)

		err := svc.RunOnce(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete old terminal jobs")
	})

	t.Run("all canceled collapses to context.Canceled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := mocks.NewMockReaperRepository(ctrl)
		svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})

		repo.EXPECT().DeleteTerminalJobs(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(0), context.Canceled)
		repo.EXPECT().DeleteTerminalSessions(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(0), context.Canceled)

		err := svc.RunOnce(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReaperService_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockReaperRepository(ctrl)
	cfg := testReaperConfig()
	svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})

	// Initial sweep after jitter, then the loop waits on the ticker.
	repo.EXPECT().DeleteTerminalJobs(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil).AnyTimes()
	repo.EXPECT().DeleteTerminalSessions(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}
