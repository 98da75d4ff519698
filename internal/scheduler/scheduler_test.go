package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/services"
)

// fakeDrawService records the dates it was asked to draw
type fakeDrawService struct {
	calls []string
	err   error
}

var _ services.DrawService = (*fakeDrawService)(nil)

func (f *fakeDrawService) RunDrawForDate(ctx context.Context, date string) (*models.Draw, error) {
	f.calls = append(f.calls, date)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Draw{DrawDate: date, Status: models.DrawStatusCompleted}, nil
}

func (f *fakeDrawService) GetDrawByDate(ctx context.Context, date string) (*models.Draw, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDrawService) GetDraws(ctx context.Context, page, limit int) ([]*models.Draw, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDrawService) GetWinsByPhone(ctx context.Context, phone string) ([]*models.Draw, error) {
	return nil, errors.New("not implemented")
}

func TestNew_RejectsBadCronSpec(t *testing.T) {
	_, err := New(&fakeDrawService{}, "not a cron spec")
	assert.Error(t, err)
}

func TestRunPending_DrawsYesterday(t *testing.T) {
	fake := &fakeDrawService{}
	s, err := New(fake, "0 0 * * *")
	require.NoError(t, err)

	require.NoError(t, s.RunPending(context.Background()))

	want := time.Now().UTC().AddDate(0, 0, -1).Format(models.DrawDateLayout)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, want, fake.calls[0])

	status := s.Status()
	assert.Equal(t, want, status.LastDrawDate)
	assert.NotNil(t, status.LastRunAt)
	assert.Empty(t, status.LastError)
}

func TestRunPending_SurfacesDrawError(t *testing.T) {
	fake := &fakeDrawService{err: errors.New("pool query failed")}
	s, err := New(fake, "0 0 * * *")
	require.NoError(t, err)

	err = s.RunPending(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "pool query failed", s.Status().LastError)
}

func TestTriggerDraw_PassesDateThrough(t *testing.T) {
	fake := &fakeDrawService{}
	s, err := New(fake, "0 0 * * *")
	require.NoError(t, err)

	draw, err := s.TriggerDraw(context.Background(), "2026-08-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-15", draw.DrawDate)
	assert.Equal(t, []string{"2026-08-15"}, fake.calls)
}

func TestStartStop_ReportsNextRun(t *testing.T) {
	s, err := New(&fakeDrawService{}, "0 0 * * *")
	require.NoError(t, err)

	assert.False(t, s.Status().Running)
	assert.Nil(t, s.Status().NextRunAt)

	s.Start()
	status := s.Status()
	assert.True(t, status.Running)
	require.NotNil(t, status.NextRunAt)
	assert.True(t, status.NextRunAt.After(time.Now().UTC().Add(-time.Minute)))

	s.Stop()
	assert.False(t, s.Status().Running)
}
