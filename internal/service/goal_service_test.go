package service

import (
	"coachdesk/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newGoalServiceAt pins the service clock so scheduled-day checks are stable.
func newGoalServiceAt(now time.Time, repo *fakeGoalRepo) GoalService {
	svc := NewGoalService(repo, &recordingPublisher{}).(*goalService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestGoalCreateValidation(t *testing.T) {
	svc := NewGoalService(newFakeGoalRepo(), nil)
	owner := primitive.NewObjectID()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, domain.GoalTemplate{Type: domain.GoalWorkout, Days: []string{"Mon"}, Duration: 2})
	assert.Error(t, err, "title required")

	_, err = svc.Create(ctx, owner, domain.GoalTemplate{Title: "Run", Type: "cardio", Days: []string{"Mon"}, Duration: 2})
	assert.Error(t, err, "type must be workout or diet")

	goal, err := svc.Create(ctx, owner, domain.GoalTemplate{Title: "Run", Type: domain.GoalWorkout, Days: []string{"Mon"}, Duration: 2})
	require.NoError(t, err)
	assert.False(t, goal.StartDate.IsZero())
	assert.Nil(t, goal.CreatedBy, "self-created goals carry no assigner stamp")
}

func TestCompleteTodayOnce(t *testing.T) {
	repo := newFakeGoalRepo()
	// 2026-08-03 was a Monday.
	monday := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	svc := newGoalServiceAt(monday, repo)
	owner := primitive.NewObjectID()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.GoalTemplate{
		Title: "Run", Type: domain.GoalWorkout, Days: []string{"Mon", "Wed"}, Duration: 3,
	})
	require.NoError(t, err)

	goal, err := svc.CompleteToday(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.True(t, goal.WeeklyProgress["week1-Mon"])
	assert.Equal(t, 17, goal.ProgressPercent()) // 1 of 6 sessions

	// Marking the same day twice changes nothing.
	_, err = svc.CompleteToday(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.WeeklyProgress, 1)
}

func TestCompleteTodayUnscheduledDay(t *testing.T) {
	repo := newFakeGoalRepo()
	tuesday := time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC)
	svc := newGoalServiceAt(tuesday, repo)
	owner := primitive.NewObjectID()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.GoalTemplate{
		Title: "Run", Type: domain.GoalWorkout, Days: []string{"Mon", "Wed"}, Duration: 3,
	})
	require.NoError(t, err)

	_, err = svc.CompleteToday(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrDayNotScheduled)
}

func TestCompleteTodayAfterGoalEnds(t *testing.T) {
	repo := newFakeGoalRepo()
	owner := primitive.NewObjectID()
	ctx := context.Background()

	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	goal := &domain.Goal{
		OwnerID: owner, Title: "Run", Type: domain.GoalWorkout,
		Days: []string{"Mon"}, Duration: 2, StartDate: start,
	}
	_, err := repo.Create(ctx, goal)
	require.NoError(t, err)

	// Three weeks after a two-week goal started, also a Monday.
	threeWeeksOn := start.AddDate(0, 0, 21).Add(9 * time.Hour)
	svc := newGoalServiceAt(threeWeeksOn, repo)

	_, err = svc.CompleteToday(ctx, owner, goal.ID)
	assert.ErrorIs(t, err, ErrGoalFinished)
}

func TestGoalOwnershipScoping(t *testing.T) {
	repo := newFakeGoalRepo()
	svc := NewGoalService(repo, nil)
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.GoalTemplate{
		Title: "Run", Type: domain.GoalWorkout, Days: []string{"Mon"}, Duration: 1,
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, created.ID)
	assert.ErrorIs(t, err, ErrGoalNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other, created.ID), ErrGoalNotFound)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	_, err = svc.Get(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}
