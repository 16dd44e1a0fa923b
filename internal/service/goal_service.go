package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"coachdesk/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrGoalNotFound     = errors.New("goal not found")
	ErrDayNotScheduled  = errors.New("today is not a scheduled day for this goal")
	ErrGoalFinished     = errors.New("goal duration has already elapsed")
	ErrAlreadyCompleted = errors.New("today's session is already marked complete")
)

// GoalService manages a user's workout and diet goals. Self-created goals
// start immediately; instructor-assigned goals arrive through the
// AssignmentService and carry a createdBy stamp.
type GoalService interface {
	Create(ctx context.Context, ownerID primitive.ObjectID, template domain.GoalTemplate) (*domain.Goal, error)
	List(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Goal, error)
	Get(ctx context.Context, ownerID, goalID primitive.ObjectID) (*domain.Goal, error)
	CompleteToday(ctx context.Context, ownerID, goalID primitive.ObjectID) (*domain.Goal, error)
	Delete(ctx context.Context, ownerID, goalID primitive.ObjectID) error
}

// goalService implements the GoalService interface.
type goalService struct {
	goalRepo repository.GoalRepository
	pub      live.Publisher
	now      func() time.Time // swappable in tests
}

// NewGoalService creates a new instance of goalService.
func NewGoalService(goalRepo repository.GoalRepository, pub live.Publisher) GoalService {
	return &goalService{goalRepo: goalRepo, pub: pub, now: time.Now}
}

// Create stores a self-authored goal starting now.
func (s *goalService) Create(ctx context.Context, ownerID primitive.ObjectID, template domain.GoalTemplate) (*domain.Goal, error) {
	if template.Title == "" || len(template.Days) == 0 || template.Duration <= 0 {
		return nil, errors.New("goal requires title, days, and duration")
	}
	if template.Type != domain.GoalWorkout && template.Type != domain.GoalDiet {
		return nil, errors.New("goal type must be workout or diet")
	}

	goal := &domain.Goal{
		OwnerID:  ownerID,
		Title:    template.Title,
		Type:     template.Type,
		Days:     template.Days,
		Duration: template.Duration,
		SubTasks: template.SubTasks,
	}
	if _, err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}
	s.publish(ownerID, goal.ID.Hex())
	return goal, nil
}

// List returns the owner's goals, newest first.
func (s *goalService) List(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Goal, error) {
	return s.goalRepo.GetByOwnerID(ctx, ownerID)
}

// Get fetches a single goal, scoped to its owner.
func (s *goalService) Get(ctx context.Context, ownerID, goalID primitive.ObjectID) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if goal.OwnerID != ownerID {
		return nil, ErrGoalNotFound
	}
	return goal, nil
}

// CompleteToday marks the current day of the current week done. Marking the
// same day twice is rejected, so progress can only ever count a session once.
func (s *goalService) CompleteToday(ctx context.Context, ownerID, goalID primitive.ObjectID) (*domain.Goal, error) {
	goal, err := s.Get(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	day := domain.WeekdayTag(now)
	if !goal.IsScheduledOn(day) {
		return nil, ErrDayNotScheduled
	}
	week := goal.CurrentWeek(now)
	if week > goal.Duration {
		return nil, ErrGoalFinished
	}

	key := domain.ProgressKey(week, day)
	if err := s.goalRepo.MarkDayComplete(ctx, goalID, ownerID, key); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, ErrAlreadyCompleted
		}
		return nil, err
	}

	if goal.WeeklyProgress == nil {
		goal.WeeklyProgress = make(map[string]bool)
	}
	goal.WeeklyProgress[key] = true
	s.publish(ownerID, goal.ID.Hex())
	return goal, nil
}

// Delete removes an owner's goal.
func (s *goalService) Delete(ctx context.Context, ownerID, goalID primitive.ObjectID) error {
	if err := s.goalRepo.Delete(ctx, goalID, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
			return ErrGoalNotFound
		}
		return err
	}
	s.publish(ownerID, goalID.Hex())
	return nil
}

func (s *goalService) publish(ownerID primitive.ObjectID, id string) {
	if s.pub != nil {
		s.pub.Publish(live.TopicUser(ownerID.Hex()), live.Event{Kind: live.KindGoals, ID: id})
	}
}
