package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"coachdesk/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrEmptyReminder    = errors.New("reminder text cannot be empty")
)

// ReminderService manages a user's reminder checklist. Instructor-pushed
// reminders land here through the AssignmentService once accepted.
type ReminderService interface {
	Create(ctx context.Context, ownerID primitive.ObjectID, text string) (*domain.Reminder, error)
	List(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Reminder, error)
	SetCompleted(ctx context.Context, ownerID, reminderID primitive.ObjectID, completed bool) error
	Delete(ctx context.Context, ownerID, reminderID primitive.ObjectID) error
}

// reminderService implements the ReminderService interface.
type reminderService struct {
	reminderRepo repository.ReminderRepository
	pub          live.Publisher
}

// NewReminderService creates a new instance of reminderService.
func NewReminderService(reminderRepo repository.ReminderRepository, pub live.Publisher) ReminderService {
	return &reminderService{reminderRepo: reminderRepo, pub: pub}
}

// Create stores a self-authored reminder, initially not completed.
func (s *reminderService) Create(ctx context.Context, ownerID primitive.ObjectID, text string) (*domain.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReminder
	}

	reminder := &domain.Reminder{
		OwnerID: ownerID,
		Text:    text,
	}
	if _, err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, err
	}
	s.publish(ownerID, reminder.ID.Hex())
	return reminder, nil
}

// List returns the owner's reminders, newest first.
func (s *reminderService) List(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Reminder, error) {
	return s.reminderRepo.GetByOwnerID(ctx, ownerID)
}

// SetCompleted toggles the done flag on an owner's reminder.
func (s *reminderService) SetCompleted(ctx context.Context, ownerID, reminderID primitive.ObjectID, completed bool) error {
	if err := s.reminderRepo.SetCompleted(ctx, reminderID, ownerID, completed); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUpdateFailed) {
			return ErrReminderNotFound
		}
		return err
	}
	s.publish(ownerID, reminderID.Hex())
	return nil
}

// Delete removes an owner's reminder.
func (s *reminderService) Delete(ctx context.Context, ownerID, reminderID primitive.ObjectID) error {
	if err := s.reminderRepo.Delete(ctx, reminderID, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
			return ErrReminderNotFound
		}
		return err
	}
	s.publish(ownerID, reminderID.Hex())
	return nil
}

func (s *reminderService) publish(ownerID primitive.ObjectID, id string) {
	if s.pub != nil {
		s.pub.Publish(live.TopicUser(ownerID.Hex()), live.Event{Kind: live.KindReminders, ID: id})
	}
}
