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
	ErrAssignmentNotFound = errors.New("pending assignment not found")
	ErrInvalidPayload     = errors.New("assignment payload does not match its type")
)

// AssignmentService covers the propose/materialize-or-discard flow: an
// instructor pushes a reminder or goal template into an accepted client's
// inbox; the client accepts (payload copied into their own collection with a
// createdBy stamp, inbox entry deleted, one transaction) or declines (inbox
// entry deleted, nothing materialized).
//
// Client-offer assignments are part of the relationship lifecycle and are
// delegated to the RelationshipService, so both entry points (chat banner and
// inbox card) resolve an offer identically.
type AssignmentService interface {
	PushReminder(ctx context.Context, instructorID, clientID primitive.ObjectID, text string) (*domain.PendingAssignment, error)
	PushGoal(ctx context.Context, instructorID, clientID primitive.ObjectID, template domain.GoalTemplate) (*domain.PendingAssignment, error)
	Inbox(ctx context.Context, clientID primitive.ObjectID) ([]domain.PendingAssignment, error)
	Accept(ctx context.Context, clientID, assignmentID primitive.ObjectID) error
	Decline(ctx context.Context, clientID, assignmentID primitive.ObjectID) error
}

// assignmentService implements the AssignmentService interface.
type assignmentService struct {
	userRepo       repository.UserRepository
	relRepo        repository.RelationshipRepository
	assignmentRepo repository.AssignmentRepository
	goalRepo       repository.GoalRepository
	reminderRepo   repository.ReminderRepository
	relSvc         RelationshipService
	tx             repository.TxRunner
	pub            live.Publisher
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	userRepo repository.UserRepository,
	relRepo repository.RelationshipRepository,
	assignmentRepo repository.AssignmentRepository,
	goalRepo repository.GoalRepository,
	reminderRepo repository.ReminderRepository,
	relSvc RelationshipService,
	tx repository.TxRunner,
	pub live.Publisher,
) AssignmentService {
	return &assignmentService{
		userRepo:       userRepo,
		relRepo:        relRepo,
		assignmentRepo: assignmentRepo,
		goalRepo:       goalRepo,
		reminderRepo:   reminderRepo,
		relSvc:         relSvc,
		tx:             tx,
		pub:            pub,
	}
}

// PushReminder proposes a free-text reminder to a client.
func (s *assignmentService) PushReminder(ctx context.Context, instructorID, clientID primitive.ObjectID, text string) (*domain.PendingAssignment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("reminder text cannot be empty")
	}
	return s.push(ctx, instructorID, clientID, domain.AssignmentReminder, &domain.AssignmentPayload{Text: text})
}

// PushGoal proposes a full goal template to a client.
func (s *assignmentService) PushGoal(ctx context.Context, instructorID, clientID primitive.ObjectID, template domain.GoalTemplate) (*domain.PendingAssignment, error) {
	if template.Title == "" || template.Type == "" || len(template.Days) == 0 || template.Duration <= 0 {
		return nil, errors.New("goal template requires title, type, days, and duration")
	}
	return s.push(ctx, instructorID, clientID, domain.AssignmentGoal, &domain.AssignmentPayload{Goal: &template})
}

// push verifies the instructor/client pair and writes the inbox entry.
func (s *assignmentService) push(ctx context.Context, instructorID, clientID primitive.ObjectID, typ domain.AssignmentType, payload *domain.AssignmentPayload) (*domain.PendingAssignment, error) {
	instructor, err := s.userRepo.GetByID(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if !instructor.IsInstructor() {
		return nil, ErrNotInstructor
	}

	// Only accepted clients receive assignments.
	rel, err := s.relRepo.GetByID(ctx, domain.RelationshipIDFor(instructorID, clientID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotYourClient
		}
		return nil, err
	}
	if rel.InstructorID != instructorID || rel.Status != domain.RelationAccepted {
		return nil, ErrNotYourClient
	}

	assignment := &domain.PendingAssignment{
		ClientID: clientID,
		Type:     typ,
		AssignedBy: domain.AssignedBy{
			UID:         instructor.ID,
			Name:        instructor.FullName(),
			ProfileIcon: instructor.ProfileIcon,
		},
		Payload: payload,
	}
	if _, err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	if s.pub != nil {
		s.pub.Publish(live.TopicUser(clientID.Hex()), live.Event{Kind: live.KindInbox, ID: assignment.ID.Hex()})
	}
	return assignment, nil
}

// Inbox lists a user's pending assignments, newest first.
func (s *assignmentService) Inbox(ctx context.Context, clientID primitive.ObjectID) ([]domain.PendingAssignment, error) {
	return s.assignmentRepo.GetByClientID(ctx, clientID)
}

// Accept materializes the assignment payload and deletes the inbox entry in
// one transaction, so no acceptance can silently drop its payload.
func (s *assignmentService) Accept(ctx context.Context, clientID, assignmentID primitive.ObjectID) error {
	assignment, err := s.loadOwn(ctx, clientID, assignmentID)
	if err != nil {
		return err
	}

	switch assignment.Type {
	case domain.AssignmentClientOffer:
		_, err = s.relSvc.Accept(ctx, clientID, assignment.AssignedBy.UID)
		return err

	case domain.AssignmentReminder:
		if assignment.Payload == nil || assignment.Payload.Text == "" {
			return ErrInvalidPayload
		}
		reminder := &domain.Reminder{
			OwnerID:   clientID,
			Text:      assignment.Payload.Text,
			CreatedBy: &assignment.AssignedBy,
		}
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.reminderRepo.Create(ctx, reminder); err != nil {
				return err
			}
			return s.assignmentRepo.Delete(ctx, assignmentID, clientID)
		})
		if err != nil {
			return err
		}
		s.publishResolved(clientID, live.KindReminders, reminder.ID.Hex())
		return nil

	case domain.AssignmentGoal:
		if assignment.Payload == nil || assignment.Payload.Goal == nil {
			return ErrInvalidPayload
		}
		t := assignment.Payload.Goal
		goal := &domain.Goal{
			OwnerID:   clientID,
			Title:     t.Title,
			Type:      t.Type,
			Days:      t.Days,
			Duration:  t.Duration,
			SubTasks:  t.SubTasks,
			CreatedBy: &assignment.AssignedBy,
			// StartDate defaults to acceptance time in the repository
		}
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.goalRepo.Create(ctx, goal); err != nil {
				return err
			}
			return s.assignmentRepo.Delete(ctx, assignmentID, clientID)
		})
		if err != nil {
			return err
		}
		s.publishResolved(clientID, live.KindGoals, goal.ID.Hex())
		return nil

	default:
		return ErrInvalidPayload
	}
}

// Decline deletes the inbox entry without materializing anything.
func (s *assignmentService) Decline(ctx context.Context, clientID, assignmentID primitive.ObjectID) error {
	assignment, err := s.loadOwn(ctx, clientID, assignmentID)
	if err != nil {
		return err
	}

	if assignment.Type == domain.AssignmentClientOffer {
		return s.relSvc.Decline(ctx, clientID, assignment.AssignedBy.UID)
	}

	if err := s.assignmentRepo.Delete(ctx, assignmentID, clientID); err != nil {
		return err
	}
	if s.pub != nil {
		s.pub.Publish(live.TopicUser(clientID.Hex()), live.Event{Kind: live.KindInbox, ID: assignmentID.Hex()})
	}
	return nil
}

// loadOwn fetches an assignment and verifies it sits in the caller's inbox.
func (s *assignmentService) loadOwn(ctx context.Context, clientID, assignmentID primitive.ObjectID) (*domain.PendingAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.ClientID != clientID {
		return nil, ErrAssignmentNotFound // Do not leak other inboxes
	}
	return assignment, nil
}

func (s *assignmentService) publishResolved(clientID primitive.ObjectID, kind, id string) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(live.TopicUser(clientID.Hex()), live.Event{Kind: kind, ID: id})
	s.pub.Publish(live.TopicUser(clientID.Hex()), live.Event{Kind: live.KindInbox, ID: id})
}
