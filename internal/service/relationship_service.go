package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"coachdesk/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNotInstructor   = errors.New("user is not an instructor")
	ErrTargetNotUser   = errors.New("target user cannot receive a coaching offer")
	ErrOfferPending    = errors.New("an offer for this pair is already pending")
	ErrAlreadyClient   = errors.New("user is already a client of this instructor")
	ErrNoPendingOffer  = errors.New("no pending offer exists for this pair")
	ErrNotYourClient   = errors.New("user is not a client of this instructor")
	ErrTargetNotFound  = errors.New("target user not found")
	ErrOfferNotForUser = errors.New("offer was not sent by this instructor")
)

// RelationshipService orchestrates the instructor/client lifecycle:
// none -> pending (offer), pending -> accepted (accept),
// pending -> none (decline), accepted -> none (remove).
//
// Each multi-document transition runs inside a single transaction, so the
// relationship record and the client's pending-assignment inbox can never
// disagree after a partial failure.
type RelationshipService interface {
	Offer(ctx context.Context, instructorID, clientID primitive.ObjectID) (*domain.Relationship, error)
	Accept(ctx context.Context, clientID, instructorID primitive.ObjectID) (*domain.Relationship, error)
	Decline(ctx context.Context, clientID, instructorID primitive.ObjectID) error
	Remove(ctx context.Context, instructorID, clientID primitive.ObjectID) error

	// StatusFor returns the relation state for an arbitrary pair, mapping a
	// missing record to RelationNone. Chat banners derive from this.
	StatusFor(ctx context.Context, a, b primitive.ObjectID) (domain.RelationStatus, *domain.Relationship, error)
}

// relationshipService implements the RelationshipService interface.
type relationshipService struct {
	userRepo       repository.UserRepository
	relRepo        repository.RelationshipRepository
	assignmentRepo repository.AssignmentRepository
	tx             repository.TxRunner
	pub            live.Publisher
}

// NewRelationshipService creates a new instance of relationshipService.
func NewRelationshipService(
	userRepo repository.UserRepository,
	relRepo repository.RelationshipRepository,
	assignmentRepo repository.AssignmentRepository,
	tx repository.TxRunner,
	pub live.Publisher,
) RelationshipService {
	return &relationshipService{
		userRepo:       userRepo,
		relRepo:        relRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
		pub:            pub,
	}
}

// Offer creates a pending relationship and places a client-offer in the
// target user's inbox. Both the chat-initiated and the directory-initiated
// variant converge here.
func (s *relationshipService) Offer(ctx context.Context, instructorID, clientID primitive.ObjectID) (*domain.Relationship, error) {
	if instructorID == primitive.NilObjectID || clientID == primitive.NilObjectID {
		return nil, errors.New("instructor ID and client ID are required")
	}

	// 1. Verify roles on both sides.
	instructor, err := s.userRepo.GetByID(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if !instructor.IsInstructor() {
		return nil, ErrNotInstructor
	}
	target, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}
	if target.Role != domain.RoleUser {
		return nil, ErrTargetNotUser
	}

	// 2. Reject if a record for the pair already exists.
	pairID := domain.RelationshipIDFor(instructorID, clientID)
	existing, err := s.relRepo.GetByID(ctx, pairID)
	if err == nil {
		if existing.Status == domain.RelationAccepted {
			return nil, ErrAlreadyClient
		}
		return nil, ErrOfferPending
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 3. Create the relationship record and the inbox entry atomically.
	rel := &domain.Relationship{
		ID:           pairID,
		InstructorID: instructorID,
		ClientID:     clientID,
		Status:       domain.RelationPending,
		OfferedBy:    instructorID,
	}
	assignment := &domain.PendingAssignment{
		ClientID: clientID,
		Type:     domain.AssignmentClientOffer,
		AssignedBy: domain.AssignedBy{
			UID:         instructor.ID,
			Name:        instructor.FullName(),
			ProfileIcon: instructor.ProfileIcon,
		},
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.relRepo.Create(ctx, rel); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrOfferPending
			}
			return err
		}
		if _, err := s.assignmentRepo.Create(ctx, assignment); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrOfferPending
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishPairEvents(instructorID, clientID, rel.ID)
	return rel, nil
}

// Accept moves a pending offer to accepted and clears the inbox entry.
func (s *relationshipService) Accept(ctx context.Context, clientID, instructorID primitive.ObjectID) (*domain.Relationship, error) {
	rel, err := s.pendingFor(ctx, clientID, instructorID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.relRepo.SetStatus(ctx, rel.ID, domain.RelationAccepted); err != nil {
			return err
		}
		return s.assignmentRepo.DeleteOffer(ctx, clientID, instructorID)
	})
	if err != nil {
		return nil, err
	}

	rel.Status = domain.RelationAccepted
	s.publishPairEvents(instructorID, clientID, rel.ID)
	return rel, nil
}

// Decline removes the pending relationship and the inbox entry, returning the
// pair to "none".
func (s *relationshipService) Decline(ctx context.Context, clientID, instructorID primitive.ObjectID) error {
	rel, err := s.pendingFor(ctx, clientID, instructorID)
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.relRepo.Delete(ctx, rel.ID); err != nil {
			return err
		}
		return s.assignmentRepo.DeleteOffer(ctx, clientID, instructorID)
	})
	if err != nil {
		return err
	}

	s.publishPairEvents(instructorID, clientID, rel.ID)
	return nil
}

// Remove ends an accepted relationship. Because chat banners derive from the
// relationship record, deleting it resets the pair everywhere at once; no
// stale "accepted" marker survives anywhere.
func (s *relationshipService) Remove(ctx context.Context, instructorID, clientID primitive.ObjectID) error {
	pairID := domain.RelationshipIDFor(instructorID, clientID)
	rel, err := s.relRepo.GetByID(ctx, pairID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotYourClient
		}
		return err
	}
	if rel.InstructorID != instructorID || rel.Status != domain.RelationAccepted {
		return ErrNotYourClient
	}

	if err := s.relRepo.Delete(ctx, pairID); err != nil {
		return err
	}

	s.publishPairEvents(instructorID, clientID, pairID)
	return nil
}

// StatusFor maps a missing relationship record to RelationNone.
func (s *relationshipService) StatusFor(ctx context.Context, a, b primitive.ObjectID) (domain.RelationStatus, *domain.Relationship, error) {
	rel, err := s.relRepo.GetByID(ctx, domain.RelationshipIDFor(a, b))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.RelationNone, nil, nil
		}
		return domain.RelationNone, nil, err
	}
	return rel.Status, rel, nil
}

// pendingFor loads the pending offer a given instructor sent to the client.
func (s *relationshipService) pendingFor(ctx context.Context, clientID, instructorID primitive.ObjectID) (*domain.Relationship, error) {
	pairID := domain.RelationshipIDFor(instructorID, clientID)
	rel, err := s.relRepo.GetByID(ctx, pairID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPendingOffer
		}
		return nil, err
	}
	if rel.Status != domain.RelationPending {
		return nil, ErrNoPendingOffer
	}
	if rel.ClientID != clientID || rel.InstructorID != instructorID {
		return nil, ErrOfferNotForUser
	}
	return rel, nil
}

// publishPairEvents notifies both sides that their lists changed: the
// instructor's roster, the client's inbox, and the chat banners of both.
func (s *relationshipService) publishPairEvents(instructorID, clientID primitive.ObjectID, pairID string) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(live.TopicUser(instructorID.Hex()), live.Event{Kind: live.KindRoster, ID: pairID})
	s.pub.Publish(live.TopicUser(clientID.Hex()), live.Event{Kind: live.KindInbox, ID: pairID})
	s.pub.Publish(live.TopicUser(instructorID.Hex()), live.Event{Kind: live.KindChats, ID: pairID})
	s.pub.Publish(live.TopicUser(clientID.Hex()), live.Event{Kind: live.KindChats, ID: pairID})
}
