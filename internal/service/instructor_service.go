package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RosterEntry is one client row on an instructor's dashboard: the client's
// profile joined with the authoritative relationship record.
type RosterEntry struct {
	Client ParticipantView       `json:"client"`
	Status domain.RelationStatus `json:"status"`
	ChatID string                `json:"chatId"`
}

// InstructorService serves the instructor dashboard: the current roster,
// suggested new clients, and the user directory search.
type InstructorService interface {
	Roster(ctx context.Context, instructorID primitive.ObjectID) ([]RosterEntry, error)
	SuggestedClients(ctx context.Context, instructorID primitive.ObjectID) ([]ParticipantView, error)
	SearchByUsername(ctx context.Context, username string) (*ParticipantView, error)
}

// instructorService implements the InstructorService interface.
type instructorService struct {
	userRepo repository.UserRepository
	relRepo  repository.RelationshipRepository
	profiles *profileLookup
}

// NewInstructorService creates a new instance of instructorService.
func NewInstructorService(
	userRepo repository.UserRepository,
	relRepo repository.RelationshipRepository,
	profileCache ProfileCacheStore,
) InstructorService {
	return &instructorService{
		userRepo: userRepo,
		relRepo:  relRepo,
		profiles: &profileLookup{userRepo: userRepo, cache: profileCache},
	}
}

// Roster lists the instructor's clients, pending offers included. Client
// profiles are fetched in one batched lookup rather than per-row.
func (s *instructorService) Roster(ctx context.Context, instructorID primitive.ObjectID) ([]RosterEntry, error) {
	if err := s.requireInstructor(ctx, instructorID); err != nil {
		return nil, err
	}

	rels, err := s.relRepo.GetByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return []RosterEntry{}, nil
	}

	clientIDs := make([]primitive.ObjectID, 0, len(rels))
	for _, rel := range rels {
		clientIDs = append(clientIDs, rel.ClientID)
	}
	profiles, err := s.profiles.GetProfiles(ctx, clientIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]RosterEntry, 0, len(rels))
	for _, rel := range rels {
		client, ok := profiles[rel.ClientID]
		if !ok {
			continue // Account deleted since the relationship was made
		}
		entries = append(entries, RosterEntry{
			Client: participantViewOf(&client),
			Status: rel.Status,
			ChatID: rel.ID,
		})
	}
	return entries, nil
}

// SuggestedClients lists users the instructor has no relationship with yet.
func (s *instructorService) SuggestedClients(ctx context.Context, instructorID primitive.ObjectID) ([]ParticipantView, error) {
	if err := s.requireInstructor(ctx, instructorID); err != nil {
		return nil, err
	}

	rels, err := s.relRepo.GetByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	taken := make(map[primitive.ObjectID]struct{}, len(rels))
	for _, rel := range rels {
		taken[rel.ClientID] = struct{}{}
	}

	users, err := s.userRepo.GetByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	suggestions := make([]ParticipantView, 0, len(users))
	for i := range users {
		if users[i].ID == instructorID {
			continue
		}
		if _, ok := taken[users[i].ID]; ok {
			continue
		}
		suggestions = append(suggestions, participantViewOf(&users[i]))
	}
	return suggestions, nil
}

// SearchByUsername looks a user up by exact username.
func (s *instructorService) SearchByUsername(ctx context.Context, username string) (*ParticipantView, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrTargetNotFound
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}
	view := participantViewOf(user)
	return &view, nil
}

func (s *instructorService) requireInstructor(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsInstructor() {
		return ErrNotInstructor
	}
	return nil
}
