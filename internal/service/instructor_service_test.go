package service

import (
	"coachdesk/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instructorFixture struct {
	svc        InstructorService
	relSvc     RelationshipService
	instructor *domain.User
	clients    []*domain.User
}

func newInstructorFixture(t *testing.T) *instructorFixture {
	t.Helper()
	instructor := &domain.User{Role: domain.RoleInstructor, FirstName: "Ada", LastName: "Coach", Username: "ada"}
	bo := &domain.User{Role: domain.RoleUser, FirstName: "Bo", LastName: "Client", Username: "bo"}
	cy := &domain.User{Role: domain.RoleUser, FirstName: "Cy", LastName: "Runner", Username: "cy"}
	di := &domain.User{Role: domain.RoleUser, FirstName: "Di", LastName: "Lifter", Username: "di"}

	userRepo := newFakeUserRepo(instructor, bo, cy, di)
	relRepo := newFakeRelationshipRepo()
	assignmentRepo := newFakeAssignmentRepo()
	pub := &recordingPublisher{}

	return &instructorFixture{
		svc:        NewInstructorService(userRepo, relRepo, nil),
		relSvc:     NewRelationshipService(userRepo, relRepo, assignmentRepo, fakeTxRunner{}, pub),
		instructor: instructor,
		clients:    []*domain.User{bo, cy, di},
	}
}

func (f *instructorFixture) offerAndAccept(t *testing.T, client *domain.User) {
	t.Helper()
	ctx := context.Background()
	_, err := f.relSvc.Offer(ctx, f.instructor.ID, client.ID)
	require.NoError(t, err)
	_, err = f.relSvc.Accept(ctx, client.ID, f.instructor.ID)
	require.NoError(t, err)
}

func TestRoster(t *testing.T) {
	f := newInstructorFixture(t)
	ctx := context.Background()
	bo, cy := f.clients[0], f.clients[1]

	f.offerAndAccept(t, bo)
	_, err := f.relSvc.Offer(ctx, f.instructor.ID, cy.ID)
	require.NoError(t, err)

	roster, err := f.svc.Roster(ctx, f.instructor.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	byUsername := make(map[string]RosterEntry, len(roster))
	for _, entry := range roster {
		byUsername[entry.Client.Username] = entry
	}

	accepted := byUsername["bo"]
	assert.Equal(t, domain.RelationAccepted, accepted.Status)
	assert.Equal(t, domain.ChatIDFor(f.instructor.ID, bo.ID), accepted.ChatID)

	pending := byUsername["cy"]
	assert.Equal(t, domain.RelationPending, pending.Status)
}

func TestRosterRequiresInstructor(t *testing.T) {
	f := newInstructorFixture(t)
	bo := f.clients[0]

	_, err := f.svc.Roster(context.Background(), bo.ID)
	assert.ErrorIs(t, err, ErrNotInstructor)
}

func TestSuggestedClients(t *testing.T) {
	f := newInstructorFixture(t)
	ctx := context.Background()
	bo := f.clients[0]

	f.offerAndAccept(t, bo)

	suggestions, err := f.svc.SuggestedClients(ctx, f.instructor.ID)
	require.NoError(t, err)

	// Everyone with the user role except clients already on the roster.
	usernames := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		usernames = append(usernames, s.Username)
	}
	assert.ElementsMatch(t, []string{"cy", "di"}, usernames)
}

func TestSearchByUsername(t *testing.T) {
	f := newInstructorFixture(t)
	ctx := context.Background()

	view, err := f.svc.SearchByUsername(ctx, "bo")
	require.NoError(t, err)
	assert.Equal(t, f.clients[0].ID.Hex(), view.UID)
	assert.Equal(t, "Bo", view.FirstName)

	_, err = f.svc.SearchByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = f.svc.SearchByUsername(ctx, "   ")
	assert.ErrorIs(t, err, ErrTargetNotFound)
}
