package service

import (
	"coachdesk/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assignmentFixture struct {
	svc            AssignmentService
	relSvc         RelationshipService
	goalRepo       *fakeGoalRepo
	reminderRepo   *fakeReminderRepo
	assignmentRepo *fakeAssignmentRepo
	relRepo        *fakeRelationshipRepo
	instructor     *domain.User
	client         *domain.User
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	instructor := &domain.User{Role: domain.RoleInstructor, FirstName: "Ada", LastName: "Coach", Username: "ada"}
	client := &domain.User{Role: domain.RoleUser, FirstName: "Bo", LastName: "Client", Username: "bo"}
	userRepo := newFakeUserRepo(instructor, client)
	relRepo := newFakeRelationshipRepo()
	assignmentRepo := newFakeAssignmentRepo()
	goalRepo := newFakeGoalRepo()
	reminderRepo := newFakeReminderRepo()
	pub := &recordingPublisher{}
	relSvc := NewRelationshipService(userRepo, relRepo, assignmentRepo, fakeTxRunner{}, pub)
	svc := NewAssignmentService(userRepo, relRepo, assignmentRepo, goalRepo, reminderRepo, relSvc, fakeTxRunner{}, pub)
	return &assignmentFixture{
		svc:            svc,
		relSvc:         relSvc,
		goalRepo:       goalRepo,
		reminderRepo:   reminderRepo,
		assignmentRepo: assignmentRepo,
		relRepo:        relRepo,
		instructor:     instructor,
		client:         client,
	}
}

// establishes an accepted instructor/client pair.
func (f *assignmentFixture) accept(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.relSvc.Offer(ctx, f.instructor.ID, f.client.ID)
	require.NoError(t, err)
	_, err = f.relSvc.Accept(ctx, f.client.ID, f.instructor.ID)
	require.NoError(t, err)
}

func TestPushRequiresAcceptedRelationship(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.PushReminder(ctx, f.instructor.ID, f.client.ID, "Drink water")
	assert.ErrorIs(t, err, ErrNotYourClient)

	_, err = f.relSvc.Offer(ctx, f.instructor.ID, f.client.ID)
	require.NoError(t, err)
	_, err = f.svc.PushReminder(ctx, f.instructor.ID, f.client.ID, "Drink water")
	assert.ErrorIs(t, err, ErrNotYourClient, "pending is not accepted")

	_, err = f.relSvc.Accept(ctx, f.client.ID, f.instructor.ID)
	require.NoError(t, err)
	assignment, err := f.svc.PushReminder(ctx, f.instructor.ID, f.client.ID, "Drink water")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentReminder, assignment.Type)
	assert.Equal(t, "Ada Coach", assignment.AssignedBy.Name)
}

func TestAcceptReminderAssignment(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.accept(t)

	assignment, err := f.svc.PushReminder(ctx, f.instructor.ID, f.client.ID, "Stretch after workout")
	require.NoError(t, err)

	require.NoError(t, f.svc.Accept(ctx, f.client.ID, assignment.ID))

	// The reminder now lives in the client's own list, stamped with the sender.
	reminders, err := f.reminderRepo.GetByOwnerID(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "Stretch after workout", reminders[0].Text)
	assert.False(t, reminders[0].Completed)
	require.NotNil(t, reminders[0].CreatedBy)
	assert.Equal(t, f.instructor.ID, reminders[0].CreatedBy.UID)

	// The inbox entry is gone.
	inbox, _ := f.assignmentRepo.GetByClientID(ctx, f.client.ID)
	assert.Empty(t, inbox)
}

func TestAcceptGoalAssignment(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.accept(t)

	assignment, err := f.svc.PushGoal(ctx, f.instructor.ID, f.client.ID, domain.GoalTemplate{
		Title:    "Morning runs",
		Type:     domain.GoalWorkout,
		Days:     []string{"Mon", "Wed", "Fri"},
		Duration: 4,
		SubTasks: []domain.SubTask{{Name: "Run", Amount: 5, Unit: "km"}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Accept(ctx, f.client.ID, assignment.ID))

	goals, err := f.goalRepo.GetByOwnerID(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Morning runs", goals[0].Title)
	assert.Equal(t, domain.GoalWorkout, goals[0].Type)
	assert.Equal(t, 4, goals[0].Duration)
	assert.False(t, goals[0].StartDate.IsZero(), "goal starts at acceptance time")
	require.NotNil(t, goals[0].CreatedBy)
	assert.Equal(t, f.instructor.ID, goals[0].CreatedBy.UID)

	inbox, _ := f.assignmentRepo.GetByClientID(ctx, f.client.ID)
	assert.Empty(t, inbox)
}

func TestDeclineAssignmentMaterializesNothing(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.accept(t)

	assignment, err := f.svc.PushReminder(ctx, f.instructor.ID, f.client.ID, "Log your meals")
	require.NoError(t, err)

	require.NoError(t, f.svc.Decline(ctx, f.client.ID, assignment.ID))

	reminders, _ := f.reminderRepo.GetByOwnerID(ctx, f.client.ID)
	assert.Empty(t, reminders)
	inbox, _ := f.assignmentRepo.GetByClientID(ctx, f.client.ID)
	assert.Empty(t, inbox)
}

func TestClientOfferResolvedThroughInbox(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	_, err := f.relSvc.Offer(ctx, f.instructor.ID, f.client.ID)
	require.NoError(t, err)

	inbox, err := f.svc.Inbox(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, domain.AssignmentClientOffer, inbox[0].Type)

	// Accepting the inbox card resolves the relationship itself.
	require.NoError(t, f.svc.Accept(ctx, f.client.ID, inbox[0].ID))

	rel, err := f.relRepo.GetByID(ctx, domain.RelationshipIDFor(f.instructor.ID, f.client.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.RelationAccepted, rel.Status)

	remaining, _ := f.svc.Inbox(ctx, f.client.ID)
	assert.Empty(t, remaining)
}

func TestAssignmentOwnershipGuard(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.accept(t)

	assignment, err := f.svc.PushReminder(ctx, f.instructor.ID, f.client.ID, "Hydrate")
	require.NoError(t, err)

	// Another account cannot resolve someone else's inbox entry.
	stranger := f.instructor.ID
	assert.ErrorIs(t, f.svc.Accept(ctx, stranger, assignment.ID), ErrAssignmentNotFound)
	assert.ErrorIs(t, f.svc.Decline(ctx, stranger, assignment.ID), ErrAssignmentNotFound)
}
