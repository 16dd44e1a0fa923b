package service

import (
	"coachdesk/internal/domain"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFileStorage records storage calls instead of talking to S3.
type fakeFileStorage struct {
	uploadKeys []string
	deleted    []string
}

func (f *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, contentType string, _ time.Duration) (string, error) {
	f.uploadKeys = append(f.uploadKeys, objectKey)
	return "https://bucket.example.com/upload/" + objectKey, nil
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://bucket.example.com/download/" + objectKey, nil
}

func (f *fakeFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func newProfileFixture(t *testing.T) (ProfileService, *fakeUserRepo, *fakeFileStorage, *domain.User) {
	t.Helper()
	user := &domain.User{Role: domain.RoleUser, FirstName: "Bo", LastName: "Client", Username: "bo", Age: 28}
	userRepo := newFakeUserRepo(user)
	files := &fakeFileStorage{}
	svc := NewProfileService(userRepo, files, nil, nil)
	return svc, userRepo, files, user
}

func TestProfileUpdatePartialFields(t *testing.T) {
	svc, _, _, user := newProfileFixture(t)
	ctx := context.Background()

	firstName := "  Robert "
	goals := "run a marathon"
	updated, err := svc.Update(ctx, user.ID, ProfileUpdate{FirstName: &firstName, Goals: &goals})
	require.NoError(t, err)

	assert.Equal(t, "Robert", updated.FirstName, "names are trimmed")
	assert.Equal(t, "run a marathon", updated.Goals)
	// Untouched fields survive a partial update.
	assert.Equal(t, "Client", updated.LastName)
	assert.Equal(t, 28, updated.Age)

	stored, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", stored.FirstName)
}

func TestRequestIconUpload(t *testing.T) {
	svc, _, files, user := newProfileFixture(t)
	ctx := context.Background()

	result, err := svc.RequestIconUpload(ctx, user.ID, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ObjectKey, "icons/"+user.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(result.ObjectKey, ".png"))
	assert.Contains(t, result.UploadURL, result.ObjectKey)
	require.Len(t, files.uploadKeys, 1)

	_, err = svc.RequestIconUpload(ctx, user.ID, "application/pdf")
	assert.ErrorIs(t, err, ErrBadContentType)
}

func TestConfirmIconUpload(t *testing.T) {
	svc, _, files, user := newProfileFixture(t)
	ctx := context.Background()

	first := "icons/" + user.ID.Hex() + "/one.png"
	updated, err := svc.ConfirmIconUpload(ctx, user.ID, first)
	require.NoError(t, err)
	assert.Equal(t, first, updated.ProfileIcon)
	assert.Empty(t, files.deleted)

	// Replacing the icon deletes the previous object.
	second := "icons/" + user.ID.Hex() + "/two.png"
	updated, err = svc.ConfirmIconUpload(ctx, user.ID, second)
	require.NoError(t, err)
	assert.Equal(t, second, updated.ProfileIcon)
	assert.Equal(t, []string{first}, files.deleted)

	t.Run("foreign object key rejected", func(t *testing.T) {
		_, err := svc.ConfirmIconUpload(ctx, user.ID, "icons/someone-else/steal.png")
		assert.Error(t, err)
	})
}

func TestIconURL(t *testing.T) {
	svc, _, _, user := newProfileFixture(t)
	ctx := context.Background()

	// No icon yet.
	_, err := svc.IconURL(ctx, user.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	key := "icons/" + user.ID.Hex() + "/one.png"
	_, err = svc.ConfirmIconUpload(ctx, user.ID, key)
	require.NoError(t, err)

	url, err := svc.IconURL(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example.com/download/"+key, url)
}
