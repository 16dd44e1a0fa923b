package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"coachdesk/internal/repository"
	"coachdesk/internal/storage"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrBadContentType  = errors.New("profile icon must be an image")
	ErrUploadURLError  = errors.New("failed to generate upload URL")
)

// ProfileUpdate carries the editable profile fields. Pointer fields
// distinguish "leave unchanged" from "set to empty".
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Age          *int
	Gender       *string
	HealthStatus *string
	Goals        *string
	Biography    *string
}

// IconUploadResult pairs a presigned PUT URL with the object key the client
// reports back once the upload succeeds.
type IconUploadResult struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ProfileService manages account profiles and the S3-backed profile icon.
type ProfileService interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	Update(ctx context.Context, userID primitive.ObjectID, update ProfileUpdate) (*domain.User, error)
	RequestIconUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*IconUploadResult, error)
	ConfirmIconUpload(ctx context.Context, userID primitive.ObjectID, objectKey string) (*domain.User, error)
	IconURL(ctx context.Context, userID primitive.ObjectID) (string, error)
}

// profileService implements the ProfileService interface.
type profileService struct {
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
	cache       ProfileCacheStore
	pub         live.Publisher
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
	cache ProfileCacheStore,
	pub live.Publisher,
) ProfileService {
	return &profileService{userRepo: userRepo, fileStorage: fileStorage, cache: cache, pub: pub}
}

// Get returns the user's own profile.
func (s *profileService) Get(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return user, nil
}

// Update applies the provided fields and invalidates the cached profile so
// counterpart views pick the change up on their next join.
func (s *profileService) Update(ctx context.Context, userID primitive.ObjectID, update ProfileUpdate) (*domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Age != nil {
		user.Age = *update.Age
	}
	if update.Gender != nil {
		user.Gender = *update.Gender
	}
	if update.HealthStatus != nil {
		user.HealthStatus = *update.HealthStatus
	}
	if update.Goals != nil {
		user.Goals = *update.Goals
	}
	if update.Biography != nil {
		user.Biography = *update.Biography
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	s.afterProfileChange(ctx, userID)
	return user, nil
}

// RequestIconUpload hands out a presigned PUT URL for a new profile icon.
func (s *profileService) RequestIconUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*IconUploadResult, error) {
	parts := strings.Split(contentType, "/")
	if len(parts) != 2 || parts[0] != "image" {
		return nil, ErrBadContentType
	}

	objectKey := path.Join("icons", userID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), parts[1]))
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &IconUploadResult{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmIconUpload records the uploaded object key on the profile and deletes
// the previously referenced icon, if any.
func (s *profileService) ConfirmIconUpload(ctx context.Context, userID primitive.ObjectID, objectKey string) (*domain.User, error) {
	if objectKey == "" || !strings.HasPrefix(objectKey, path.Join("icons", userID.Hex())+"/") {
		return nil, errors.New("object key does not belong to this user")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	previous := user.ProfileIcon
	user.ProfileIcon = objectKey
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	if previous != "" && previous != objectKey {
		// Best effort; an orphaned object is not worth failing the update
		_ = s.fileStorage.DeleteObject(ctx, previous)
	}
	s.afterProfileChange(ctx, userID)
	return user, nil
}

// IconURL resolves a short-lived download URL for a user's profile icon.
func (s *profileService) IconURL(ctx context.Context, userID primitive.ObjectID) (string, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.ProfileIcon == "" {
		return "", ErrProfileNotFound
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, user.ProfileIcon, storage.DefaultPresignedURLExpiry)
}

func (s *profileService) afterProfileChange(ctx context.Context, userID primitive.ObjectID) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, userID)
	}
	if s.pub != nil {
		s.pub.Publish(live.TopicUser(userID.Hex()), live.Event{Kind: live.KindChats, ID: userID.Hex()})
	}
}
