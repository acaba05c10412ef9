package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/db"
)

// UserRepository provides data access for users and their profiles.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID loads a user with profile and preferences. gorm.ErrRecordNotFound
// bubbles up for the error mapper to turn into NotFound.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Preferences").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail loads a user by email for login; nil when unknown.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists is a cheap existence probe used before writing edges/messages.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Create inserts a user together with its owned profile/preferences.
func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// TouchLastLogin stamps a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// SaveProfile upserts the user's profile row.
func (r *UserRepository) SaveProfile(ctx context.Context, userID uint64, bio, location, avatarURL string) error {
	var profile db.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = db.Profile{UserID: userID, Bio: bio, Location: location, AvatarURL: avatarURL}
		return r.db.WithContext(ctx).Create(&profile).Error
	}
	if err != nil {
		return err
	}
	profile.Bio = bio
	profile.Location = location
	profile.AvatarURL = avatarURL
	return r.db.WithContext(ctx).Save(&profile).Error
}

// ListCandidates returns every user visible to the requester's discovery feed.
//
// Behavior:
//   - Excludes the requester itself.
//   - Excludes anyone the requester already decided on (outgoing LikeEdge),
//     regardless of match state.
//   - Applies the gender filter when the requester's looking_for narrows it.
//   - Profiles and preferences are preloaded; scoring happens in the service.
func (r *UserRepository) ListCandidates(ctx context.Context, requester *db.User) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Preferences").
		Where("users.id <> ?", requester.ID).
		Where(`NOT EXISTS (
			SELECT 1 FROM like_edges le
			WHERE le.from_id = ? AND le.to_id = users.id
		)`, requester.ID)

	switch requester.LookingFor {
	case "men":
		query = query.Where("gender = ?", "male")
	case "women":
		query = query.Where("gender = ?", "female")
	}

	var users []db.User
	err := query.Order("users.id ASC").Find(&users).Error
	return users, err
}

// GetBasics loads display fields for a set of user ids, keyed by id.
func (r *UserRepository) GetBasics(ctx context.Context, ids []uint64) (map[uint64]db.User, error) {
	out := make(map[uint64]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
