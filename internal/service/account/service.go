package account

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/app"
	"github.com/oggyb/ecstasy/internal/auth"
	"github.com/oggyb/ecstasy/internal/db"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/repository"
)

// Service handles registration, login and profile/preference CRUD.
// The matching core never calls into here; it shares only the store.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	prefs  *repository.PreferenceRepository
}

// NewService creates the account service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		prefs:  repository.NewPreferenceRepository(appCtx.DB),
	}
}

// RegisterInput is the full signup payload; genres/artists are optional and
// become the initial preference set.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Gender     string
	LookingFor string
	Birthdate  *time.Time
	Genres     []string
	Artists    []string
}

// Register creates a user with an empty profile and the initial preferences.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, svcErr.Validation("name, email and password are required")
	}
	if len(in.Password) < 6 {
		return nil, svcErr.Validation("password must be at least 6 characters")
	}
	if in.LookingFor == "" {
		in.LookingFor = "everyone"
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if existing != nil {
		return nil, svcErr.Conflict("user with this email already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	user := db.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Gender:       in.Gender,
		LookingFor:   in.LookingFor,
		Birthdate:    in.Birthdate,
		Active:       true,
		Profile:      &db.Profile{},
	}

	// The initial preference set goes through the same replace-all path as
	// later updates, so duplicate labels in the signup payload collapse
	// instead of tripping the unique index.
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, &user); err != nil {
			return err
		}
		return repository.NewPreferenceRepository(tx).ReplaceAll(ctx, user.ID, in.Genres, in.Artists)
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("user registered", "id", user.ID, "email", user.Email)
	return &user, nil
}

// LoginResult carries the issued token and its owner.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *db.User
}

// Login verifies credentials and issues an access token. A wrong email and a
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, svcErr.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, svcErr.Forbidden("invalid email or password")
	}

	token, exp, err := s.appCtx.JWT.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	_ = s.users.TouchLastLogin(ctx, user.ID)

	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// GetUser loads a user with profile and preferences.
func (s *Service) GetUser(ctx context.Context, userID uint64) (*db.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return user, nil
}

// UpdateProfile upserts bio/location/avatar for the user.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, bio, location, avatarURL string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !exists {
		return svcErr.NotFound("user not found")
	}
	if err := s.users.SaveProfile(ctx, userID, bio, location, avatarURL); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// GetPreferences returns the user's genre and artist labels.
func (s *Service) GetPreferences(ctx context.Context, userID uint64) (genres, artists []string, err error) {
	items, err := s.prefs.GetByOwner(ctx, userID)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	genres = make([]string, 0)
	artists = make([]string, 0)
	for _, item := range items {
		switch item.Kind {
		case db.PreferenceGenre:
			genres = append(genres, item.Label)
		case db.PreferenceArtist:
			artists = append(artists, item.Label)
		}
	}
	return genres, artists, nil
}

// SetPreferences replaces the whole preference set atomically.
func (s *Service) SetPreferences(ctx context.Context, userID uint64, genres, artists []string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !exists {
		return svcErr.NotFound("user not found")
	}
	if err := s.prefs.ReplaceAll(ctx, userID, genres, artists); err != nil {
		return svcErr.Map(err)
	}
	return nil
}
