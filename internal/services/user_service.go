package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/chatter-be/internal/apperrors"
	"github.com/isdelr/chatter-be/internal/auth"
	"github.com/isdelr/chatter-be/internal/database"
	"github.com/isdelr/chatter-be/internal/media"
	"github.com/isdelr/chatter-be/internal/models"
	"github.com/patrickmn/go-cache"
)

// Accepted password lengths. bcrypt rejects input longer than 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, fullName, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (models.User, error)
	ListContacts(ctx context.Context, excludingUserID string) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// ProfileUpdate holds the optional fields of a profile update. Nil means unchanged.
type ProfileUpdate struct {
	FullName   *string
	ProfilePic *string // base64 data URI
}

// UserService provides business logic for the user directory.
type UserService struct {
	db    *sql.DB
	media *media.Store
	cache *cache.Cache // user id -> models.User, used by every authenticated request
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, mediaStore *media.Store) *UserService {
	return &UserService{
		db:    db,
		media: mediaStore,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

const userColumns = "id, full_name, email, password_hash, profile_pic, created_at, updated_at"

// Signup validates input, stores a new user with a hashed password and returns it.
func (s *UserService) Signup(ctx context.Context, fullName, email, password string) (models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)

	if fullName == "" || email == "" || password == "" {
		return models.User{}, apperrors.Validation("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperrors.Validation("Invalid email address")
	}
	if len(password) < MinPasswordLength {
		return models.User{}, apperrors.Validation(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return models.User{}, apperrors.Validation(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordLength))
	}

	if _, err := s.getUserByEmail(ctx, email); err == nil {
		return models.User{}, apperrors.Conflict("Email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return models.User{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	now := nowMillis()
	user := models.User{
		ID:           uuid.New().String(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, full_name, email, password_hash, profile_pic, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.FullName, user.Email, user.PasswordHash, user.ProfilePic, user.CreatedAt.UnixMilli(), user.UpdatedAt.UnixMilli())
	if err != nil {
		// Lost a race with a concurrent signup for the same email.
		if database.IsUniqueViolation(err) {
			return models.User{}, apperrors.Conflict("Email already exists")
		}
		return models.User{}, apperrors.Internal(err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, apperrors.Validation("Email and password are required")
	}

	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.User{}, apperrors.Auth("Invalid credentials")
		}
		return models.User{}, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return models.User{}, apperrors.Auth("Invalid credentials")
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached.(models.User), nil
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	s.cache.SetDefault(id, user)
	return user, nil
}

// UpdateProfile changes the display name and/or profile picture of a user.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (models.User, error) {
	if update.FullName == nil && update.ProfilePic == nil {
		return models.User{}, apperrors.Validation("Nothing to update")
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return models.User{}, apperrors.Validation("Full name cannot be empty")
		}
		user.FullName = name
	}

	if update.ProfilePic != nil {
		if *update.ProfilePic == "" {
			return models.User{}, apperrors.Validation("Profile pic is required")
		}
		url, err := s.media.SaveAvatar(id, *update.ProfilePic)
		if err != nil {
			return models.User{}, err
		}
		user.ProfilePic = url
	}

	user.UpdatedAt = nowMillis()
	_, err = s.db.ExecContext(ctx, "UPDATE users SET full_name = ?, profile_pic = ?, updated_at = ? WHERE id = ?",
		user.FullName, user.ProfilePic, user.UpdatedAt.UnixMilli(), id)
	if err != nil {
		s.cache.Delete(id)
		return models.User{}, apperrors.Internal(err)
	}

	s.cache.SetDefault(id, user)
	return user, nil
}

// ListContacts returns every user except the given one, ordered by name.
func (s *UserService) ListContacts(ctx context.Context, excludingUserID string) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id != ? ORDER BY full_name COLLATE NOCASE, id", excludingUserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// CountUsers returns the number of registered users.
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

// getUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) getUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// scanUser is a helper function to scan a single row into a User struct.
func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var createdAt, updatedAt int64
	err := scanner.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.ProfilePic, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperrors.NotFound("User not found")
		}
		return models.User{}, apperrors.Internal(err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	user.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nowMillis returns the current UTC time at the millisecond precision stored in the database.
func nowMillis() time.Time {
	return time.UnixMilli(time.Now().UnixMilli()).UTC()
}
