package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	authcontext "github.com/havenforum/haven/auth/context"
	"github.com/havenforum/haven/random"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	userRepo    UserRepository
	sessionRepo SessionRepository
	bloomFilter *BloomFilter
}

func NewService(userRepo UserRepository, sessionRepo SessionRepository) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

// LoadBloomFilter seeds the username filter from storage. The filter is a
// fast path only; registration always confirms against the repository.
func (svc *Service) LoadBloomFilter(ctx context.Context, minCapacity uint, falsePositiveRate float64) error {
	usernames, err := svc.userRepo.ListUsernames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list usernames for bloom filter: %w", err)
	}

	capacity := uint(len(usernames))
	if capacity < minCapacity {
		capacity = minCapacity
	}

	bloomFilter := NewBloomFilter(capacity, falsePositiveRate)
	for _, username := range usernames {
		bloomFilter.Add(username)
	}

	svc.bloomFilter = bloomFilter

	return nil
}

func HashPassword(password string) (string, error) {
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(bcryptHash), nil
}

const recoveryPassphraseWords = 6

// Register creates a user and returns the generated recovery passphrase.
// The passphrase is stored only as a hash, so this is the single time it
// is available in cleartext.
func (svc *Service) Register(ctx context.Context, username, password string) (*User, string, error) {
	usernameTaken := svc.bloomFilter == nil || svc.bloomFilter.MightContain(username)

	if usernameTaken {
		_, err := svc.userRepo.FindByUsername(ctx, username)
		if err != nil {
			var userByUsernameNotFoundErr *UserByUsernameNotFoundError
			if !errors.As(err, &userByUsernameNotFoundErr) {
				return nil, "", fmt.Errorf("failed to check if username already exists: %w", err)
			}
		} else {
			return nil, "", &UserAlreadyExistsError{Username: username}
		}
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	passphrase := random.Passphrase(recoveryPassphraseWords)

	recoveryHash, err := HashPassword(passphrase)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash recovery passphrase: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		RecoveryHash: recoveryHash,
		RegisteredAt: time.Now(),
	}

	err = svc.userRepo.Insert(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	if svc.bloomFilter != nil {
		svc.bloomFilter.Add(username)
	}

	return user, passphrase, nil
}

var ErrInvalidCredentials = errors.New("invalid credentials")

const defaultSessionDuration = 30 * 24 * time.Hour

func (svc *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		var userByUsernameNotFoundErr *UserByUsernameNotFoundError
		if errors.As(err, &userByUsernameNotFoundErr) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	timeNow := time.Now()

	session := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: timeNow,
		ExpiresAt: timeNow.Add(defaultSessionDuration),
	}

	err = svc.sessionRepo.Insert(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// RecoverPassword verifies the recovery passphrase, sets a new password, and
// rotates the passphrase. The new passphrase is returned in cleartext once.
func (svc *Service) RecoverPassword(ctx context.Context, username, passphrase, newPassword string) (string, error) {
	user, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		var userByUsernameNotFoundErr *UserByUsernameNotFoundError
		if errors.As(err, &userByUsernameNotFoundErr) {
			return "", ErrInvalidCredentials
		}

		return "", fmt.Errorf("failed to find user by username: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.RecoveryHash), []byte(passphrase))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidCredentials
		}

		return "", fmt.Errorf("failed to compare recovery passphrase hash: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash new password: %w", err)
	}

	newPassphrase := random.Passphrase(recoveryPassphraseWords)

	recoveryHash, err := HashPassword(newPassphrase)
	if err != nil {
		return "", fmt.Errorf("failed to hash new recovery passphrase: %w", err)
	}

	err = svc.userRepo.UpdateCredentials(ctx, user.ID, passwordHash, recoveryHash)
	if err != nil {
		return "", fmt.Errorf("failed to update credentials: %w", err)
	}

	return newPassphrase, nil
}

func (svc *Service) Logout(ctx context.Context, sessionID string) error {
	err := svc.sessionRepo.Delete(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (svc *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := svc.sessionRepo.Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if session.ExpiresAt.Before(time.Now()) {
		return nil, &SessionExpiredError{ID: sessionID}
	}

	return session, nil
}

func (svc *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := svc.userRepo.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	user.PasswordHash = ""
	user.RecoveryHash = ""

	return user, nil
}

func (svc *Service) GetCurrentUser(ctx context.Context) (*User, error) {
	sub := authcontext.GetSubject(ctx)
	if sub == authcontext.Anonymous {
		return nil, ErrCurrentUserNotFound
	}

	user, err := svc.GetUser(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
