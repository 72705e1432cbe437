package user

import (
	"context"
	defError "errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"scibind/internal/errors"
	"scibind/internal/event"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *User) error
	Login(ctx context.Context, username, password string) (*User, error)
	GetUserByID(ctx context.Context, id uint64) (*User, error)
	IncreaseTokenVersion(ctx context.Context, id uint64) error
	TokenVersion(ctx context.Context, id uint64) (int, error)
	SelectEvents(ctx context.Context, id uint64, eventIDs []uint64) ([]event.Event, error)
	MyEvents(ctx context.Context, id uint64) ([]event.Event, error)
}

// EventFinder resolves event ids for event selection
type EventFinder interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]event.Event, error)
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
	events     EventFinder
}

// NewService creates a new user service
func NewService(repository UserRepository, events EventFinder) *DefaultService {
	return &DefaultService{repository: repository, events: events}
}

// Register registers a new user
func (s *DefaultService) Register(ctx context.Context, user *User) error {
	// Check if username is taken
	_, err := s.repository.FindByUsername(ctx, user.Username)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("User already registered", nil)
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Invalid password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.Password = ""
	user.IsActive = true

	return s.repository.Create(ctx, user)
}

// Login authenticates a user
func (s *DefaultService) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repository.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Unauthorized("Invalid credentials", err)
	}

	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid credentials", err)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(ctx context.Context, id uint64) (*User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("User not found", err)
	}
	return user, err
}

// IncreaseTokenVersion logs the user out everywhere
func (s *DefaultService) IncreaseTokenVersion(ctx context.Context, id uint64) error {
	return s.repository.IncrementTokenVersion(ctx, id)
}

// TokenVersion is read by the auth middleware on every request
func (s *DefaultService) TokenVersion(ctx context.Context, id uint64) (int, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if !user.IsActive {
		return 0, errors.Unauthorized("User is not active", nil)
	}
	return user.TokenVersion, nil
}

// SelectEvents replaces the events the user competes in
func (s *DefaultService) SelectEvents(ctx context.Context, id uint64, eventIDs []uint64) ([]event.Event, error) {
	events, err := s.events.FindByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repository.ReplaceEvents(ctx, id, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *DefaultService) MyEvents(ctx context.Context, id uint64) ([]event.Event, error) {
	events, err := s.repository.Events(ctx, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []event.Event{}
	}
	return events, nil
}
