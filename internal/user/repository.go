package user

import (
	"context"

	"gorm.io/gorm"

	"scibind/internal/event"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id uint64) (*User, error)
	IncrementTokenVersion(ctx context.Context, id uint64) error
	ReplaceEvents(ctx context.Context, id uint64, events []event.Event) error
	Events(ctx context.Context, id uint64) ([]event.Event, error)
}

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByUsername finds a user by username
func (r *UserRepositoryImpl) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID finds a user by ID
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint64) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IncrementTokenVersion revokes every token issued so far
func (r *UserRepositoryImpl) IncrementTokenVersion(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).Error
}

func (r *UserRepositoryImpl) ReplaceEvents(ctx context.Context, id uint64, events []event.Event) error {
	return r.db.WithContext(ctx).Model(&User{ID: id}).Association("Events").Replace(events)
}

func (r *UserRepositoryImpl) Events(ctx context.Context, id uint64) ([]event.Event, error) {
	var events []event.Event
	err := r.db.WithContext(ctx).Model(&User{ID: id}).Association("Events").Find(&events)
	return events, err
}
