package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investment_tracker/internal/metrics"
	"investment_tracker/internal/model"
	"investment_tracker/internal/repository"
	"investment_tracker/internal/sms"

	"github.com/google/uuid"
)

// UserService defines operations for investors
type UserService interface {
	Register(ctx context.Context, req model.UserRequest) (*model.User, sms.Result, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id string, req model.UserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo   repository.UserRepository
	sender sms.Sender
}

// NewUserService creates a new UserService
func NewUserService(repo repository.UserRepository, sender sms.Sender) UserService {
	return &userService{repo: repo, sender: sender}
}

func normalizeUser(req model.UserRequest) (model.User, error) {
	user := model.User{
		Name:   strings.TrimSpace(req.Name),
		Mobile: strings.TrimSpace(req.Mobile),
	}
	if user.Name == "" || user.Mobile == "" {
		return user, invalid("name and mobile number are required")
	}
	if req.Email != nil {
		if email := strings.TrimSpace(*req.Email); email != "" {
			user.Email = &email
		}
	}
	return user, nil
}

// Register stores a new user and sends the welcome SMS
func (s *userService) Register(ctx context.Context, req model.UserRequest) (*model.User, sms.Result, error) {
	user, err := normalizeUser(req)
	if err != nil {
		return nil, sms.Result{}, err
	}
	user.ID = uuid.NewString()

	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, sms.Result{}, fmt.Errorf("failed to create user in repo: %w", err)
	}

	welcome := fmt.Sprintf("Welcome to Investment Tracker, %s! You have been successfully registered.", user.Name)
	return &user, notify(ctx, s.sender, metrics.KindWelcome, user.Mobile, welcome), nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users from repo: %w", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req model.UserRequest) (*model.User, error) {
	user, err := normalizeUser(req)
	if err != nil {
		return nil, err
	}
	user.ID = id

	if err := s.repo.Update(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user in repo: %w", err)
	}
	return &user, nil
}

// DeleteUser removes the user together with all of its investments
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user in repo: %w", err)
	}
	return nil
}
