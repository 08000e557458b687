package app

import (
	"context"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
)

// UserService управляет сессиями чатов.
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// Find возвращает сессию чата, не создавая новую.
func (s *UserService) Find(ctx context.Context, chatID int64) (*entity.User, bool, error) {
	return s.repo.Find(ctx, chatID)
}

func (s *UserService) Save(ctx context.Context, user *entity.User) error {
	return s.repo.Save(ctx, user)
}

// BeginCheck открывает выбор источника снимка.
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, (*entity.User).OpenChooser)
}

// Cancel закрывает выбор источника, не трогая показанный текст.
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, (*entity.User).CloseChooser)
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, fn func(*entity.User)) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	fn(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
