package storage

import (
	"context"
	"sync"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище сессий, по одной на чат
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает сессию чата, создаёт новую если не найдена
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[chatID]
	r.mu.RUnlock()

	if exists {
		return user, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Повторная проверка: сессию мог создать другой вызов
	if user, exists := r.users[chatID]; exists {
		return user, nil
	}

	newUser := entity.NewUser(userID, chatID)
	r.users[chatID] = newUser

	return newUser, nil
}

// Find возвращает сессию чата без создания
func (r *MemoryUserRepository) Find(ctx context.Context, chatID int64) (*entity.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[chatID]
	return user, exists, nil
}

// Save сохраняет состояние сессии
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ChatID] = user
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
