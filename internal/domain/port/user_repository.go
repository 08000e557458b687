package port

import (
	"context"

	"classifier-bot/internal/domain/entity"
)

// UserRepository интерфейс хранилища сессий. Ключ — чат.
type UserRepository interface {
	// Get возвращает сессию чата, создаёт новую если не найдена
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Find возвращает сессию чата без создания
	Find(ctx context.Context, chatID int64) (*entity.User, bool, error)

	// Save сохраняет состояние сессии
	Save(ctx context.Context, user *entity.User) error
}
