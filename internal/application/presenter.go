package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
)

// TopK — сколько меток показывать пользователю.
const TopK = 2

const segmentSeparator = " | "

// Render превращает итог классификации в текст и фазу отображения.
// Отсутствующий результат (ошибка) и пустой результат дают отдельные сообщения.
func Render(result *entity.ClassificationResult, err error) (string, entity.UserState) {
	if err != nil || result == nil {
		return entity.DisplayError, entity.StateDisplayedError
	}
	if result.Empty() {
		return entity.DisplayEmpty, entity.StateDisplayedEmpty
	}
	return FormatTop(result.Top(TopK)), entity.StateDisplayedResult
}

// FormatTop форматирует метки как "(0.92), cat | (0.05), dog".
func FormatTop(items []entity.Classification) string {
	segments := make([]string, 0, len(items))
	for _, c := range items {
		segments = append(segments, fmt.Sprintf("(%.2f), %s", c.Confidence, c.Label))
	}
	return strings.Join(segments, segmentSeparator)
}

// Presenter показывает итог классификации. Вызывать только из MainQueue.
type Presenter struct {
	users   *UserService
	display port.Display
	logger  *zap.Logger
}

func NewPresenter(users *UserService, display port.Display, logger *zap.Logger) *Presenter {
	return &Presenter{
		users:   users,
		display: display,
		logger:  logger.Named("presenter"),
	}
}

// ShowAnalysing выводит текст текущей фазы новым сообщением, обычно
// "Analysing...", и запоминает его ID в сессии.
func (p *Presenter) ShowAnalysing(ctx context.Context, user *entity.User) {
	user.MessageID = p.show(ctx, user.ChatID, 0, user.Display)
	if err := p.users.Save(ctx, user); err != nil {
		p.logger.Error("failed to save session", zap.Int64("chat_id", user.ChatID), zap.Error(err))
	}
}

// Present сохраняет итог в сессии чата и показывает его, редактируя
// сообщение с "Analysing...".
func (p *Presenter) Present(ctx context.Context, user *entity.User, result *entity.ClassificationResult, err error) string {
	text, state := Render(result, err)
	user.Show(state, text)
	user.MessageID = p.show(ctx, user.ChatID, user.MessageID, text)
	if saveErr := p.users.Save(ctx, user); saveErr != nil {
		p.logger.Error("failed to save session", zap.Int64("chat_id", user.ChatID), zap.Error(saveErr))
	}
	return text
}

// show возвращает ID показанного сообщения; при ошибке остаётся messageID.
func (p *Presenter) show(ctx context.Context, chatID int64, messageID int, text string) int {
	if p.display == nil {
		return messageID
	}
	id, err := p.display.Show(ctx, chatID, messageID, text)
	if err != nil {
		p.logger.Warn("failed to show text", zap.Int64("chat_id", chatID), zap.Error(err))
		return messageID
	}
	return id
}
