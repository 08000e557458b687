package port

import "context"

// Display показывает пользователю текущий текст (DisplayState)
type Display interface {
	// Show выводит текст в чат. При messageID == 0 отправляется новое
	// сообщение, иначе редактируется уже показанное. Возвращает ID сообщения.
	Show(ctx context.Context, chatID int64, messageID int, text string) (int, error)
}
