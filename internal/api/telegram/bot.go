package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "classifier-bot/internal/application"
	"classifier-bot/internal/container"
	"classifier-bot/internal/domain/port"
	"classifier-bot/internal/infrastructure/vision"
)

const (
	msgStart = `👋 Привет! Я распознаю, что изображено на фото.

📸 Отправьте мне фото, и я покажу две самые вероятные метки.

📋 Команды:
/check — выбрать источник фото
/help — справка
/cancel — закрыть выбор источника`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Нажмите /check и выберите камеру или галерею
2️⃣ Отправьте фото (можно файлом — тогда учитывается ориентация)
3️⃣ Получите две метки с уверенностью, например "(0.92), cat | (0.05), dog"

📋 Команды:
/check — выбрать источник фото
/cancel — закрыть выбор источника`

	msgChooser        = "Browse image\nChose image source"
	msgCamera         = "📸 Сделайте снимок камерой и отправьте его в чат."
	msgLibrary        = "🖼 Выберите фото из галереи и отправьте его в чат."
	msgSendPhoto      = "📸 Пожалуйста, отправьте фото или нажмите /check."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgDownloadError  = "⚠️ Не удалось получить изображение. Попробуйте ещё раз."
	msgDecodeError    = "⚠️ Этот файл не похож на изображение (поддерживаются JPEG, PNG, GIF, BMP, TIFF)."
	msgTooLarge       = "⚠️ Файл слишком большой, пришлите снимок до 20 МБ."
)

// errFileTooLarge — файл больше предела на скачивание.
var errFileTooLarge = errors.New("file too large")

const (
	callbackCamera  = "source:camera"
	callbackLibrary = "source:library"
	callbackCancel  = "source:cancel"

	// maxDownloadSize — предел Bot API на скачивание файлов.
	maxDownloadSize = 20 << 20
)

// Bot представляет Telegram-бота. Цикл Run — единственная горутина,
// которая меняет состояние чатов.
type Bot struct {
	api         *tgbotapi.BotAPI
	svc         *app.ClassificationService
	main        *app.MainQueue
	client      *http.Client
	maxDownload int64
	logger      *zap.Logger
}

// Connect авторизуется в Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// NewBot создаёт нового бота
func NewBot(api *tgbotapi.BotAPI, c *container.Container, logger *zap.Logger) *Bot {
	logger = logger.Named("telegram")
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:         api,
		svc:         c.ClassificationService,
		main:        c.MainQueue,
		client:      &http.Client{Timeout: time.Minute},
		maxDownload: maxDownloadSize,
		logger:      logger,
	}
}

// Run запускает основной цикл: обновления Telegram и задачи MainQueue
// обрабатываются в одной горутине.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	return b.loop(ctx, updates)
}

// loop разбирает обновления и задачи MainQueue до отмены ctx. После выхода
// очередь закрыта, и завершившиеся классификации не ждут её вечно.
func (b *Bot) loop(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	defer b.main.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		case job := <-b.main.Jobs():
			job()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Фото: берём файл с максимальным разрешением
	if len(msg.Photo) > 0 {
		b.acquire(ctx, msg, msg.Photo[len(msg.Photo)-1].FileID)
		return
	}

	// Фото, отправленное файлом, сохраняет EXIF
	if isImageDocument(msg.Document) {
		b.acquire(ctx, msg, msg.Document.FileID)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		if _, err := b.svc.OpenChooser(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			b.logger.Error("failed to open chooser", zap.Error(err))
			return
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID, msgChooser)
		reply.ReplyMarkup = chooserKeyboard()
		if _, err := b.api.Send(reply); err != nil {
			b.logger.Warn("failed to send chooser", zap.Error(err))
		}

	case "cancel":
		if _, err := b.svc.CancelChooser(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			b.logger.Error("failed to cancel chooser", zap.Error(err))
		}

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает кнопки выбора источника
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	switch q.Data {
	case callbackCamera:
		b.sendMessage(chatID, msgCamera)
	case callbackLibrary:
		b.sendMessage(chatID, msgLibrary)
	case callbackCancel:
		if _, err := b.svc.CancelChooser(ctx, q.From.ID, chatID); err != nil {
			b.logger.Error("failed to cancel chooser", zap.Error(err))
		}
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, q.Message.MessageID)); err != nil {
			b.logger.Warn("failed to remove chooser", zap.Error(err))
		}
	default:
		b.logger.Warn("unknown callback", zap.String("data", q.Data))
	}
}

// acquire скачивает и декодирует снимок вне основного цикла, затем
// возвращается в него, чтобы запустить анализ.
func (b *Bot) acquire(ctx context.Context, msg *tgbotapi.Message, fileID string) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	go func() {
		data, err := b.downloadFile(ctx, fileID)
		if err != nil {
			b.logger.Warn("failed to download photo", zap.Int64("chat_id", chatID), zap.Error(err))
			reply := msgDownloadError
			if errors.Is(err, errFileTooLarge) {
				reply = msgTooLarge
			}
			b.main.Async(func() { b.sendMessage(chatID, reply) })
			return
		}

		img, err := vision.Decode(data)
		if err != nil {
			b.logger.Warn("failed to decode photo", zap.Int64("chat_id", chatID), zap.Error(err))
			b.main.Async(func() { b.sendMessage(chatID, msgDecodeError) })
			return
		}

		b.logger.Debug("image received",
			zap.Int("bytes", len(data)),
			zap.Stringer("orientation", img.Orientation),
		)

		b.main.Async(func() {
			if _, err := b.svc.Analyse(ctx, userID, chatID, img); err != nil {
				b.logger.Error("failed to start analysis", zap.Error(err))
			}
		})
	}()
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if int64(file.FileSize) > b.maxDownload {
		return nil, fmt.Errorf("%w: %d bytes", errFileTooLarge, file.FileSize)
	}

	return b.fetch(ctx, file.Link(b.api.Token))
}

// fetch читает не больше maxDownload байт; файл крупнее — errFileTooLarge.
func (b *Bot) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	if resp.ContentLength > b.maxDownload {
		return nil, fmt.Errorf("%w: %d bytes", errFileTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > b.maxDownload {
		return nil, fmt.Errorf("%w: more than %d bytes", errFileTooLarge, b.maxDownload)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func chooserKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Camera", callbackCamera),
			tgbotapi.NewInlineKeyboardButtonData("Photo Library", callbackLibrary),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", callbackCancel),
		),
	)
}

func isImageDocument(doc *tgbotapi.Document) bool {
	return doc != nil && strings.HasPrefix(doc.MimeType, "image/")
}

// Display показывает DisplayState одним сообщением в чате: "Analysing..."
// отправляется, итог редактирует то же сообщение.
type Display struct {
	api *tgbotapi.BotAPI
}

func NewDisplay(api *tgbotapi.BotAPI) *Display {
	return &Display{api: api}
}

// Show implements port.Display.
func (d *Display) Show(ctx context.Context, chatID int64, messageID int, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return messageID, err
	}

	var c tgbotapi.Chattable = tgbotapi.NewMessage(chatID, text)
	if messageID != 0 {
		c = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}

	sent, err := d.api.Send(c)
	if err != nil {
		return messageID, err
	}
	return sent.MessageID, nil
}

// Проверка реализации интерфейса
var _ port.Display = (*Display)(nil)
