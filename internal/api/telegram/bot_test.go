package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classifier-bot/internal/container"
	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/infrastructure/storage"
	"classifier-bot/internal/infrastructure/vision"
)

// apiCall — запрос к Bot API, полученный фейковым сервером.
type apiCall struct {
	method    string
	chatID    string
	messageID string
	text      string
}

// fakeTelegram отвечает на методы Bot API, которые использует бот.
type fakeTelegram struct {
	mu     sync.Mutex
	calls  []apiCall
	nextID int
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	method := path.Base(r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	if method == "getMe" {
		fmt.Fprint(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"bot","username":"test_bot"}}`)
		return
	}

	call := apiCall{
		method:    method,
		chatID:    r.Form.Get("chat_id"),
		messageID: r.Form.Get("message_id"),
		text:      r.Form.Get("text"),
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	if method == "sendMessage" {
		f.nextID++
		call.messageID = strconv.Itoa(f.nextID)
	}
	f.mu.Unlock()

	switch method {
	case "sendMessage", "editMessageText":
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%s,"date":0,"chat":{"id":%s,"type":"private"}}}`,
			call.messageID, call.chatID)
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeTelegram) snapshot() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]apiCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeTelegram) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeTelegram) methods() []string {
	var out []string
	for _, c := range f.snapshot() {
		out = append(out, c.method)
	}
	return out
}

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, buf *entity.PixelBuffer) (*entity.ClassificationResult, error) {
	return entity.NewClassificationResult([]entity.Classification{
		{Label: "cat", Confidence: 0.92},
		{Label: "dog", Confidence: 0.05},
		{Label: "fox", Confidence: 0.03},
	}), nil
}

func (stubClassifier) InputSize() (int, int) {
	return 4, 4
}

func newTestBot(t *testing.T) (*Bot, *fakeTelegram, *container.Container) {
	t.Helper()

	fake := &fakeTelegram{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	api, err := tgbotapi.NewBotAPIWithClient("test-token", server.URL+"/bot%s/%s", server.Client())
	require.NoError(t, err)

	logger := zap.NewNop()
	c := container.New(storage.NewMemoryUserRepository(), vision.NewConverter(), stubClassifier{}, NewDisplay(api), logger)
	return NewBot(api, c, logger), fake, c
}

func testImage() entity.InputImage {
	return entity.NewInputImage(image.NewRGBA(image.Rect(0, 0, 8, 8)), entity.OrientationUp)
}

func commandUpdate(userID, chatID int64, command string) tgbotapi.Update {
	text := "/" + command
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

// presentResult доводит чат до показанного результата, выполняя задачи
// MainQueue в тестовой горутине.
func presentResult(t *testing.T, b *Bot, userID, chatID int64) {
	t.Helper()
	ctx := context.Background()

	_, err := b.svc.Analyse(ctx, userID, chatID, testImage())
	require.NoError(t, err)

	select {
	case job := <-b.main.Jobs():
		job()
	case <-time.After(2 * time.Second):
		t.Fatal("no job queued")
	}
}

func TestBot_LoopRunsMainQueueJobs(t *testing.T) {
	b, fake, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	updates := make(chan tgbotapi.Update)
	errCh := make(chan error, 1)
	go func() { errCh <- b.loop(ctx, updates) }()

	analysed := make(chan error, 1)
	require.True(t, b.main.Async(func() {
		_, err := b.svc.Analyse(ctx, 1, 10, testImage())
		analysed <- err
	}))
	require.NoError(t, <-analysed)

	require.Eventually(t, func() bool { return len(fake.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)

	calls := fake.snapshot()
	require.Equal(t, "sendMessage", calls[0].method)
	require.Equal(t, "10", calls[0].chatID)
	require.Equal(t, "Analysing...", calls[0].text)
	require.Equal(t, "editMessageText", calls[1].method)
	require.Equal(t, "10", calls[1].chatID)
	require.Equal(t, "1", calls[1].messageID)
	require.Equal(t, "(0.92), cat | (0.05), dog", calls[1].text)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	require.False(t, b.main.Async(func() {}))
}

func TestBot_CancelCommandLeavesDisplay(t *testing.T) {
	b, fake, c := newTestBot(t)
	ctx := context.Background()

	presentResult(t, b, 1, 10)
	b.handleUpdate(ctx, commandUpdate(1, 10, "check"))
	fake.reset()

	b.handleUpdate(ctx, commandUpdate(1, 10, "cancel"))
	require.Empty(t, fake.snapshot())

	session, ok, err := c.UserService.Find(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, session.ChoosingSource)
	require.Equal(t, entity.StateDisplayedResult, session.State)
	require.Equal(t, "(0.92), cat | (0.05), dog", session.Display)
}

func TestBot_CancelCallbackLeavesDisplay(t *testing.T) {
	b, fake, c := newTestBot(t)
	ctx := context.Background()

	presentResult(t, b, 1, 10)
	b.handleUpdate(ctx, commandUpdate(1, 10, "check"))
	fake.reset()

	b.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: 10},
		},
		Data: callbackCancel,
	}})

	require.Equal(t, []string{"answerCallbackQuery", "deleteMessage"}, fake.methods())
	require.Equal(t, "7", fake.snapshot()[1].messageID)

	session, ok, err := c.UserService.Find(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, session.ChoosingSource)
	require.Equal(t, "(0.92), cat | (0.05), dog", session.Display)
}

func TestBot_FetchRejectsOversizedFile(t *testing.T) {
	const limit = 16

	cases := []struct {
		name    string
		size    int
		chunked bool
		tooBig  bool
	}{
		{"at limit", limit, false, false},
		{"over limit", limit + 1, false, true},
		{"over limit without length", 4 * limit, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := bytes.Repeat([]byte{0xff}, tc.size)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.chunked {
					// Flush до записи тела: ответ уходит без Content-Length
					w.WriteHeader(http.StatusOK)
					w.(http.Flusher).Flush()
				}
				_, _ = w.Write(body)
			}))
			defer server.Close()

			b := &Bot{client: server.Client(), maxDownload: limit, logger: zap.NewNop()}
			data, err := b.fetch(context.Background(), server.URL)
			if tc.tooBig {
				require.ErrorIs(t, err, errFileTooLarge)
				require.Nil(t, data)
				return
			}
			require.NoError(t, err)
			require.Equal(t, body, data)
		})
	}
}

func TestChooserKeyboard(t *testing.T) {
	kb := chooserKeyboard()
	require.Len(t, kb.InlineKeyboard, 2)

	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			require.NotNil(t, btn.CallbackData)
			data = append(data, *btn.CallbackData)
		}
	}
	require.Equal(t, []string{callbackCamera, callbackLibrary, callbackCancel}, data)
}

func TestIsImageDocument(t *testing.T) {
	require.False(t, isImageDocument(nil))
	require.False(t, isImageDocument(&tgbotapi.Document{MimeType: "application/pdf"}))
	require.True(t, isImageDocument(&tgbotapi.Document{MimeType: "image/jpeg"}))
}
