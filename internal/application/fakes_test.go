package app

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"classifier-bot/internal/domain/entity"
)

type fakeConverter struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeConverter) Convert(img entity.InputImage, width, height int) (*entity.PixelBuffer, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return entity.NewPixelBuffer(width, height), nil
}

type fakeClassifier struct {
	result *entity.ClassificationResult
	err    error
	panics bool
}

func (f *fakeClassifier) Classify(ctx context.Context, buf *entity.PixelBuffer) (*entity.ClassificationResult, error) {
	if f.panics {
		panic("model exploded")
	}
	return f.result, f.err
}

func (f *fakeClassifier) InputSize() (int, int) {
	return 4, 4
}

type shownText struct {
	chatID    int64
	messageID int
	edit      bool
	text      string
}

type recordingDisplay struct {
	mu     sync.Mutex
	shown  []shownText
	nextID int
}

func (d *recordingDisplay) Show(ctx context.Context, chatID int64, messageID int, text string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	edit := messageID != 0
	if !edit {
		d.nextID++
		messageID = d.nextID
	}
	d.shown = append(d.shown, shownText{chatID: chatID, messageID: messageID, edit: edit, text: text})
	return messageID, nil
}

func (d *recordingDisplay) texts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.shown))
	for _, s := range d.shown {
		out = append(out, s.text)
	}
	return out
}

func (d *recordingDisplay) chat(chatID int64) []shownText {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []shownText
	for _, s := range d.shown {
		if s.chatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func testImage() entity.InputImage {
	return entity.NewInputImage(image.NewRGBA(image.Rect(0, 0, 8, 8)), entity.OrientationUp)
}

func catDogFox() *entity.ClassificationResult {
	return &entity.ClassificationResult{Classifications: []entity.Classification{
		{Label: "cat", Confidence: 0.92},
		{Label: "dog", Confidence: 0.05},
		{Label: "fox", Confidence: 0.03},
	}}
}

// runNextJob выполняет одну задачу из очереди, как это делает цикл бота.
func runNextJob(t *testing.T, q *MainQueue) {
	t.Helper()
	select {
	case job := <-q.Jobs():
		job()
	case <-time.After(2 * time.Second):
		t.Fatal("no job queued")
	}
}
