//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
	"classifier-bot/internal/infrastructure/model"
)

// ErrGoCVDisabled — бинарник собран без тега gocv.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// DNNClassifier — заглушка без OpenCV.
type DNNClassifier struct {
	meta *model.Metadata
}

// NewDNNClassifier возвращает ошибку, если сборка без тега gocv.
func NewDNNClassifier(modelPath string, meta *model.Metadata) (*DNNClassifier, error) {
	_ = modelPath
	_ = meta
	return nil, ErrGoCVDisabled
}

// InputSize возвращает размер входа из метаданных.
func (d *DNNClassifier) InputSize() (int, int) {
	if d == nil || d.meta == nil {
		return 0, 0
	}
	return d.meta.InputSize()
}

// Classify возвращает ошибку, если сборка без тега gocv.
func (d *DNNClassifier) Classify(ctx context.Context, buf *entity.PixelBuffer) (*entity.ClassificationResult, error) {
	_ = ctx
	_ = buf
	return nil, ErrGoCVDisabled
}

// Close ничего не делает.
func (d *DNNClassifier) Close() {}

// Проверка реализации интерфейса
var _ port.Classifier = (*DNNClassifier)(nil)
