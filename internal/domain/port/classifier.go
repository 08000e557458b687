package port

import (
	"context"

	"classifier-bot/internal/domain/entity"
)

// Classifier интерфейс модели классификации изображений
type Classifier interface {
	// Classify прогоняет модель на буфере и возвращает метки по убыванию уверенности
	Classify(ctx context.Context, buf *entity.PixelBuffer) (*entity.ClassificationResult, error)

	// InputSize возвращает размер входа модели в пикселях
	InputSize() (width, height int)
}
