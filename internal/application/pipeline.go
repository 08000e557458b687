package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
	"classifier-bot/internal/logging"
)

var (
	// ErrImageConversion — снимок не удалось привести к формату модели.
	ErrImageConversion = errors.New("image conversion failed")
	// ErrInference — модель не отработала.
	ErrInference = errors.New("inference failed")
)

// Outcome — итог одной классификации. Ровно одно из полей заполнено.
type Outcome struct {
	Result *entity.ClassificationResult
	Err    error
}

// Pipeline приводит снимок к формату модели и запускает классификацию в фоне.
type Pipeline struct {
	converter  port.ImageConverter
	classifier port.Classifier
	logger     *zap.Logger
}

// NewPipeline создаёт конвейер классификации.
func NewPipeline(converter port.ImageConverter, classifier port.Classifier, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		converter:  converter,
		classifier: classifier,
		logger:     logger.Named("pipeline"),
	}
}

// Submit запускает классификацию в отдельной горутине. Канал получает ровно
// один Outcome и закрывается. Повторов нет.
func (p *Pipeline) Submit(ctx context.Context, requestID string, img entity.InputImage) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		done <- p.run(ctx, requestID, img)
	}()
	return done
}

// Await ждёт результат Submit или отмену ctx.
func Await(ctx context.Context, future <-chan Outcome) Outcome {
	select {
	case out, ok := <-future:
		if !ok {
			return Outcome{Err: fmt.Errorf("%w: completion channel closed", ErrInference)}
		}
		return out
	case <-ctx.Done():
		return Outcome{Err: ctx.Err()}
	}
}

func (p *Pipeline) run(ctx context.Context, requestID string, img entity.InputImage) (out Outcome) {
	opLogger := logging.WithOperation(p.logger, "pipeline.classify", requestID)

	defer func() {
		if r := recover(); r != nil {
			err := logging.NewOperationError("pipeline.classify", requestID, fmt.Errorf("%w: panic: %v", ErrInference, r))
			opLogger.Error("classifier panicked", zap.Error(err))
			out = Outcome{Err: err}
		}
	}()

	if p.classifier == nil {
		return Outcome{Err: logging.NewOperationError("pipeline.classify", requestID,
			fmt.Errorf("%w: classifier is not configured", ErrInference))}
	}

	width, height := p.classifier.InputSize()
	buf, err := p.converter.Convert(img, width, height)
	if err != nil {
		wrapped := logging.NewOperationError("pipeline.convert", requestID, fmt.Errorf("%w: %w", ErrImageConversion, err))
		opLogger.Warn("image conversion failed", zap.Error(wrapped))
		return Outcome{Err: wrapped}
	}

	result, err := p.classifier.Classify(ctx, buf)
	if err != nil {
		wrapped := logging.NewOperationError("pipeline.inference", requestID, fmt.Errorf("%w: %w", ErrInference, err))
		opLogger.Error("inference failed", zap.Error(wrapped))
		return Outcome{Err: wrapped}
	}
	if result == nil {
		return Outcome{Err: logging.NewOperationError("pipeline.inference", requestID,
			fmt.Errorf("%w: no results returned", ErrInference))}
	}

	ranked := entity.NewClassificationResult(result.Classifications)
	opLogger.Debug("classification finished",
		zap.Int("labels", ranked.Len()),
		zap.Stringer("orientation", img.Orientation),
	)
	return Outcome{Result: ranked}
}
