package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
	"classifier-bot/internal/infrastructure/model"
)

// Config описывает, откуда грузить модель.
type Config struct {
	ModelPath    string
	MetadataPath string
	// LibraryPath — путь к libonnxruntime; пусто — искать по умолчанию.
	LibraryPath string
}

// Classifier выполняет модель ONNX через onnxruntime. Сессия одна,
// поэтому вызовы Classify сериализуются.
type Classifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     *model.Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewClassifier поднимает окружение onnxruntime и создаёт сессию.
func NewClassifier(cfg Config) (*Classifier, error) {
	metadata, err := model.LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Classifier{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// InputSize implements port.Classifier.
func (c *Classifier) InputSize() (int, int) {
	return c.Metadata.InputSize()
}

// Classify implements port.Classifier.
func (c *Classifier) Classify(ctx context.Context, buf *entity.PixelBuffer) (*entity.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if want := c.Metadata.InputElements(); len(buf.Data) != want {
		return nil, fmt.Errorf("expected %d input values, got %d", want, len(buf.Data))
	}

	scores, err := c.run(buf.Data)
	if err != nil {
		return nil, err
	}
	return model.Rank(scores, c.Metadata.Classes, c.Metadata.ApplySoftmax)
}

func (c *Classifier) run(input []float32) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.inputTensor.GetData(), input)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := c.outputTensor.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

// Close освобождает тензоры, сессию и окружение.
func (c *Classifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	ort.DestroyEnvironment()
}

// Проверка реализации интерфейса
var _ port.Classifier = (*Classifier)(nil)
