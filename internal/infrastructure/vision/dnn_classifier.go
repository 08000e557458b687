//go:build gocv
// +build gocv

package vision

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
	"classifier-bot/internal/infrastructure/model"
)

// DNNClassifier выполняет модель через модуль dnn OpenCV.
type DNNClassifier struct {
	mu   sync.Mutex
	net  gocv.Net
	meta *model.Metadata
}

// NewDNNClassifier загружает модель (ONNX, Caffe, TensorFlow — что понимает OpenCV).
func NewDNNClassifier(modelPath string, meta *model.Metadata) (*DNNClassifier, error) {
	if meta == nil {
		return nil, errors.New("model metadata is required")
	}
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", modelPath)
	}
	return &DNNClassifier{net: net, meta: meta}, nil
}

// InputSize implements port.Classifier.
func (d *DNNClassifier) InputSize() (int, int) {
	return d.meta.InputSize()
}

// Classify implements port.Classifier.
func (d *DNNClassifier) Classify(ctx context.Context, buf *entity.PixelBuffer) (*entity.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := gocv.NewMatWithSizesFromBytes(
		[]int{1, entity.Channels, buf.Height, buf.Width},
		gocv.MatTypeCV32F,
		float32Bytes(buf.Data),
	)
	if err != nil {
		return nil, fmt.Errorf("build input blob: %w", err)
	}
	defer blob.Close()

	scores, err := d.forward(blob)
	if err != nil {
		return nil, err
	}
	return model.Rank(scores, d.meta.Classes, d.meta.ApplySoftmax)
}

func (d *DNNClassifier) forward(blob gocv.Mat) ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()
	if prob.Empty() {
		return nil, errors.New("empty network output")
	}

	flat := prob.Reshape(1, 1)
	defer flat.Close()

	scores := make([]float32, flat.Cols())
	for i := range scores {
		scores[i] = flat.GetFloatAt(0, i)
	}
	return scores, nil
}

// Close освобождает сеть.
func (d *DNNClassifier) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.net.Close()
}

func float32Bytes(data []float32) []byte {
	out := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// Проверка реализации интерфейса
var _ port.Classifier = (*DNNClassifier)(nil)
