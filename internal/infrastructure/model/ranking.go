package model

import (
	"errors"
	"fmt"
	"math"

	"classifier-bot/internal/domain/entity"
)

// ErrOutputShape — модель вернула не столько значений, сколько классов.
var ErrOutputShape = errors.New("unexpected model output shape")

// Rank сопоставляет выход модели с классами и сортирует по убыванию уверенности.
func Rank(scores []float32, classes []string, softmax bool) (*entity.ClassificationResult, error) {
	if len(scores) != len(classes) {
		return nil, fmt.Errorf("%w: %d scores for %d classes", ErrOutputShape, len(scores), len(classes))
	}
	if softmax {
		scores = Softmax(scores)
	}

	items := make([]entity.Classification, len(scores))
	for i, s := range scores {
		items[i] = entity.Classification{Label: classes[i], Confidence: clamp01(s)}
	}
	return entity.NewClassificationResult(items), nil
}

// Softmax переводит логиты в вероятности.
func Softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	if len(logits) == 0 {
		return out
	}

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxVal))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

func clamp01(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
