package entity

import "sort"

// Classification — одна метка модели и её уверенность в [0,1].
type Classification struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// ClassificationResult хранит метки по убыванию уверенности.
type ClassificationResult struct {
	Classifications []Classification
}

// NewClassificationResult копирует метки и сортирует их по убыванию уверенности.
// При равной уверенности сохраняется исходный порядок.
func NewClassificationResult(items []Classification) *ClassificationResult {
	sorted := make([]Classification, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return &ClassificationResult{Classifications: sorted}
}

// Len возвращает число меток.
func (r *ClassificationResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Classifications)
}

// Empty сообщает, что модель не вернула ни одной метки.
func (r *ClassificationResult) Empty() bool {
	return r.Len() == 0
}

// Top возвращает не больше n первых меток. Результат нельзя изменять.
func (r *ClassificationResult) Top(n int) []Classification {
	if r == nil || n <= 0 {
		return nil
	}
	if n > len(r.Classifications) {
		n = len(r.Classifications)
	}
	return r.Classifications[:n]
}
