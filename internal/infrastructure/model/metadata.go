package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Metadata описывает модель: классы и форму тензоров.
type Metadata struct {
	InputShape   []int64  `json:"input_shape"`
	OutputShape  []int64  `json:"output_shape"`
	Classes      []string `json:"classes"`
	ImageSize    int      `json:"image_size"`
	InputName    string   `json:"input_name"`
	OutputName   string   `json:"output_name"`
	ApplySoftmax bool     `json:"apply_softmax"`
}

const (
	defaultInputName  = "input"
	defaultOutputName = "output"
)

// LoadMetadata читает JSON с описанием модели и проверяет его.
func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	return ParseMetadata(raw)
}

// ParseMetadata разбирает описание модели и заполняет значения по умолчанию.
func ParseMetadata(raw []byte) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if meta.InputName == "" {
		meta.InputName = defaultInputName
	}
	if meta.OutputName == "" {
		meta.OutputName = defaultOutputName
	}
	if len(meta.OutputShape) == 0 {
		meta.OutputShape = []int64{1, int64(len(meta.Classes))}
	}
	if len(meta.InputShape) == 0 && meta.ImageSize > 0 {
		size := int64(meta.ImageSize)
		meta.InputShape = []int64{1, 3, size, size}
	}

	if err := meta.validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *Metadata) validate() error {
	if len(m.Classes) == 0 {
		return errors.New("metadata: classes are empty")
	}
	if len(m.InputShape) != 4 {
		return fmt.Errorf("metadata: input_shape must be NCHW, got %v", m.InputShape)
	}
	if m.InputShape[1] != 3 {
		return fmt.Errorf("metadata: expected 3 input channels, got %d", m.InputShape[1])
	}
	if m.InputShape[2] <= 0 || m.InputShape[3] <= 0 {
		return fmt.Errorf("metadata: invalid input size %v", m.InputShape)
	}
	if got := elements(m.OutputShape); got != int64(len(m.Classes)) {
		return fmt.Errorf("metadata: output_shape %v has %d values for %d classes", m.OutputShape, got, len(m.Classes))
	}
	return nil
}

// InputSize возвращает ширину и высоту входа модели.
func (m *Metadata) InputSize() (width, height int) {
	return int(m.InputShape[3]), int(m.InputShape[2])
}

// InputElements — число float32 во входном тензоре.
func (m *Metadata) InputElements() int {
	return int(elements(m.InputShape))
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
