package port

import "classifier-bot/internal/domain/entity"

// ImageConverter приводит снимок к формату входа модели
type ImageConverter interface {
	// Convert выпрямляет снимок, обрезает по центру и масштабирует до width×height
	Convert(img entity.InputImage, width, height int) (*entity.PixelBuffer, error)
}
