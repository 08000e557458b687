package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "classifier-bot/internal/application"
	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/infrastructure/vision"
	"classifier-bot/internal/logging"
)

// MaxUploadSize ограничивает размер загружаемого изображения (10 MiB).
const MaxUploadSize = 10 << 20

// ClassifyResponse — ответ POST /classify.
type ClassifyResponse struct {
	RequestID       string                  `json:"request_id"`
	Text            string                  `json:"text"`
	Classifications []entity.Classification `json:"classifications"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler обслуживает HTTP-загрузку снимков.
type Handler struct {
	svc    *app.ClassificationService
	logger *zap.Logger
}

// RegisterRoutes вешает обработчики на роутер.
func RegisterRoutes(r *gin.Engine, svc *app.ClassificationService, logger *zap.Logger) {
	h := &Handler{svc: svc, logger: logger.Named("http")}
	r.GET("/health", h.Health)
	r.POST("/classify", h.Classify)
}

// Health сообщает, что сервис жив.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Classify принимает multipart-поле image и отвечает двумя лучшими метками.
func (h *Handler) Classify(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<10)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "no image file provided, use 'image' as the form field name"})
		return
	}
	if fileHeader.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "image is too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read upload"})
		return
	}

	img, err := vision.Decode(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid image format"})
		return
	}

	requestID, out := h.svc.Classify(c.Request.Context(), img)
	opLogger := logging.WithOperation(h.logger, "http.classify", requestID)

	text, _ := app.Render(out.Result, out.Err)
	if out.Err != nil {
		opLogger.Warn("classification failed", zap.Error(out.Err))
		c.JSON(statusFor(out.Err), ClassifyResponse{RequestID: requestID, Text: text, Classifications: []entity.Classification{}})
		return
	}

	c.JSON(http.StatusOK, ClassifyResponse{
		RequestID:       requestID,
		Text:            text,
		Classifications: nonNil(out.Result.Top(app.TopK)),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrImageConversion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrInference):
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func nonNil(items []entity.Classification) []entity.Classification {
	if items == nil {
		return []entity.Classification{}
	}
	return items
}
