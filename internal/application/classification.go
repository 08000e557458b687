package app

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/logging"
)

// ClassificationService ведёт сценарий "выбрать снимок → классифицировать → показать".
type ClassificationService struct {
	users     *UserService
	pipeline  *Pipeline
	presenter *Presenter
	main      *MainQueue
	logger    *zap.Logger
}

// NewClassificationService создаёт сервис. Методы, меняющие состояние чата,
// вызываются из горутины, которая разбирает main.
func NewClassificationService(users *UserService, pipeline *Pipeline, presenter *Presenter, main *MainQueue, logger *zap.Logger) *ClassificationService {
	return &ClassificationService{
		users:     users,
		pipeline:  pipeline,
		presenter: presenter,
		main:      main,
		logger:    logger.Named("classification"),
	}
}

// OpenChooser открывает выбор источника снимка.
func (s *ClassificationService) OpenChooser(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.users.BeginCheck(ctx, userID, chatID)
}

// CancelChooser закрывает выбор источника. DisplayState не меняется.
func (s *ClassificationService) CancelChooser(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.users.Cancel(ctx, userID, chatID)
}

// Analyse показывает "Analysing..." в чате chatID и отправляет снимок в конвейер.
// Результат вернётся через MainQueue в тот же чат; если к тому времени в чат
// прислали новый снимок, результат отбрасывается.
func (s *ClassificationService) Analyse(ctx context.Context, userID, chatID int64, img entity.InputImage) (uint64, error) {
	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return 0, err
	}

	generation := user.BeginAnalysis()
	if err := s.users.Save(ctx, user); err != nil {
		return 0, err
	}
	s.presenter.ShowAnalysing(ctx, user)

	requestID := uuid.NewString()
	logging.WithOperation(s.logger, "classification.analyse", requestID).Info("image submitted",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
		zap.Uint64("generation", generation),
	)

	// Отмена запроса не прерывает классификацию.
	bg := context.WithoutCancel(ctx)
	future := s.pipeline.Submit(bg, requestID, img)
	go func() {
		out := <-future
		if !s.main.Async(func() {
			s.complete(bg, chatID, generation, requestID, out)
		}) {
			logging.WithOperation(s.logger, "classification.complete", requestID).
				Info("main queue closed, result dropped", zap.Int64("chat_id", chatID))
		}
	}()

	return generation, nil
}

// Classify выполняет классификацию синхронно, без состояния чата.
func (s *ClassificationService) Classify(ctx context.Context, img entity.InputImage) (string, Outcome) {
	requestID := uuid.NewString()
	out := Await(ctx, s.pipeline.Submit(ctx, requestID, img))
	return requestID, out
}

func (s *ClassificationService) complete(ctx context.Context, chatID int64, generation uint64, requestID string, out Outcome) {
	opLogger := logging.WithOperation(s.logger, "classification.complete", requestID).
		With(zap.Int64("chat_id", chatID))

	user, ok, err := s.users.Find(ctx, chatID)
	if err != nil {
		opLogger.Error("failed to load session", zap.Error(err))
		return
	}
	if !ok {
		opLogger.Info("session gone, result dropped")
		return
	}
	if !user.IsCurrent(generation) {
		opLogger.Info("stale result dropped",
			zap.Uint64("generation", generation),
			zap.Uint64("current", user.Generation),
		)
		return
	}

	text := s.presenter.Present(ctx, user, out.Result, out.Err)
	opLogger.Debug("result presented", zap.String("text", text))
}
