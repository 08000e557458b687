package container

import (
	"go.uber.org/zap"

	app "classifier-bot/internal/application"
	"classifier-bot/internal/domain/port"
)

// mainQueueSize — сколько завершённых классификаций может ждать основной цикл.
const mainQueueSize = 64

type Container struct {
	MainQueue             *app.MainQueue
	UserService           *app.UserService
	Pipeline              *app.Pipeline
	Presenter             *app.Presenter
	ClassificationService *app.ClassificationService
}

func New(userRepo port.UserRepository, converter port.ImageConverter, classifier port.Classifier, display port.Display, logger *zap.Logger) *Container {
	mainQueue := app.NewMainQueue(mainQueueSize)
	userService := app.NewUserService(userRepo)
	pipeline := app.NewPipeline(converter, classifier, logger)
	presenter := app.NewPresenter(userService, display, logger)
	classificationService := app.NewClassificationService(userService, pipeline, presenter, mainQueue, logger)

	return &Container{
		MainQueue:             mainQueue,
		UserService:           userService,
		Pipeline:              pipeline,
		Presenter:             presenter,
		ClassificationService: classificationService,
	}
}
