package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"classifier-bot/config"
	"classifier-bot/internal/api/rest"
	"classifier-bot/internal/api/telegram"
	"classifier-bot/internal/container"
	"classifier-bot/internal/domain/port"
	"classifier-bot/internal/infrastructure/model"
	"classifier-bot/internal/infrastructure/onnx"
	"classifier-bot/internal/infrastructure/storage"
	"classifier-bot/internal/infrastructure/vision"
	"classifier-bot/internal/logging"
)

const shutdownTimeout = 15 * time.Second

type closableClassifier interface {
	port.Classifier
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	classifier, err := newClassifier(cfg)
	if err != nil {
		logger.Fatal("failed to load classifier", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer classifier.Close()

	w, h := classifier.InputSize()
	logger.Info("classifier loaded",
		zap.String("backend", cfg.Backend),
		zap.String("model", cfg.ModelPath),
		zap.Int("input_width", w),
		zap.Int("input_height", h),
	)

	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()

	var display port.Display
	var api *tgbotapi.BotAPI
	if cfg.TelegramToken != "" {
		api, err = telegram.Connect(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("failed to connect to telegram", zap.Error(err))
		}
		display = telegram.NewDisplay(api)
	}

	// Собираем сервисы приложения
	appContainer := container.New(userRepo, vision.NewConverter(), classifier, display, logger)

	var bot *telegram.Bot
	if api != nil {
		bot = telegram.NewBot(api, appContainer, logger)
	}

	run(cfg, appContainer, bot, logger)
}

func run(cfg *config.Config, c *container.Container, bot *telegram.Bot, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Очередь разбирает только бот; без него она закрыта, и Async не блокируется.
	if bot != nil {
		g.Go(func() error {
			logger.Info("bot is running")
			return bot.Run(ctx)
		})
	} else {
		c.MainQueue.Close()
	}

	if cfg.HTTPAddr != "" {
		router := gin.New()
		router.Use(gin.Recovery())
		router.MaxMultipartMemory = rest.MaxUploadSize
		rest.RegisterRoutes(router, c.ClassificationService, logger)

		server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
		g.Go(func() error {
			logger.Info("http api listening", zap.String("addr", cfg.HTTPAddr))
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", zap.Error(err))
		return
	}
	logger.Info("service stopped")
}

func newClassifier(cfg *config.Config) (closableClassifier, error) {
	switch cfg.Backend {
	case config.BackendGoCV:
		meta, err := model.LoadMetadata(cfg.MetadataPath)
		if err != nil {
			return nil, err
		}
		return vision.NewDNNClassifier(cfg.ModelPath, meta)
	default:
		return onnx.NewClassifier(onnx.Config{
			ModelPath:    cfg.ModelPath,
			MetadataPath: cfg.MetadataPath,
			LibraryPath:  cfg.ONNXLibrary,
		})
	}
}
