package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendONNX = "onnx"
	BackendGoCV = "gocv"
)

type Config struct {
	TelegramToken string `yaml:"telegram_token"`
	HTTPAddr      string `yaml:"http_addr"`
	Backend       string `yaml:"classifier_backend"`
	ModelPath     string `yaml:"model_path"`
	MetadataPath  string `yaml:"metadata_path"`
	ONNXLibrary   string `yaml:"onnx_library_path"`
	LogLevel      string `yaml:"log_level"`
}

func defaults() *Config {
	return &Config{
		Backend:      BackendONNX,
		ModelPath:    "models/model.onnx",
		MetadataPath: "models/model_metadata.json",
		LogLevel:     "info",
	}
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile накладывает значения из YAML поверх значений по умолчанию.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// mergeEnv: переменные окружения важнее файла.
func (c *Config) mergeEnv() {
	override(&c.TelegramToken, "TELEGRAM_TOKEN")
	override(&c.HTTPAddr, "HTTP_ADDR")
	override(&c.Backend, "CLASSIFIER_BACKEND")
	override(&c.ModelPath, "MODEL_PATH")
	override(&c.MetadataPath, "METADATA_PATH")
	override(&c.ONNXLibrary, "ONNX_LIBRARY_PATH")
	override(&c.LogLevel, "LOG_LEVEL")
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" && c.HTTPAddr == "" {
		return errors.New("TELEGRAM_TOKEN or HTTP_ADDR is required")
	}
	switch c.Backend {
	case BackendONNX, BackendGoCV:
	default:
		return fmt.Errorf("unknown classifier backend %q", c.Backend)
	}
	if c.ModelPath == "" || c.MetadataPath == "" {
		return errors.New("MODEL_PATH and METADATA_PATH are required")
	}
	return nil
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
