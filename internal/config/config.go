package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names an optional YAML file whose keys are the environment
// variable names below. Environment values win over the file.
const ConfigFileEnv = "CONFIG_FILE"

type Config struct {
	APIPort  string
	LogLevel string

	APIMaxUploadBytes          int64
	APIMaxConnections          int
	APIRateLimitRPS            float64
	APIRateLimitBurst          int
	APIBackpressureMaxInFlight int
	APIBackpressureWaitMS      int
	APIShutdownTimeoutSeconds  int

	ModelServerURL         string
	ModelName              string
	ModelVersion           string
	ModelTimeoutSeconds    int
	ModelVocabPath         string
	ModelMaxSequenceLength int
	ModelLowercase         bool
	ModelInputIDsName      string
	ModelAttentionMaskName string
	ModelOutputName        string
	ModelProbeSeconds      int

	TesseractPath     string
	TesseractLang     string
	TesseractPSM      int
	TesseractOEM      int
	TessdataDir       string
	OCRContrastFactor float64
	OCRMaxPixels      int64
	PdftoppmPath      string
	PDFRenderDPI      int
	ScratchDir        string

	BreakerEnabled            bool
	BreakerMinRequests        int
	BreakerFailureRatio       float64
	BreakerOpenTimeoutSeconds int
}

func Load() (Config, error) {
	env, err := newSource(os.Getenv(ConfigFileEnv))
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIPort:  env.mustEnv("API_PORT", "8080"),
		LogLevel: env.mustEnv("LOG_LEVEL", "info"),

		APIMaxUploadBytes:          int64(env.mustEnvInt("API_MAX_UPLOAD_BYTES", 20<<20)),
		APIMaxConnections:          env.mustEnvInt("API_MAX_CONNECTIONS", 256),
		APIRateLimitRPS:            env.mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:          env.mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIBackpressureMaxInFlight: env.mustEnvInt("API_BACKPRESSURE_MAX_IN_FLIGHT", 32),
		APIBackpressureWaitMS:      env.mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),
		APIShutdownTimeoutSeconds:  env.mustEnvInt("API_SHUTDOWN_TIMEOUT_SECONDS", 15),

		ModelServerURL:         env.mustEnv("MODEL_SERVER_URL", "http://localhost:8000"),
		ModelName:              env.mustEnv("MODEL_NAME", "document-classifier"),
		ModelVersion:           env.mustEnv("MODEL_VERSION", ""),
		ModelTimeoutSeconds:    env.mustEnvInt("MODEL_TIMEOUT_SECONDS", 30),
		ModelVocabPath:         env.mustEnv("MODEL_VOCAB_PATH", "./model/vocab.txt"),
		ModelMaxSequenceLength: env.mustEnvInt("MODEL_MAX_SEQUENCE_LENGTH", 512),
		ModelLowercase:         env.mustEnvBool("MODEL_LOWERCASE", true),
		ModelInputIDsName:      env.mustEnv("MODEL_INPUT_IDS_NAME", "input_ids"),
		ModelAttentionMaskName: env.mustEnv("MODEL_ATTENTION_MASK_NAME", "attention_mask"),
		ModelOutputName:        env.mustEnv("MODEL_OUTPUT_NAME", "logits"),
		ModelProbeSeconds:      env.mustEnvInt("MODEL_PROBE_SECONDS", 15),

		TesseractPath:     env.mustEnv("TESSERACT_PATH", "tesseract"),
		TesseractLang:     env.mustEnv("TESSERACT_LANG", "eng"),
		TesseractPSM:      env.mustEnvInt("TESSERACT_PSM", 0),
		TesseractOEM:      env.mustEnvInt("TESSERACT_OEM", 0),
		TessdataDir:       env.mustEnv("TESSDATA_DIR", ""),
		OCRContrastFactor: env.mustEnvFloat("OCR_CONTRAST_FACTOR", 1.0),
		OCRMaxPixels:      int64(env.mustEnvInt("OCR_MAX_PIXELS", 64_000_000)),
		PdftoppmPath:      env.mustEnv("PDFTOPPM_PATH", "pdftoppm"),
		PDFRenderDPI:      env.mustEnvInt("PDF_RENDER_DPI", 300),
		ScratchDir:        env.mustEnv("SCRATCH_DIR", ""),

		BreakerEnabled:            env.mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:        env.mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio:       env.mustEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeoutSeconds: env.mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),
	}, nil
}

type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if strings.TrimSpace(path) == "" {
		return source{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return source{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	file := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		file[strings.ToUpper(strings.TrimSpace(key))] = fmt.Sprint(value)
	}
	return source{file: file}, nil
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) mustEnv(key, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (s source) mustEnvInt(key string, fallback int) int {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvFloat(key string, fallback float64) float64 {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s source) mustEnvBool(key string, fallback bool) bool {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
