package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
	Analysis AnalysisConfig
	Upload   UploadConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

type AIConfig struct {
	Provider           string
	APIKey             string
	BaseURL            string
	Model              string
	Timeout            time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxOutputTokens    int
}

// AnalysisConfig задает параметры аналитического конвейера.
type AnalysisConfig struct {
	CashFlowWindowMonths    int
	MaxCashFlowWindowMonths int
	TransactionSampleLimit  int
}

type UploadConfig struct {
	MaxFileSizeMB     int
	AllowedExtensions []string
}

// MaxFileSizeBytes возвращает лимит размера загружаемого файла в байтах.
func (c UploadConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	var err error
	if cfg.Server, err = loadServer(); err != nil {
		return cfg, err
	}
	if cfg.Database, err = loadDatabase(); err != nil {
		return cfg, err
	}
	if cfg.Auth, err = loadAuth(); err != nil {
		return cfg, err
	}
	if cfg.AI, err = loadAI(); err != nil {
		return cfg, err
	}
	if cfg.Analysis, err = loadAnalysis(); err != nil {
		return cfg, err
	}
	if cfg.Upload, err = loadUpload(); err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadServer() (ServerConfig, error) {
	port, err := parseIntEnv("SERVER_PORT", 8000)
	if err != nil {
		return ServerConfig{}, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	// Загрузка файлов и генерация отчетов идут дольше обычных запросов.
	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadDatabase() (DatabaseConfig, error) {
	port, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return DatabaseConfig{}, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return DatabaseConfig{}, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return DatabaseConfig{}, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return DatabaseConfig{}, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            port,
		User:            getEnv("DB_USER", "finhealth"),
		Password:        getEnv("DB_PASSWORD", "finhealth"),
		Name:            getEnv("DB_NAME", "sme_finhealth"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}, nil
}

func loadAuth() (AuthConfig, error) {
	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 30*time.Minute)
	if err != nil {
		return AuthConfig{}, err
	}

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return AuthConfig{}, err
	}

	perMinute, err := parseIntEnv("AUTH_RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return AuthConfig{}, err
	}

	burst, err := parseIntEnv("AUTH_RATE_LIMIT_BURST", 10)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "sme-finhealth"),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		RateLimitPerMinute: perMinute,
		RateLimitBurst:     burst,
	}, nil
}

// providerDefaults возвращает базовый URL и модель по умолчанию для провайдера.
func providerDefaults(provider string) (string, string) {
	switch provider {
	case ProviderGemini:
		return "", "gemini-2.0-flash"
	case ProviderClaude:
		return "", "claude-3-5-haiku-latest"
	default:
		return "https://api.groq.com/openai/v1", "llama-3.1-8b-instant"
	}
}

func loadAI() (AIConfig, error) {
	timeout, err := parseDurationEnv("AI_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	perMinute, err := parseIntEnv("AI_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return AIConfig{}, err
	}

	burst, err := parseIntEnv("AI_RATE_LIMIT_BURST", 10)
	if err != nil {
		return AIConfig{}, err
	}

	maxOutputTokens, err := parseIntEnv("AI_MAX_OUTPUT_TOKENS", 2048)
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", ProviderClaude)))
	baseURL, model := providerDefaults(provider)

	apiKey := getEnv("AI_API_KEY", "")
	if apiKey == "" {
		switch provider {
		case ProviderGemini:
			apiKey = getEnv("GEMINI_API_KEY", "")
		case ProviderClaude:
			apiKey = getEnv("ANTHROPIC_API_KEY", "")
		case ProviderGroq:
			apiKey = getEnv("GROQ_API_KEY", "")
		}
	}

	return AIConfig{
		Provider:           provider,
		APIKey:             apiKey,
		BaseURL:            getEnv("AI_BASE_URL", baseURL),
		Model:              getEnv("AI_MODEL", model),
		Timeout:            timeout,
		RateLimitPerMinute: perMinute,
		RateLimitBurst:     burst,
		MaxOutputTokens:    maxOutputTokens,
	}, nil
}

func loadAnalysis() (AnalysisConfig, error) {
	window, err := parseIntEnv("CASH_FLOW_WINDOW_MONTHS", 12)
	if err != nil {
		return AnalysisConfig{}, err
	}

	maxWindow, err := parseIntEnv("MAX_CASH_FLOW_WINDOW_MONTHS", 36)
	if err != nil {
		return AnalysisConfig{}, err
	}

	sampleLimit, err := parseIntEnv("TRANSACTION_SAMPLE_LIMIT", 100)
	if err != nil {
		return AnalysisConfig{}, err
	}

	return AnalysisConfig{
		CashFlowWindowMonths:    window,
		MaxCashFlowWindowMonths: maxWindow,
		TransactionSampleLimit:  sampleLimit,
	}, nil
}

func loadUpload() (UploadConfig, error) {
	maxSize, err := parseIntEnv("UPLOAD_MAX_FILE_SIZE_MB", 10)
	if err != nil {
		return UploadConfig{}, err
	}

	extensions := parseCSVEnv("UPLOAD_ALLOWED_EXTENSIONS")
	if extensions == nil {
		extensions = []string{".csv"}
	}

	return UploadConfig{
		MaxFileSizeMB:     maxSize,
		AllowedExtensions: extensions,
	}, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if !slices.Contains([]string{ProviderGroq, ProviderGemini, ProviderClaude}, c.AI.Provider) {
		return fmt.Errorf("AI_PROVIDER must be one of groq, gemini, claude")
	}

	if c.Analysis.CashFlowWindowMonths > c.Analysis.MaxCashFlowWindowMonths {
		return fmt.Errorf("CASH_FLOW_WINDOW_MONTHS cannot exceed MAX_CASH_FLOW_WINDOW_MONTHS")
	}

	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("UPLOAD_ALLOWED_EXTENSIONS entries must start with a dot: %q", ext)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

// parseIntEnv читает положительное целое; нулевые и отрицательные значения отклоняются.
func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

// parseCSVEnv разбирает список через запятую, приводя элементы к нижнему регистру.
func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
