package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/sme-finhealth/backend/internal/ai"
	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/config"
	"example.com/sme-finhealth/backend/internal/handlers"
	"example.com/sme-finhealth/backend/internal/notifications"
	"example.com/sme-finhealth/backend/internal/repository"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, db *pgxpool.Pool) (*echo.Echo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	aiClient, err := newAIClient(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("init ai client: %w", err)
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	scoreRepo := repository.NewCreditScoreRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	aiRepo := repository.NewAIRepository(db)
	notificationHub := notifications.NewHub()

	analysisHandler := handlers.NewAnalysisHandler(handlers.AnalysisDependencies{
		Companies:    companyRepo,
		Statements:   statementRepo,
		Transactions: transactionRepo,
		Scores:       scoreRepo,
		AIRequests:   aiRepo,
		Narrator:     ai.NewService(aiClient),
		Notifier:     notificationHub,
		Provider:     aiProviderName(cfg.AI.Provider),
		Model:        cfg.AI.Model,
	}, cfg.Analysis)

	registerRoutes(e, routeHandlers{
		health:        handlers.NewHealthHandler(db, aiProviderName(cfg.AI.Provider)),
		auth:          handlers.NewAuthHandler(userRepo, tokenRepo, tokenManager),
		companies:     handlers.NewCompanyHandler(companyRepo),
		uploads:       handlers.NewUploadHandler(companyRepo, statementRepo, transactionRepo, notificationHub, cfg.Upload),
		analysis:      analysisHandler,
		stats:         handlers.NewStatsHandler(statsRepo, companyRepo),
		notifications: handlers.NewNotificationHandler(notificationHub),
	}, routeMiddleware{
		auth:        auth.JWTMiddleware(tokenManager),
		authLimiter: authRateLimiter(cfg.Auth),
		aiLimiter:   aiRateLimiter(cfg.AI),
		uploadLimit: uploadBodyLimit(cfg.Upload),
	})

	return e, nil
}

// newAIClient выбирает провайдера по AI_PROVIDER; по умолчанию используется Groq.
func newAIClient(ctx context.Context, cfg config.AIConfig) (ai.Client, error) {
	switch aiProviderName(cfg.Provider) {
	case providerGemini:
		return ai.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	case providerClaude:
		return ai.NewClaudeClient(cfg.APIKey, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens), nil
	default:
		return ai.NewGroqClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens), nil
	}
}

const (
	providerGroq   = "groq"
	providerGemini = "gemini"
	providerClaude = "claude"
)

func aiProviderName(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case providerGemini:
		return providerGemini
	case providerClaude, "anthropic":
		return providerClaude
	default:
		return providerGroq
	}
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func authRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}

func aiRateLimiter(cfg config.AIConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}

// uploadBodyLimit ограничивает тело multipart-запроса лимитом файла с запасом на поля формы.
func uploadBodyLimit(cfg config.UploadConfig) echo.MiddlewareFunc {
	return middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxFileSizeMB+1))
}
