package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/applications"
	googleauth "jobassist-backend/internal/auth"
	"jobassist-backend/internal/billing"
	"jobassist-backend/internal/generation"
	"jobassist-backend/internal/llm"
	openai "jobassist-backend/internal/llm/openai"
	"jobassist-backend/internal/parser"
	"jobassist-backend/internal/record"
	"jobassist-backend/internal/resumes"
	"jobassist-backend/internal/services/health"
	sharedauth "jobassist-backend/internal/shared/auth"
	"jobassist-backend/internal/shared/config"
	"jobassist-backend/internal/shared/server"
	"jobassist-backend/internal/shared/storage/db"
	"jobassist-backend/internal/shared/storage/docstore"
	"jobassist-backend/internal/shared/telemetry"
	"jobassist-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    docstore.Store
	Template *record.Template
	LLM      llm.Client
	Signer   *sharedauth.Signer

	ResumeService      *resumes.Service
	GenerationService  *generation.Service
	ApplicationService *applications.Service
	BillingService     *billing.Service
	UsersService       *users.Service
	GoogleAuth         *googleauth.GoogleService

	closers []func() error
}

// Build validates cfg and wires every service and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildContext(context.Background(), cfg)
}

// BuildContext is Build with a caller-supplied context for store setup.
func BuildContext(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	tpl, err := record.LoadTemplate(cfg.SchemaTemplatePath)
	if err != nil {
		return nil, err
	}
	app.Template = tpl

	if err := app.buildStore(ctx); err != nil {
		app.Close()
		return nil, err
	}

	client, err := buildLLM(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.LLM = client

	signer, err := sharedauth.NewSigner(cfg.JWTSecret, cfg.Env)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("session signer: %w", err)
	}
	app.Signer = signer

	app.buildServices()
	app.Router = app.buildRouter()

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":         cfg.Env,
		"docstore":    storeName(cfg),
		"parser_mode": string(app.ResumeService.Mode),
		"template":    tpl.Source,
	})
	return app, nil
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// storeName infers the backend when DOCSTORE is unset: a DATABASE_URL
// selects postgres, a REDIS_ADDR selects redis, otherwise memory.
func storeName(cfg config.Config) string {
	if cfg.DocStore != "" {
		return cfg.DocStore
	}
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		return "postgres"
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		return "redis"
	}
	return "memory"
}

func (a *App) buildStore(ctx context.Context) error {
	switch storeName(a.Config) {
	case "postgres":
		sqlDB, closeDB, err := db.OpenForRuntime(ctx, a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres docstore: %w", err)
		}
		a.closers = append(a.closers, closeDB)
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return fmt.Errorf("postgres docstore: %w", err)
		}
		a.DB = sqlDB
		a.Store = docstore.NewPGStore(sqlDB)
	case "redis":
		store, err := docstore.NewRedisStore(ctx, docstore.RedisOptions{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("redis docstore: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Store = store
	default:
		if a.Config.Env == "production" {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"env": a.Config.Env})
		}
		a.Store = docstore.NewMemoryStore()
	}
	return nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if !cfg.ModelConfigured() {
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (a *App) buildServices() {
	var builder parser.Builder = parser.HeuristicBuilder{}
	mode := parser.ModeHeuristic
	if a.Config.UseModelParser() {
		builder = parser.NewModelBuilder(a.LLM, a.Template)
		mode = parser.ModeModel
	}

	records := resumes.NewRecordStore(a.Store, a.Template.Schema)
	a.ResumeService = resumes.NewService(builder, mode, records)
	a.BillingService = billing.NewService(a.Store, nil)
	a.ApplicationService = applications.NewService(a.Store, a.BillingService)
	a.GenerationService = generation.NewService(a.LLM, records, a.Store, a.ApplicationService)
	a.UsersService = users.NewService(users.NewDocRepo(a.Store))
	a.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleOptions{
		ClientID:     a.Config.GoogleClientID,
		ClientSecret: a.Config.GoogleClientSecret,
		RedirectURL:  a.Config.GoogleRedirectURL,
		UIRedirect:   a.Config.UIRedirectURL,
	}, a.Signer, a.UsersService)
}

func (a *App) buildRouter() *gin.Engine {
	healthSvc := health.NewService()
	healthSvc.Register("docstore", a.Store)

	return server.NewRouter(server.RouterDeps{
		Config:             a.Config,
		Verifier:           a.Signer,
		Health:             healthSvc,
		ResumeHandler:      resumes.NewHandler(a.ResumeService),
		GenerationHandler:  generation.NewHandler(a.GenerationService),
		ApplicationHandler: applications.NewHandler(a.ApplicationService),
		BillingHandler:     billing.NewHandler(a.BillingService),
		UserHandler:        users.NewHandler(a.UsersService),
		GoogleAuth:         a.GoogleAuth,
	})
}
