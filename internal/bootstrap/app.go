package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"pathpilot-backend/internal/applications"
	"pathpilot-backend/internal/coverletters"
	"pathpilot-backend/internal/interviews"
	"pathpilot-backend/internal/jobs"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/llm/gemini"
	"pathpilot-backend/internal/llm/openai"
	"pathpilot-backend/internal/orchestrator"
	"pathpilot-backend/internal/resumes"
	"pathpilot-backend/internal/services/health"
	"pathpilot-backend/internal/shared/config"
	"pathpilot-backend/internal/shared/server"
	"pathpilot-backend/internal/shared/storage/db"
	"pathpilot-backend/internal/shared/storage/object"
	localstore "pathpilot-backend/internal/shared/storage/object/local"
	s3store "pathpilot-backend/internal/shared/storage/object/s3"
	"pathpilot-backend/internal/shared/telemetry"
	"pathpilot-backend/internal/shared/util"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.Store
	Generator llm.Generator

	Resumes      *resumes.Service
	CoverLetters *coverletters.Service
	Interviews   *interviews.Service
	Jobs         *jobs.Service
	Applications *applications.Service
	Health       *health.Service
}

// Build prepares every dependency and registers routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store, Generator: gen}
	app.buildServices()
	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Health: app.Health,
		Handlers: []server.Registrar{
			resumes.NewHandler(app.Resumes),
			coverletters.NewHandler(app.CoverLetters),
			interviews.NewHandler(app.Interviews),
			jobs.NewHandler(app.Jobs),
			applications.NewHandler(app.Applications),
		},
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap_memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap_memory_repositories", map[string]any{
				"reason": "database connect failed",
				"error":  util.SanitizeError(err),
			})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// NewGenerator picks the configured provider. A missing key is not fatal:
// generation endpoints then fail with LLM_UNAVAILABLE while CRUD keeps working.
func NewGenerator(ctx context.Context, cfg config.Config) (llm.Generator, error) {
	var (
		gen llm.Generator
		err error
	)
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			gen = llm.Unconfigured{Provider: "openai"}
			break
		}
		gen, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	default:
		if cfg.GeminiAPIKey == "" {
			gen = llm.Unconfigured{Provider: "gemini"}
			break
		}
		var g *gemini.Generator
		if g, err = gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.LLMModel); err == nil {
			gen = llm.WithTimeout(g, cfg.LLMTimeout)
		}
	}
	if err != nil {
		return nil, err
	}
	if _, ok := gen.(llm.Unconfigured); ok {
		telemetry.Warn("llm_provider_unconfigured", map[string]any{"provider": cfg.LLMProvider})
	}
	return gen, nil
}

func (a *App) buildServices() {
	var (
		resumeRepo      resumes.Repo
		coverLetterRepo coverletters.Repo
		interviewRepo   interviews.Repo
		jobRepo         jobs.Repo
		applicationRepo applications.Repo
		pinger          health.Pinger
	)
	if a.DB != nil {
		resumeRepo = &resumes.PGRepo{DB: a.DB}
		coverLetterRepo = &coverletters.PGRepo{DB: a.DB}
		interviewRepo = &interviews.PGRepo{DB: a.DB}
		jobRepo = &jobs.PGRepo{DB: a.DB}
		applicationRepo = &applications.PGRepo{DB: a.DB}
		pinger = a.DB
	} else {
		resumeRepo = resumes.NewMemoryRepo()
		coverLetterRepo = coverletters.NewMemoryRepo()
		interviewRepo = interviews.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
		applicationRepo = applications.NewMemoryRepo()
	}

	orch := orchestrator.New(a.Generator)
	a.Resumes = resumes.NewService(resumeRepo, a.Store, orch, a.Config.MaxUploadBytes())
	a.CoverLetters = coverletters.NewService(coverLetterRepo, orch, a.Resumes)
	a.Interviews = interviews.NewService(interviewRepo, orch, a.Resumes)
	a.Jobs = jobs.NewService(jobRepo, orch, a.Resumes)
	a.Applications = applications.NewService(applicationRepo)
	a.Health = health.NewService(pinger, a.Config.ObjectStoreType, a.Config.LLMProvider, a.Generator.Model())
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
