package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/attendance"
	attendanceRepo "github.com/frahmantamala/opentna/internal/attendance/postgres"
	"github.com/frahmantamala/opentna/internal/card"
	cardRepo "github.com/frahmantamala/opentna/internal/card/postgres"
	"github.com/frahmantamala/opentna/internal/role"
	roleRepo "github.com/frahmantamala/opentna/internal/role/postgres"
	"github.com/frahmantamala/opentna/internal/storage"
	"github.com/frahmantamala/opentna/internal/transport"
	"github.com/frahmantamala/opentna/internal/transport/rest"
	"github.com/frahmantamala/opentna/internal/user"
	userRepo "github.com/frahmantamala/opentna/internal/user/postgres"
	"github.com/frahmantamala/opentna/pkg/credential"
	"github.com/frahmantamala/opentna/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	SQLX     *sqlx.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	Services *Services
}

// Services holds the domain services shared by the server and the seeder.
type Services struct {
	Users      *user.Service
	Roles      *role.Service
	Cards      *card.Service
	Attendance *attendance.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.SQLX.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	base := transport.NewBaseHandler(deps.Logger).
		WithNotFoundStatus(deps.Config.Server.GetNotFoundStatus())

	rest.RegisterAllRoutes(deps.Router, deps.SQLX.DB, rest.Handlers{
		Users:      user.NewHandler(base, deps.Services.Users),
		Roles:      role.NewHandler(base, deps.Services.Roles),
		Cards:      card.NewHandler(base, deps.Services.Cards),
		Attendance: attendance.NewHandler(base, deps.Services.Attendance),
	}, deps.Config, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithOptions(os.Getenv("APP_ENV"), logger.Options{
		Level:  config.Observability.Logging.Level,
		Format: config.Observability.Logging.Format,
	})
	lg := logger.LoggerWrapper()

	db, sqlxDB, err := initDB(config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	services, err := buildServices(config, db, sqlxDB, lg)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		SQLX:     sqlxDB,
		Router:   chi.NewRouter(),
		Services: services,
	}, nil
}

// initDB opens the gorm connection and shares its pool with sqlx.
func initDB(cfg internal.DatabaseConfig, lg *slog.Logger) (*gorm.DB, *sqlx.DB, error) {
	db, err := storage.Open(cfg, lg)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return db, sqlx.NewDb(sqlDB, storage.SQLDriverName(db)), nil
}

func buildServices(cfg *internal.Config, db *gorm.DB, sqlxDB *sqlx.DB, lg *slog.Logger) (*Services, error) {
	encoder, err := credential.NewEncoder(cfg.Security.PasswordEncoder, cfg.Security.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to build password encoder: %w", err)
	}

	roles := role.NewService(roleRepo.NewRoleRepository(db), lg)
	cards := card.NewService(cardRepo.NewCardRepository(db), lg)
	users := user.NewService(userRepo.NewUserRepository(db), encoder, lg)
	records := attendance.NewService(attendanceRepo.NewAttendanceRepository(sqlxDB), cards, users, lg)

	return &Services{
		Users:      users,
		Roles:      roles,
		Cards:      cards,
		Attendance: records,
	}, nil
}
