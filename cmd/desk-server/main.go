package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinidesk/clinidesk/internal/config"
	"github.com/clinidesk/clinidesk/internal/domain/scheduling"
	"github.com/clinidesk/clinidesk/internal/platform/auth"
	"github.com/clinidesk/clinidesk/internal/platform/cache"
	"github.com/clinidesk/clinidesk/internal/platform/db"
	"github.com/clinidesk/clinidesk/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "desk-server",
		Short: "Clinic front-desk scheduling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduling API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctors, _ := cmd.Flags().GetInt("doctors")
			days, _ := cmd.Flags().GetInt("days")

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := scheduling.NewStore()
			facade := scheduling.NewFacade(store, gridFromConfig(cfg))
			svc := scheduling.NewService(facade, store, scheduling.NewRepo(pool), nil, logger)

			if _, err := svc.WarmStore(ctx); err != nil {
				return err
			}

			created := seedAppointments(ctx, svc, doctors, days, logger)
			logger.Info().Int("appointments", created).Msg("seed complete")
			return nil
		},
	}
	cmd.Flags().Int("doctors", 4, "Number of doctors to book appointments for")
	cmd.Flags().Int("days", 5, "Number of weekdays to fill, starting tomorrow")
	return cmd
}

// seedAppointments books a realistic-looking week: per doctor and day, a
// handful of back-to-back and gapped visits inside working hours. Conflict
// rejections are expected when re-running against an existing schedule.
func seedAppointments(ctx context.Context, svc *scheduling.Service, doctors, days int, logger zerolog.Logger) int {
	faker := gofakeit.New(0)
	admin := scheduling.Identity{UserID: "seed", Role: scheduling.RoleAdmin}
	visitTypes := []string{"checkup", "follow-up", "consultation", "vaccination", "physical"}

	created := 0
	for d := 0; d < doctors; d++ {
		doctorID := uuid.New()
		for day := 1; day <= days; day++ {
			slotStart := time.Now().AddDate(0, 0, day).Truncate(24 * time.Hour).Add(9 * time.Hour)
			visits := faker.Number(3, 6)
			for v := 0; v < visits; v++ {
				duration := time.Duration(faker.Number(1, 4)) * 15 * time.Minute
				in := scheduling.CreateInput{
					PatientID: uuid.New(),
					DoctorID:  doctorID,
					Window:    scheduling.TimeRange{Start: slotStart, End: slotStart.Add(duration)},
					Type:      faker.RandomString(visitTypes),
					Notes:     faker.Sentence(6),
				}
				if _, err := svc.Create(ctx, in, admin); err != nil {
					logger.Warn().Err(err).Msg("skipping seed appointment")
				} else {
					created++
				}
				// Sometimes leave a gap before the next visit.
				slotStart = slotStart.Add(duration)
				if faker.Bool() {
					slotStart = slotStart.Add(15 * time.Minute)
				}
			}
		}
	}
	return created
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT for the given role",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			userID, _ := cmd.Flags().GetString("user")
			doctorID, _ := cmd.Flags().GetString("doctor-id")
			patientID, _ := cmd.Flags().GetString("patient-id")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSigningKey == "" {
				return fmt.Errorf("JWT_SIGNING_KEY is required to mint tokens")
			}

			p := auth.Principal{UserID: userID, Role: role}
			if doctorID != "" {
				if p.DoctorID, err = uuid.Parse(doctorID); err != nil {
					return fmt.Errorf("invalid --doctor-id: %w", err)
				}
			}
			if patientID != "" {
				if p.PatientID, err = uuid.Parse(patientID); err != nil {
					return fmt.Errorf("invalid --patient-id: %w", err)
				}
			}

			tok, err := auth.MintToken(auth.JWTConfig{
				Issuer:     cfg.JWTIssuer,
				Audience:   cfg.JWTAudience,
				SigningKey: []byte(cfg.JWTSigningKey),
			}, p, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().String("role", "frontdesk", "Role claim: admin, frontdesk, doctor or patient")
	cmd.Flags().String("user", "dev-user", "Subject claim")
	cmd.Flags().String("doctor-id", "", "Doctor id claim (for role=doctor)")
	cmd.Flags().String("patient-id", "", "Patient id claim (for role=patient)")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("running in development mode: unauthenticated requests get admin access")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Layout cache (optional)
	var layoutCache scheduling.LayoutCache
	if cfg.RedisURL != "" {
		sc, err := cache.New(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer sc.Close()
		layoutCache = sc
		logger.Info().Msg("connected to redis")
	}

	// Scheduling engine
	store := scheduling.NewStore()
	facade := scheduling.NewFacade(store, gridFromConfig(cfg))
	svc := scheduling.NewService(facade, store, scheduling.NewRepo(pool), layoutCache, logger)

	loaded, err := svc.WarmStore(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load appointments")
	}
	logger.Info().Int("appointments", loaded).Msg("schedule loaded")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, rid string) {
			c.Set("request_id", rid)
		},
	}))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() && cfg.JWTSigningKey == "" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	scheduling.NewHandler(svc).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func gridFromConfig(cfg *config.Config) scheduling.GridConfig {
	weekStart := time.Monday
	if strings.EqualFold(cfg.WeekStartsOn, "sunday") {
		weekStart = time.Sunday
	}
	return scheduling.GridConfig{
		DayStartHour: cfg.GridDayStartHour,
		DayEndHour:   cfg.GridDayEndHour,
		WeekStartsOn: weekStart,
	}
}
