package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"billing-engine/internal/clients"
	"billing-engine/internal/config"
	"billing-engine/internal/repository"
	"billing-engine/internal/service"
	"billing-engine/internal/transport/rest"
	"billing-engine/internal/transport/websocket"
	"billing-engine/pkg/database/postgres"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	log := newLogger(cfg.LogLevel)

	db := mustInitPostgres(cfg.Postgres, log)
	defer postgres.Close(db)

	redisClient := mustInitRedis(cfg.Redis, log)
	defer redisClient.Close()

	storageClient, err := clients.NewLocalStorage(cfg.Statements.Dir, cfg.Statements.PublicPrefix, cfg.Statements.ExternalURL)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	var s3Client *clients.S3Client
	if cfg.S3.Enabled {
		s3Client, err = clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.Fatalf("s3 init error: %v", err)
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	notifier := clients.NewNotifier(wsHub)

	obligationRepo := repository.NewObligationRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	jobStateRepo := repository.NewJobStateRepository(db)

	paymentSvc := service.NewPaymentService(db, obligationRepo, transactionRepo, creditRepo, redisClient, notifier, log)
	planSvc := service.NewPlanService(obligationRepo, redisClient, log)
	duesSvc := service.NewDuesService(obligationRepo, creditRepo, redisClient, log)
	schedulerSvc := service.NewSchedulerService(obligationRepo, jobStateRepo, redisClient, notifier, log)
	statementSvc := service.NewStatementService(obligationRepo, transactionRepo, redisClient, storageClient, s3Client, notifier, log)

	handler := rest.NewHandler(paymentSvc, planSvc, duesSvc, schedulerSvc, statementSvc, log)
	router := handler.InitRouter()

	root := chi.NewRouter()

	// public: serve generated statement files
	root.Get("/files/{file}", func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		path := filepath.Join(storageClient.BaseDir, filepath.Base(file))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		// prefer original filename in Content-Disposition (strip random prefix)
		orig := file
		if idx := strings.IndexByte(file, '_'); idx >= 0 {
			orig = file[idx+1:]
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orig))

		http.ServeFile(w, r, path)
	})

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		customerID := r.URL.Query().Get("customer_id")
		if customerID == "" {
			http.Error(w, "customer_id required", http.StatusBadRequest)
			return
		}

		log.WithField("customer_id", customerID).Info("websocket connected")
		wsHub.HandleWebSocket(w, r, customerID)
	})

	root.Mount("/", router)

	corsHandler := withCORS(root)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// in-process daily billing trigger; POST /jobs/daily covers deployments
	// that prefer an external cron
	cronRunner := cron.New()
	if _, err := cronRunner.AddFunc(cfg.Billing.CronSpec, func() {
		report, err := schedulerSvc.RunDaily(ctx)
		if err != nil {
			log.WithError(err).Error("daily billing run failed")
			return
		}
		if report.AlreadyRan {
			return
		}
		log.WithFields(logrus.Fields{
			"generated":          report.GeneratedCount,
			"affected_customers": report.AffectedCustomerCount,
		}).Info("scheduled daily billing run complete")
	}); err != nil {
		log.Fatalf("cron init error: %v", err)
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	srvErr := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// background cleaner for statement files past their cache window
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := storageClient.CleanupOlderThan(30 * time.Minute); err != nil {
					log.WithError(err).Warn("storage cleanup error")
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Infof("shutdown signal received: %v", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server shutdown error")
		}

		cronRunner.Stop()
		cancel()

		postgres.Close(db)
		redisClient.Close()

		log.Info("shutdown complete")
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func mustInitPostgres(cfg config.PostgresConfig, log *logrus.Logger) *sql.DB {
	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Username:     cfg.User,
		DBName:       cfg.DBName,
		SSLMode:      cfg.SSLMode,
		Password:     cfg.Password,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig, log *logrus.Logger) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
