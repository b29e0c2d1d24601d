package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/image-search-backend/internal/cfg"
	v1Http "github.com/DRSN-tech/image-search-backend/internal/delivery/v1/http"
	embeddingInfra "github.com/DRSN-tech/image-search-backend/internal/infrastructure/embedding"
	"github.com/DRSN-tech/image-search-backend/internal/infrastructure/imagesource"
	kafkaInfra "github.com/DRSN-tech/image-search-backend/internal/infrastructure/kafka"
	minioRepo "github.com/DRSN-tech/image-search-backend/internal/repository/minio"
	"github.com/DRSN-tech/image-search-backend/internal/repository/pgdb"
	redisRepo "github.com/DRSN-tech/image-search-backend/internal/repository/redis"
	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/clients"
	"github.com/DRSN-tech/image-search-backend/pkg/closer"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	"github.com/DRSN-tech/image-search-backend/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App связывает конфигурацию, инфраструктуру и HTTP-сервер.
type App struct {
	cfg          *config.Config
	logger       logger.Logger
	httpSrv      *v1Http.Server
	outboxWorker *kafkaInfra.OutboxWorker
	closer       *closer.Closer
	workerCancel context.CancelFunc
}

// NewApp собирает все зависимости приложения.
// Порядок регистрации в closer обратен порядку закрытия (LIFO):
// первым гасится HTTP-сервер, последним — пул базы данных.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(0)

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	productRepo := pgdb.NewProductRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	storageRepo := minioRepo.NewStorageRepo(minioClient)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redisRepo.NewCacheRepo(redisClient, cfg.Redis, log)

	embeddingClient := embeddingInfra.NewBackendClient(cfg.Embedding, log)

	resolver := imagesource.NewResolver(
		productRepo,
		storageRepo,
		cfg.Storage,
		&http.Client{Timeout: cfg.Embedding.Timeout},
		log,
	)

	producer, err := kafkaInfra.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	outboxWorker := kafkaInfra.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	backfillUC := usecase.NewBackfillUC(
		productRepo,
		outboxRepo,
		db.Pool,
		embeddingClient,
		resolver,
		cfg.Backfill,
		cfg.Embedding,
		log,
	)

	searchUC := usecase.NewSearchUC(
		productRepo,
		embeddingClient,
		cacheRepo,
		cfg.Search,
		cfg.Embedding,
		log,
	)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(backfillUC, searchUC, cfg)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	return &App{
		cfg:          cfg,
		logger:       log,
		httpSrv:      httpSrv,
		outboxWorker: outboxWorker,
		closer:       cl,
	}, nil
}

// Run запускает outbox-воркер и HTTP-сервер, блокируется до сигнала
// завершения или фатальной ошибки сервера, затем закрывает ресурсы.
func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.workerCancel = workerCancel
	a.outboxWorker.Start(workerCtx)

	a.closer.Add(func(ctx context.Context) error {
		a.workerCancel()
		a.outboxWorker.Stop()
		return nil
	})

	a.closer.Add(func(ctx context.Context) error {
		return a.httpSrv.Stop(ctx)
	})

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	} else {
		a.logger.Infof("Application shutdown complete")
	}

	return appErr
}

func initPGDB(log logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(log); err != nil {
		log.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		log.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
