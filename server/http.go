package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"voicebank/config"
	"voicebank/constant"
	"voicebank/handler"
	"voicebank/pkg/media"
	"voicebank/pkg/rabbitmq"
	"voicebank/pkg/storage"
	"voicebank/repository"
	"voicebank/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo := repository.NewRepo(cfg.DB)

	// Fatal on purpose: a service that cannot reach its metadata store has
	// nothing to serve.
	if err := repo.Ping(ctx); err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("cannot reach database")
	}

	var publisher rabbitmq.Publisher = rabbitmq.NopPublisher{}
	if cfg.Queue != nil && cfg.Queue.Enabled {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn, moderation events disabled")
		} else if p, err := rabbitmq.NewPublisher(conn, cfg.Queue); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewPublisher, moderation events disabled")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	tool := media.NewFFmpeg(
		cfg.Media.FFprobePath,
		cfg.Media.FFmpegPath,
		cfg.Media.ProbeTimeout,
		cfg.Media.TranscodeTimeout,
	)
	store := storage.NewMinioUploader(
		cfg.Storage,
		cfg.MinIOBucket,
		cfg.Upload.PublicBaseURL,
		cfg.Upload.ACL,
		cfg.Upload.CacheControl,
	)

	cache := service.NewLookupCache(repo)
	tokens := service.NewTokenManager(repo)
	pipeline := service.NewPipeline(repo, tokens, cache, tool, store, publisher, cfg)
	admin := service.NewAdminService(repo, cache, store, publisher)

	publicEngine := gin.Default()
	publicEngine.MaxMultipartMemory = cfg.Upload.MaxBytes
	addHealth(publicEngine)
	handler.New(pipeline, tokens, cache, repo).Register(publicEngine)

	adminEngine := gin.Default()
	addHealth(adminEngine)
	handler.NewAdmin(admin).Register(adminEngine)

	publicServer := &http.Server{
		Handler:           withContext(ctx, publicEngine),
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}
	adminServer := &http.Server{
		Handler:           withContext(ctx, adminEngine),
		Addr:              fmt.Sprintf(":%s", cfg.Server.AdminPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go serve(ctx, publicServer, "public")
	go serve(ctx, adminServer, "admin")

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down servers")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := publicServer.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("public server shutdown")
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("admin server shutdown")
	}

	zerolog.Ctx(ctx).Info().Msg("server shutdown")
}

func serve(ctx context.Context, srv *http.Server, name string) {
	zerolog.Ctx(ctx).Info().Str("server", name).Str("addr", srv.Addr).Msg("start http server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zerolog.Ctx(ctx).Error().Str("server", name).Msg(err.Error())
	}
}

// withContext makes the root logger context available to every request so
// handlers and services can use zerolog.Ctx.
func withContext(ctx context.Context, next http.Handler) http.Handler {
	logger := zerolog.Ctx(ctx)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

func addHealth(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
