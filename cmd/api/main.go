package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fabricasc/producao/internal/anexo"
	"github.com/fabricasc/producao/internal/auth"
	"github.com/fabricasc/producao/internal/config"
	"github.com/fabricasc/producao/internal/db"
	internalhttp "github.com/fabricasc/producao/internal/http"
	"github.com/fabricasc/producao/internal/maquina"
	"github.com/fabricasc/producao/internal/ordem"
	"github.com/fabricasc/producao/internal/relatorio"
	"github.com/fabricasc/producao/internal/service"
	"github.com/fabricasc/producao/internal/store"
	"github.com/fabricasc/producao/internal/store/postgres"
	"github.com/fabricasc/producao/internal/store/sqlite"
	"github.com/fabricasc/producao/internal/usuario"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	var (
		recordStore store.RecordStore
		pingDB      func(context.Context) error
	)
	switch cfg.DBDriver {
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer st.Close()
		recordStore = st
		pingDB = st.Ping
	default:
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pool.Close()

		st, err := postgres.New(ctx, pool)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		recordStore = st
		pingDB = pool.Ping
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	armazenador, err := abrirAnexos(cfg)
	if err != nil {
		return fmt.Errorf("anexos: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(recordStore, redisClient, jwtManager, cfg.JWTRefreshTTL)

	ordemService := ordem.NewService(recordStore, armazenador)

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		Redis:     redisClient,
		Auth:      authService,
		PingDB:    pingDB,
		Ordens:    ordem.NewHandler(ordemService, armazenador, relatorio.GerarPDF),
		Maquinas:  maquina.NewHandler(maquina.NewService(recordStore)),
		Usuarios:  usuario.NewHandler(usuario.NewService(recordStore)),
		Relatorio: relatorio.NewHandler(recordStore),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// abrirAnexos escolhe o backend de anexos: S3 compatível quando há
// endpoint, diretório local quando há ANEXOS_DIR, noop caso contrário.
func abrirAnexos(cfg *config.Config) (anexo.Armazenador, error) {
	switch {
	case cfg.S3Endpoint != "":
		return anexo.NewS3(anexo.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
	case cfg.AnexosDir != "":
		return anexo.NewLocal(cfg.AnexosDir)
	default:
		log.Warn().Msg("anexos desabilitados: defina ANEXOS_DIR ou S3_ENDPOINT")
		return anexo.Noop{}, nil
	}
}
