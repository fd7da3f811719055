package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/oy3o/modelbind"
)

type Pair = modelbind.Pair[string, int]

// labelRequest 从 path、body 和 query 组合绑定
type labelRequest struct {
	ID      int               `form:"id" validate:"gte=1"`
	Labels  map[string]string `form:"labels"`
	Primary Pair              `form:"primary"`
	Tags    []string          `form:"tags" validate:"max=8"`
	History []Pair            `form:"history"`
}

type labelResponse struct {
	ID      int               `json:"id"`
	Labels  map[string]string `json:"labels"`
	Primary Pair              `json:"primary"`
	Tags    []string          `json:"tags"`
	History []Pair            `json:"history"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env 不存在时直接使用进程环境变量
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := modelbind.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	modelbind.SafeMode = cfg.SafeMode
	modelbind.ErrorHook = modelbind.ZapErrorHook(log)

	opts := append(cfg.Options(), modelbind.WithLogger(log))

	mux := http.NewServeMux()
	mux.Handle("GET /pair", modelbind.NewHandler(getPair, append(opts, modelbind.WithPrefix("pair"))...))
	mux.Handle("POST /labels/{id}", modelbind.NewHandler(postLabels, opts...))

	handler := modelbind.Chain(mux,
		modelbind.RequestID(),
		modelbind.Logger(modelbind.ZapLogFunc(log)),
		modelbind.Recovery(modelbind.WithHook(modelbind.ZapErrorHook(log))),
	)

	addr := os.Getenv("PAIRDEMO_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func getPair(ctx context.Context, p *Pair) (Pair, error) {
	return *p, nil
}

func postLabels(ctx context.Context, req *labelRequest) (*labelResponse, error) {
	if _, ok := req.Labels[""]; ok {
		return nil, modelbind.NewError(http.StatusBadRequest, "EMPTY_LABEL", "label key must not be empty")
	}
	return &labelResponse{
		ID:      req.ID,
		Labels:  req.Labels,
		Primary: req.Primary,
		Tags:    req.Tags,
		History: req.History,
	}, nil
}
