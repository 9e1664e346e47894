// acervod is the digitization service: it receives document batches,
// extracts civil-registry records with the configured model and serves the
// XML load generation endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cartoriolabs/acervo-digital/internal/ai"
	"github.com/cartoriolabs/acervo-digital/internal/common"
	"github.com/cartoriolabs/acervo-digital/internal/evidence"
	"github.com/cartoriolabs/acervo-digital/internal/export"
	"github.com/cartoriolabs/acervo-digital/internal/extract"
	"github.com/cartoriolabs/acervo-digital/internal/job"
	"github.com/cartoriolabs/acervo-digital/internal/metrics"
	"github.com/cartoriolabs/acervo-digital/internal/pipeline"
	"github.com/cartoriolabs/acervo-digital/internal/prompt"
	"github.com/cartoriolabs/acervo-digital/internal/server"
	"github.com/cartoriolabs/acervo-digital/internal/textract"
	"github.com/cartoriolabs/acervo-digital/internal/xmlout"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuracao invalida", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client ai.Client
	if cfg.AI.Stub {
		logger.Warn("AI_STUB ativo; respostas do modelo serao simuladas")
		client = &ai.StubClient{Default: "{}"}
	} else {
		client = ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.PrimaryModel, cfg.AI.CallTimeout, logger)
	}

	var pstore prompt.Store
	sqlStore, err := prompt.OpenSQLStore(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.Warn("banco de prompts indisponivel; usando templates embutidos", "err", err)
	} else {
		pstore = sqlStore
		defer sqlStore.Close()
	}

	jobStore, err := job.NewStore(cfg.Pipeline.DataDir)
	if err != nil {
		logger.Error("inicializacao do diretorio de jobs falhou", "err", err)
		os.Exit(1)
	}
	mgr := job.NewManager(jobStore, logger)
	m := metrics.New(prometheus.DefaultRegisterer)
	client = ai.WithReporter(client, m.AICall)

	retry := ai.RetryPolicy{MaxAttempts: cfg.AI.MaxAttempts, BackoffBase: cfg.AI.BackoffBase}
	texts := textract.NewExtractor(client, cfg.AI.PrimaryModel, pstore, cfg.Pipeline.PreviewChars, logger)
	classifier := extract.NewClassifier(client, cfg.AI.PrimaryModel, cfg.AI.FallbackModel, pstore, logger)
	extractor := extract.NewExtractor(client, cfg.AI.PrimaryModel, cfg.AI.FallbackModel, retry, pstore, cfg.AI.MaxPromptChars, logger)
	filter := evidence.NewFilter(logger)

	processor := pipeline.NewProcessor(mgr, texts, classifier, extractor, filter, m, cfg.Pipeline, logger)
	queue := job.NewQueue(processor, logger,
		job.WithWorkers(cfg.Pipeline.Workers),
		job.WithQueueSize(cfg.Pipeline.QueueSize),
	)

	det := &xmlout.Serializer{}
	carga := &pipeline.Carga{
		Mgr: mgr,
		Det: det,
		IA:  &xmlout.IASerializer{Det: det, Client: client, Model: cfg.AI.PrimaryModel, Store: pstore, Log: logger},
		Log: logger,
	}

	srv := server.New(cfg, mgr, queue, carga, export.NewService(logger), logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("servidor HTTP iniciado", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("servidor HTTP encerrou com erro", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("encerrando")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("encerramento do servidor HTTP falhou", "err", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("encerrado")
}
