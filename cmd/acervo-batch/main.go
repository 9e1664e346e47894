// acervo-batch runs the digitization pipeline offline: it processes one
// folder of documents and writes the XML load files to disk, without the
// HTTP server or the worker queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cartoriolabs/acervo-digital/constants"
	"github.com/cartoriolabs/acervo-digital/internal/ai"
	"github.com/cartoriolabs/acervo-digital/internal/common"
	"github.com/cartoriolabs/acervo-digital/internal/evidence"
	"github.com/cartoriolabs/acervo-digital/internal/extract"
	"github.com/cartoriolabs/acervo-digital/internal/job"
	"github.com/cartoriolabs/acervo-digital/internal/pipeline"
	"github.com/cartoriolabs/acervo-digital/internal/prompt"
	"github.com/cartoriolabs/acervo-digital/internal/textract"
	"github.com/cartoriolabs/acervo-digital/internal/xmlout"
)

func main() {
	var (
		pasta  = flag.String("pasta", "", "pasta com os documentos a processar")
		tipo   = flag.String("tipo", "", "tipo de registro: NASCIMENTO, CASAMENTO ou OBITO")
		acao   = flag.String("acao", "INCLUSAO", "acao da carga: INCLUSAO ou ALTERACAO")
		cns    = flag.String("cns", "", "CNS da serventia")
		max    = flag.Int("max", 0, "maximo de registros por arquivo XML (0 usa CHUNK_SIZE)")
		saida  = flag.String("saida", ".", "diretorio de saida dos arquivos XML")
		usarIA = flag.Bool("usar-ia", false, "gera o XML pelo modelo em vez da serializacao padrao")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *pasta == "" || *tipo == "" {
		fmt.Fprintln(os.Stderr, "uso: acervo-batch -pasta <dir> -tipo <NASCIMENTO|CASAMENTO|OBITO> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	tr := constants.TipoRegistro(strings.ToUpper(*tipo))
	if _, ok := constants.Vocabulario[tr]; !ok {
		logger.Error("tipo de registro invalido", "tipo", *tipo)
		os.Exit(2)
	}
	ta := constants.TipoAto(strings.ToUpper(*acao))
	if ta != constants.Inclusao && ta != constants.Alteracao {
		logger.Error("acao invalida", "acao", *acao)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuracao invalida", "err", err)
		os.Exit(1)
	}
	if *max <= 0 {
		*max = cfg.Pipeline.ChunkSize
	}

	ctx := context.Background()

	var client ai.Client
	if cfg.AI.Stub {
		logger.Warn("AI_STUB ativo; respostas do modelo serao simuladas")
		client = &ai.StubClient{Default: "{}"}
	} else {
		client = ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.PrimaryModel, cfg.AI.CallTimeout, logger)
	}

	var pstore prompt.Store
	if sqlStore, err := prompt.OpenSQLStore(ctx, cfg.Database.Driver, cfg.Database.DSN, logger); err == nil {
		pstore = sqlStore
		defer sqlStore.Close()
	} else {
		logger.Warn("banco de prompts indisponivel; usando templates embutidos", "err", err)
	}

	workDir, err := os.MkdirTemp("", "acervo-batch-*")
	if err != nil {
		logger.Error("criacao do diretorio de trabalho falhou", "err", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workDir)

	jobStore, err := job.NewStore(workDir)
	if err != nil {
		logger.Error("inicializacao do estado de job falhou", "err", err)
		os.Exit(1)
	}
	mgr := job.NewManager(jobStore, logger)

	retry := ai.RetryPolicy{MaxAttempts: cfg.AI.MaxAttempts, BackoffBase: cfg.AI.BackoffBase}
	processor := pipeline.NewProcessor(
		mgr,
		textract.NewExtractor(client, cfg.AI.PrimaryModel, pstore, cfg.Pipeline.PreviewChars, logger),
		extract.NewClassifier(client, cfg.AI.PrimaryModel, cfg.AI.FallbackModel, pstore, logger),
		extract.NewExtractor(client, cfg.AI.PrimaryModel, cfg.AI.FallbackModel, retry, pstore, cfg.AI.MaxPromptChars, logger),
		evidence.NewFilter(logger),
		nil,
		cfg.Pipeline,
		logger,
	)

	st, err := mgr.Create(&job.Inputs{
		Pasta: *pasta,
		Params: job.Params{
			TipoRegistro:      tr,
			Acao:              ta,
			CNS:               *cns,
			MaxPorArquivo:     *max,
			InclusoesPrimeiro: cfg.Pipeline.InclusoesPrimeiro,
		},
	})
	if err != nil {
		logger.Error("criacao do job falhou", "err", err)
		os.Exit(1)
	}

	processor.Run(ctx, st.ID)

	final, err := mgr.GetStatus(st.ID)
	if err != nil {
		logger.Error("leitura do estado final falhou", "err", err)
		os.Exit(1)
	}
	for _, msg := range final.Messages {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", msg.Level, msg.Message)
	}
	if final.Status != constants.JobStatusDone {
		logger.Error("processamento falhou", "status", final.Status, "err", final.Error)
		os.Exit(1)
	}

	det := &xmlout.Serializer{}
	carga := &pipeline.Carga{
		Mgr: mgr,
		Det: det,
		IA:  &xmlout.IASerializer{Det: det, Client: client, Model: cfg.AI.PrimaryModel, Store: pstore, Log: logger},
		Log: logger,
	}
	files, err := carga.Generate(ctx, st.ID, pipeline.CargaOptions{UsarIA: *usarIA})
	if err != nil {
		logger.Error("geracao da carga falhou", "err", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*saida, 0o755); err != nil {
		logger.Error("criacao do diretorio de saida falhou", "err", err)
		os.Exit(1)
	}
	for _, f := range files {
		dst := filepath.Join(*saida, f.Name)
		if err := os.WriteFile(dst, f.Content, 0o644); err != nil {
			logger.Error("gravacao do arquivo falhou", "arquivo", dst, "err", err)
			os.Exit(1)
		}
		fmt.Println(dst)
	}
}
