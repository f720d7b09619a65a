package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/govdata-ar/rendicion-tracker/internal/common"
	"github.com/govdata-ar/rendicion-tracker/internal/eventlog"
	"github.com/govdata-ar/rendicion-tracker/internal/llm"
	"github.com/govdata-ar/rendicion-tracker/internal/llm/openai"
	"github.com/govdata-ar/rendicion-tracker/internal/pipeline"
	"github.com/govdata-ar/rendicion-tracker/internal/router"
	"github.com/govdata-ar/rendicion-tracker/internal/schemas"
	"github.com/govdata-ar/rendicion-tracker/internal/source"
	"github.com/govdata-ar/rendicion-tracker/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		pdfPath   = flag.String("pdf", "", "path to the Rendición de Cuentas PDF")
		xlsxPath  = flag.String("xlsx", "", "path to an XLSX export (alternative to --pdf)")
		municipio = flag.String("municipio", "", "municipality name (required)")
		periodo   = flag.String("periodo", "", "reporting period, e.g. \"Q1 2025\" (required)")
		tipo      = flag.String("tipo", "Rendicion", "document type")
		nombre    = flag.String("nombre", "", "document name (defaults to the source file name)")
	)
	flag.Parse()

	if (*pdfPath == "") == (*xlsxPath == "") {
		printError("Error: exactly one of --pdf or --xlsx is required\n")
		return 2
	}
	if *municipio == "" || *periodo == "" {
		printError("Error: --municipio and --periodo are required\n")
		return 2
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		return 1
	}

	runLog, err := eventlog.New(cfg.Ingest.LogDir)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}
	defer runLog.Close()
	logger := runLog.Logger

	path := *pdfPath
	loadPages := source.LoadPDFPages
	if *xlsxPath != "" {
		path = *xlsxPath
		loadPages = source.LoadXLSXPages
	}
	pages, err := loadPages(path)
	if err != nil {
		logger.Error("ingest.source_unreadable", "path", path, "error", err)
		return 1
	}
	doc := &source.Document{
		Municipio: *municipio,
		Nombre:    docName(*nombre, path),
		Tipo:      *tipo,
		Periodo:   *periodo,
		Path:      path,
		Pages:     pages,
	}
	if doc.Empty() {
		logger.Error("ingest.source_empty", "path", path)
		return 1
	}

	registry, err := schemas.New()
	if err != nil {
		logger.Error("ingest.schema_setup_failed", "error", err)
		return 1
	}
	st, err := store.NewSupabaseStore(cfg.Supabase, logger)
	if err != nil {
		logger.Error("ingest.store_setup_failed", "error", err)
		return 1
	}

	orchestrator := &pipeline.Orchestrator{
		Log:       logger,
		Router:    router.New(),
		Registry:  registry,
		Extractor: openai.NewClient(cfg.LLM, logger),
		Retry: llm.RetryPolicy{
			MaxRetries: cfg.Ingest.MaxRetries,
			Sleep:      cfg.Ingest.RetrySleep,
			Logger:     logger,
		},
		Persister: store.NewPersister(st, logger, cfg.Ingest.MetasStagingTable, cfg.Ingest.MetasPayloadColumn),
		Store:     st,
	}

	outcome, err := orchestrator.Run(context.Background(), doc)
	if err != nil {
		logger.Error("ingest.aborted", "error", err)
		return 1
	}

	// A completed run exits 0 even when some schemas failed; the summary
	// and the run log carry everything needed for remediation.
	summary, _ := json.MarshalIndent(outcome, "", "  ")
	fmt.Println(string(summary))
	return 0
}

func docName(name, path string) string {
	if name != "" {
		return name
	}
	return filepath.Base(path)
}
