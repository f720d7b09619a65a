// Package pipeline sequences one document through routing, extraction,
// linking and persistence. Schemas are processed strictly one at a time:
// extraction calls are rate-limited externally and retry bookkeeping stays
// simple with no concurrency inside a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/govdata-ar/rendicion-tracker/internal/linker"
	"github.com/govdata-ar/rendicion-tracker/internal/llm"
	"github.com/govdata-ar/rendicion-tracker/internal/router"
	"github.com/govdata-ar/rendicion-tracker/internal/schemas"
	"github.com/govdata-ar/rendicion-tracker/internal/source"
	"github.com/govdata-ar/rendicion-tracker/internal/store"
)

// Outcome is the final tally of one run. It is always produced, even when
// some schemas or records failed along the way.
type Outcome struct {
	DocID          string         `json:"doc_id"`
	Persisted      map[string]int `json:"persisted"`
	MetasPersisted int            `json:"metas_persisted"`
	MetasStaged    int            `json:"metas_staged"`
	MetasDropped   int            `json:"metas_dropped"`
	FailedSchemas  []string       `json:"failed_schemas,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// Orchestrator wires the pipeline stages for one document at a time.
type Orchestrator struct {
	Log       *slog.Logger
	Router    *router.Router
	Registry  *schemas.Registry
	Extractor llm.Extractor
	Retry     llm.RetryPolicy
	Persister *store.Persister
	Store     store.Store
}

// Run ingests one document end to end. Only setup-level problems (document
// registration, unknown schema names, context cancellation) return an
// error; per-schema extraction failures and per-record persistence failures
// are logged, reflected in the Outcome, and do not abort the run.
func (o *Orchestrator) Run(ctx context.Context, doc *source.Document) (*Outcome, error) {
	log := o.Log
	if log == nil {
		log = slog.Default()
	}

	docID, err := o.Store.CreateDocument(ctx, store.DocumentMeta{
		Municipio: doc.Municipio,
		Nombre:    doc.Nombre,
		Tipo:      doc.Tipo,
		Periodo:   doc.Periodo,
	})
	if err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}

	outcome := &Outcome{
		DocID:     docID,
		Persisted: make(map[string]int),
	}
	log.Info("ingest.start", "doc_id", docID, "municipio", doc.Municipio, "periodo", doc.Periodo, "pages", len(doc.Pages))

	extracted := make(map[string][]llm.Record)
	for _, name := range o.Registry.Names() {
		entry, err := o.Registry.Get(name)
		if err != nil {
			return nil, err
		}

		match := o.Router.Route(doc.Pages, name)
		if match.Matched {
			log.Info("ingest.route", "schema", name, "pages", match.Pages)
		} else {
			log.Warn("ingest.route_fallback", "schema", name, "text_len", len(match.Text))
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("no confident section for schema %q, used full document", name))
		}

		records, err := o.Retry.Extract(ctx, o.Extractor, llm.ExtractRequest{
			Schema:    entry,
			Text:      match.Text,
			Municipio: doc.Municipio,
			Periodo:   doc.Periodo,
		})
		if err != nil {
			var failed *llm.ExtractionFailed
			if errors.As(err, &failed) {
				// Isolated: this schema yields zero records, the rest of
				// the document still gets ingested.
				log.Error("ingest.extraction_failed",
					"schema", name, "attempts", failed.Attempts, "error", failed.LastErr)
				outcome.FailedSchemas = append(outcome.FailedSchemas, name)
				outcome.Warnings = append(outcome.Warnings, failed.Error())
				continue
			}
			return nil, err
		}
		log.Info("ingest.extracted", "schema", name, "records", len(records))
		extracted[name] = records
	}

	outcome.Warnings = append(outcome.Warnings,
		structuralWarnings(extracted[schemas.Jurisdiccion], extracted[schemas.Programas])...)

	for _, table := range []string{store.TableJurisdiccion, store.TableProgramas} {
		result, err := o.Persister.PersistRecords(ctx, docID, table, extracted[table])
		if err != nil {
			return nil, err
		}
		outcome.Persisted[table] = result.Upserted
		for _, failure := range result.Failed {
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("persist failed in %s: %s", table, failure.Err))
		}
	}

	link := linker.Link(extracted[schemas.Metas], extracted[schemas.Programas])
	outcome.Warnings = append(outcome.Warnings, link.Warnings...)
	for _, unlinked := range link.Unlinked {
		log.Warn("ingest.meta_unlinked",
			"doc_id", docID,
			"reason", string(unlinked.Reason),
			"meta_nombre", unlinked.Record["Meta_Nombre"],
			"prog_codigo", unlinked.Record["Prog_Codigo"],
		)
	}

	metas := o.Persister.PersistMetas(ctx, docID, link.Linked, link.Unlinked)
	outcome.MetasPersisted = metas.Persisted
	outcome.MetasStaged = metas.Staged
	outcome.MetasDropped = metas.Dropped
	outcome.Persisted[store.TableMetas] = metas.Persisted
	for _, failure := range metas.Failed {
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("persist failed in %s: %s", store.TableMetas, failure.Err))
	}

	if err := o.Store.UpdateDocumentStatus(ctx, docID, "completado", outcome); err != nil {
		log.Warn("ingest.status_update_failed", "doc_id", docID, "error", err)
		outcome.Warnings = append(outcome.Warnings, "document status update failed: "+err.Error())
	}

	log.Info("ingest.done",
		"doc_id", docID,
		"jurisdiccion", outcome.Persisted[store.TableJurisdiccion],
		"programas", outcome.Persisted[store.TableProgramas],
		"metas_persisted", outcome.MetasPersisted,
		"metas_staged", outcome.MetasStaged,
		"metas_dropped", outcome.MetasDropped,
		"failed_schemas", outcome.FailedSchemas,
		"warnings", len(outcome.Warnings),
	)
	return outcome, nil
}

// structuralWarnings flags inconsistencies the schemas cannot express:
// empty result sets and programas referencing unknown jurisdicciones.
func structuralWarnings(jurisdicciones, programas []llm.Record) []string {
	var warnings []string
	if len(jurisdicciones) == 0 {
		warnings = append(warnings, "no jurisdicciones extracted")
	}
	if len(programas) == 0 {
		warnings = append(warnings, "no programas extracted")
	}
	known := make(map[string]bool, len(jurisdicciones))
	for _, juri := range jurisdicciones {
		if code, ok := juri["Juri_Codigo"].(string); ok && code != "" {
			known[code] = true
		}
	}
	for _, programa := range programas {
		code, _ := programa["Juri_Codigo"].(string)
		if code == "" {
			warnings = append(warnings,
				fmt.Sprintf("programa without Juri_Codigo: %v", programa["Prog_Nombre"]))
		} else if len(known) > 0 && !known[code] {
			warnings = append(warnings,
				fmt.Sprintf("programa %v references unknown Juri_Codigo %q", programa["Prog_Codigo"], code))
		}
	}
	return warnings
}
