package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/govdata-ar/rendicion-tracker/internal/linker"
	"github.com/govdata-ar/rendicion-tracker/internal/llm"
)

// FailedRow is one row that could not be persisted, with the error text kept
// for manual remediation.
type FailedRow struct {
	Row Row
	Err string
}

// PersistResult tallies one table's batch. Failures are reported, never
// raised: a single bad record must not abort the batch.
type PersistResult struct {
	Table    string
	Upserted int
	Failed   []FailedRow
}

// MetasOutcome tracks every terminal state a meta can reach.
type MetasOutcome struct {
	Persisted int
	Staged    int
	Dropped   int
	Failed    []FailedRow
}

// Persister writes resolved records to their target tables and routes
// unlinked metas to the staging table or the drop-and-log path.
type Persister struct {
	store         Store
	log           *slog.Logger
	stagingTable  string
	payloadColumn string
}

func NewPersister(st Store, logger *slog.Logger, stagingTable, payloadColumn string) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	if payloadColumn == "" {
		payloadColumn = "Meta_Valores"
	}
	return &Persister{
		store:         st,
		log:           logger,
		stagingTable:  stagingTable,
		payloadColumn: payloadColumn,
	}
}

// Upsert writes rows to table with the given conflict target. The batch is
// tried whole first; on failure it degrades to per-row upserts so healthy
// rows still land and only the offenders are reported.
func (p *Persister) Upsert(ctx context.Context, table string, rows []Row, onConflict string) PersistResult {
	result := PersistResult{Table: table}
	if len(rows) == 0 {
		return result
	}
	if err := p.store.Upsert(ctx, table, rows, onConflict); err == nil {
		result.Upserted = len(rows)
		return result
	} else {
		p.log.Warn("persist.batch_failed", "table", table, "rows", len(rows), "error", err)
	}
	for _, row := range rows {
		if err := p.store.Upsert(ctx, table, []Row{row}, onConflict); err != nil {
			p.log.Error("persist.row_failed", "table", table, "error", err)
			result.Failed = append(result.Failed, FailedRow{Row: row, Err: err.Error()})
			continue
		}
		result.Upserted++
	}
	return result
}

// PersistMetas writes linked metas to the metas table and unlinked ones to
// the staging table when configured; without a staging table unlinked metas
// are dropped, each with a log entry.
func (p *Persister) PersistMetas(ctx context.Context, docID string, linked []llm.Record, unlinked []linker.UnlinkedMeta) MetasOutcome {
	var outcome MetasOutcome

	// Metas without a Meta_Codigo upsert on Meta_Nombre instead; the two
	// groups carry different natural keys.
	var byCodigo, byNombre []Row
	for _, record := range linked {
		row := MetaRow(docID, record, p.payloadColumn)
		if row["Meta_Codigo"] == "" {
			byNombre = append(byNombre, row)
		} else {
			byCodigo = append(byCodigo, row)
		}
	}
	for _, batch := range []struct {
		rows       []Row
		onConflict string
	}{
		{byCodigo, ConflictMetasByCodigo},
		{byNombre, ConflictMetasByNombre},
	} {
		result := p.Upsert(ctx, TableMetas, batch.rows, batch.onConflict)
		outcome.Persisted += result.Upserted
		outcome.Failed = append(outcome.Failed, result.Failed...)
	}

	for _, meta := range unlinked {
		if p.stagingTable == "" {
			p.log.Warn("persist.meta_dropped",
				"doc_id", docID,
				"reason", string(meta.Reason),
				"meta_nombre", meta.Record["Meta_Nombre"],
				"prog_codigo", meta.Record["Prog_Codigo"],
			)
			outcome.Dropped++
			continue
		}
		row := StagingRow(docID, meta.Record, string(meta.Reason))
		if err := p.store.Insert(ctx, p.stagingTable, []Row{row}); err != nil {
			p.log.Error("persist.staging_failed", "doc_id", docID, "error", err)
			outcome.Failed = append(outcome.Failed, FailedRow{Row: row, Err: err.Error()})
			continue
		}
		p.log.Info("persist.meta_staged",
			"doc_id", docID,
			"reason", string(meta.Reason),
			"meta_nombre", meta.Record["Meta_Nombre"],
		)
		outcome.Staged++
	}
	return outcome
}

// PersistRecords maps and upserts the records of one non-meta table.
func (p *Persister) PersistRecords(ctx context.Context, docID, table string, records []llm.Record) (PersistResult, error) {
	var rows []Row
	var onConflict string
	switch table {
	case TableJurisdiccion:
		onConflict = ConflictJurisdiccion
		for _, record := range records {
			rows = append(rows, JurisdiccionRow(docID, record))
		}
	case TableProgramas:
		onConflict = ConflictProgramas
		for _, record := range records {
			rows = append(rows, ProgramaRow(docID, record))
		}
	default:
		return PersistResult{Table: table}, fmt.Errorf("no row mapping for table %q", table)
	}
	return p.Upsert(ctx, table, rows, onConflict), nil
}
