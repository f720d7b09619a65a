// Package store persists extracted records into the relational store. The
// Store interface is the database client boundary; the pipeline only knows
// upsert/insert primitives and the document registry.
package store

import "context"

// Row is one table row ready for persistence, keyed by column name.
type Row = map[string]any

// Target tables.
const (
	TableJurisdiccion = "jurisdiccion"
	TableProgramas    = "programas"
	TableMetas        = "metas"
	TableDocumentos   = "documentos_cargados"
)

// Natural conflict keys per table. Everything is scoped to the document so
// re-running an ingest for the same document converges instead of
// duplicating rows.
const (
	ConflictJurisdiccion  = "ID_DocumentoCargado,Juri_Codigo"
	ConflictProgramas     = "ID_DocumentoCargado,Juri_Codigo,Prog_Codigo"
	ConflictMetasByCodigo = "ID_DocumentoCargado,Juri_Codigo,Prog_Codigo,Meta_Codigo"
	ConflictMetasByNombre = "ID_DocumentoCargado,Juri_Codigo,Prog_Codigo,Meta_Nombre"
)

// DocumentMeta is the registry row created for each ingestion run.
type DocumentMeta struct {
	Municipio string
	Nombre    string
	Tipo      string
	Periodo   string
}

// Store is the database client surface the pipeline depends on.
type Store interface {
	// Upsert inserts or updates rows on the natural key named by onConflict.
	Upsert(ctx context.Context, table string, rows []Row, onConflict string) error
	// Insert appends rows without conflict handling (staging table path).
	Insert(ctx context.Context, table string, rows []Row) error
	// CreateDocument registers the run and returns the new document ID.
	CreateDocument(ctx context.Context, meta DocumentMeta) (string, error)
	// UpdateDocumentStatus records the final state and summary for a run.
	UpdateDocumentStatus(ctx context.Context, docID, estado string, resumen any) error
}
