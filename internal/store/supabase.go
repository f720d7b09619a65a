package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	supabase "github.com/supabase-community/supabase-go"

	"github.com/govdata-ar/rendicion-tracker/internal/common"
)

// SupabaseStore implements Store over the Supabase PostgREST API, the same
// surface the rest of the platform uses for these tables.
type SupabaseStore struct {
	client *supabase.Client
	log    *slog.Logger
}

// NewSupabaseStore builds the REST client. No connection is opened here;
// PostgREST is stateless per request.
func NewSupabaseStore(cfg common.SupabaseConfig, logger *slog.Logger) (*SupabaseStore, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, common.NewConfigError("supabase URL and key are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := supabase.NewClient(cfg.URL, cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return &SupabaseStore{client: client, log: logger}, nil
}

// Upsert inserts or updates rows on the named conflict target.
func (s *SupabaseStore) Upsert(ctx context.Context, table string, rows []Row, onConflict string) error {
	if len(rows) == 0 {
		return nil
	}
	_, _, err := s.client.From(table).Upsert(rows, onConflict, "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	return nil
}

// Insert appends rows without conflict handling.
func (s *SupabaseStore) Insert(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	_, _, err := s.client.From(table).Insert(rows, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// CreateDocument registers the ingestion run with estado "iniciado" and
// returns the assigned document ID.
func (s *SupabaseStore) CreateDocument(ctx context.Context, meta DocumentMeta) (string, error) {
	row := Row{
		"Municipio": meta.Municipio,
		"Nombre":    meta.Nombre,
		"Tipo":      meta.Tipo,
		"Periodo":   meta.Periodo,
		"Estado":    "iniciado",
	}
	data, _, err := s.client.From(TableDocumentos).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return "", fmt.Errorf("create document row: %w", err)
	}
	var created []map[string]any
	if err := json.Unmarshal(data, &created); err != nil || len(created) == 0 {
		return "", fmt.Errorf("document row response not usable: %w", err)
	}
	docID := idOf(created[0])
	if docID == "" {
		return "", fmt.Errorf("document row response carries no ID")
	}
	s.log.Info("store.document.created", "doc_id", docID, "municipio", meta.Municipio)
	return docID, nil
}

// UpdateDocumentStatus records the final state with the run summary
// serialized into ResumenCarga.
func (s *SupabaseStore) UpdateDocumentStatus(ctx context.Context, docID, estado string, resumen any) error {
	summary, err := json.Marshal(resumen)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	row := Row{
		"Estado":       estado,
		"ResumenCarga": string(summary),
	}
	_, _, err = s.client.From(TableDocumentos).Update(row, "minimal", "").
		Eq("ID_DocumentoCargado", docID).Execute()
	if err != nil {
		return fmt.Errorf("update document %s: %w", docID, err)
	}
	return nil
}

func idOf(row map[string]any) string {
	for _, key := range []string{"ID_DocumentoCargado", "id"} {
		if value, ok := row[key]; ok && value != nil {
			return fmt.Sprint(value)
		}
	}
	return ""
}
