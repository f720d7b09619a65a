package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govdata-ar/rendicion-tracker/internal/linker"
	"github.com/govdata-ar/rendicion-tracker/internal/llm"
)

// fakeStore records every call and fails rows on demand.
type fakeStore struct {
	upserts  []call
	inserts  []call
	failRows func(table string, row Row) error
}

type call struct {
	table      string
	rows       []Row
	onConflict string
}

func (f *fakeStore) Upsert(ctx context.Context, table string, rows []Row, onConflict string) error {
	if f.failRows != nil {
		for _, row := range rows {
			if err := f.failRows(table, row); err != nil {
				return err
			}
		}
	}
	f.upserts = append(f.upserts, call{table: table, rows: rows, onConflict: onConflict})
	return nil
}

func (f *fakeStore) Insert(ctx context.Context, table string, rows []Row) error {
	if f.failRows != nil {
		for _, row := range rows {
			if err := f.failRows(table, row); err != nil {
				return err
			}
		}
	}
	f.inserts = append(f.inserts, call{table: table, rows: rows})
	return nil
}

func (f *fakeStore) CreateDocument(ctx context.Context, meta DocumentMeta) (string, error) {
	return "doc-1", nil
}

func (f *fakeStore) UpdateDocumentStatus(ctx context.Context, docID, estado string, resumen any) error {
	return nil
}

func metaRecord(nombre, progCodigo string) llm.Record {
	return llm.Record{
		"Meta_Nombre": nombre,
		"Meta_Codigo": "01",
		"Juri_Codigo": "1110100000",
		"Prog_Codigo": progCodigo,
		"Meta_Anual":  100.0,
	}
}

func TestPersisterUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("whole batch lands in one call", func(t *testing.T) {
		st := &fakeStore{}
		p := NewPersister(st, nil, "", "")

		rows := []Row{{"Juri_Codigo": "1"}, {"Juri_Codigo": "2"}}
		result := p.Upsert(ctx, TableJurisdiccion, rows, ConflictJurisdiccion)

		assert.Equal(t, 2, result.Upserted)
		assert.Empty(t, result.Failed)
		require.Len(t, st.upserts, 1)
		assert.Equal(t, ConflictJurisdiccion, st.upserts[0].onConflict)
	})

	t.Run("bad record does not abort the batch", func(t *testing.T) {
		st := &fakeStore{
			failRows: func(table string, row Row) error {
				if row["Juri_Codigo"] == "2" {
					return errors.New("violates constraint")
				}
				return nil
			},
		}
		p := NewPersister(st, nil, "", "")

		rows := []Row{{"Juri_Codigo": "1"}, {"Juri_Codigo": "2"}, {"Juri_Codigo": "3"}}
		result := p.Upsert(ctx, TableJurisdiccion, rows, ConflictJurisdiccion)

		assert.Equal(t, 2, result.Upserted)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, "2", result.Failed[0].Row["Juri_Codigo"])
		assert.Contains(t, result.Failed[0].Err, "constraint")
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		st := &fakeStore{}
		p := NewPersister(st, nil, "", "")
		result := p.Upsert(ctx, TableProgramas, nil, ConflictProgramas)
		assert.Equal(t, 0, result.Upserted)
		assert.Empty(t, st.upserts)
	})
}

func TestPersistMetas(t *testing.T) {
	ctx := context.Background()
	unlinked := []linker.UnlinkedMeta{
		{Record: metaRecord("Fantasma", "04"), Reason: linker.ReasonNoMatchFound},
	}

	t.Run("drop policy without staging table", func(t *testing.T) {
		st := &fakeStore{}
		p := NewPersister(st, nil, "", "")

		linked := []llm.Record{
			metaRecord("Bacheo", "01"),
			metaRecord("Vacunacion", "02"),
			metaRecord("Talleres", "03"),
		}
		outcome := p.PersistMetas(ctx, "doc-1", linked, unlinked)

		assert.Equal(t, 3, outcome.Persisted)
		assert.Equal(t, 0, outcome.Staged)
		assert.Equal(t, 1, outcome.Dropped)
		assert.Empty(t, st.inserts)
	})

	t.Run("staging table receives unlinked metas", func(t *testing.T) {
		st := &fakeStore{}
		p := NewPersister(st, nil, "metas_staging", "")

		outcome := p.PersistMetas(ctx, "doc-1", nil, unlinked)

		assert.Equal(t, 0, outcome.Dropped)
		assert.Equal(t, 1, outcome.Staged)
		require.Len(t, st.inserts, 1)
		assert.Equal(t, "metas_staging", st.inserts[0].table)
		row := st.inserts[0].rows[0]
		assert.Equal(t, "doc-1", row["ID_DocumentoCargado"])
		assert.Equal(t, "no_match_found", row["Motivo"])
		assert.Equal(t, "Fantasma", row["Meta_Nombre"])
	})

	t.Run("metas split by conflict key", func(t *testing.T) {
		st := &fakeStore{}
		p := NewPersister(st, nil, "", "")

		withCodigo := metaRecord("Bacheo", "01")
		sinCodigo := metaRecord("Sin codigo", "02")
		sinCodigo["Meta_Codigo"] = nil

		outcome := p.PersistMetas(ctx, "doc-1", []llm.Record{withCodigo, sinCodigo}, nil)
		assert.Equal(t, 2, outcome.Persisted)

		require.Len(t, st.upserts, 2)
		assert.Equal(t, ConflictMetasByCodigo, st.upserts[0].onConflict)
		assert.Equal(t, ConflictMetasByNombre, st.upserts[1].onConflict)
	})

	t.Run("payload column carries the metric values", func(t *testing.T) {
		st := &fakeStore{}
		p := NewPersister(st, nil, "", "Meta_Valores")

		outcome := p.PersistMetas(ctx, "doc-1", []llm.Record{metaRecord("Bacheo", "01")}, nil)
		assert.Equal(t, 1, outcome.Persisted)

		require.Len(t, st.upserts, 1)
		row := st.upserts[0].rows[0]
		payload, ok := row["Meta_Valores"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 100.0, payload["Meta_Anual"])
	})

	t.Run("staging failure is reported, not raised", func(t *testing.T) {
		st := &fakeStore{
			failRows: func(table string, row Row) error {
				if table == "metas_staging" {
					return fmt.Errorf("connection reset")
				}
				return nil
			},
		}
		p := NewPersister(st, nil, "metas_staging", "")

		outcome := p.PersistMetas(ctx, "doc-1", nil, unlinked)
		assert.Equal(t, 0, outcome.Staged)
		require.Len(t, outcome.Failed, 1)
		assert.Contains(t, outcome.Failed[0].Err, "connection reset")
	})
}

func TestPersistRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("jurisdiccion rows", func(t *testing.T) {
		st := &fakeStore{}
		p := NewPersister(st, nil, "", "")

		records := []llm.Record{{"Juri_Codigo": "1110100000", "Juri_Nombre": "Ejecutivo"}}
		result, err := p.PersistRecords(ctx, "doc-1", TableJurisdiccion, records)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Upserted)

		row := st.upserts[0].rows[0]
		assert.Equal(t, "doc-1", row["ID_DocumentoCargado"])
		assert.Equal(t, "1110100000", row["Juri_Codigo"])
	})

	t.Run("unknown table is an error", func(t *testing.T) {
		p := NewPersister(&fakeStore{}, nil, "", "")
		_, err := p.PersistRecords(ctx, "doc-1", "gastos", nil)
		assert.Error(t, err)
	})
}
