package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govdata-ar/rendicion-tracker/internal/common"
)

func mustUnmarshal(t *testing.T, raw string) any {
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestRegistry(t *testing.T) {
	registry, err := New()
	require.NoError(t, err)

	t.Run("names in extraction order", func(t *testing.T) {
		assert.Equal(t, []string{Jurisdiccion, Programas, Metas}, registry.Names())
	})

	t.Run("known schemas resolve", func(t *testing.T) {
		for _, name := range registry.Names() {
			entry, err := registry.Get(name)
			require.NoError(t, err)
			assert.Equal(t, name, entry.Name)
			assert.NotNil(t, entry.Compiled)
		}
	})

	t.Run("unknown schema is a config error", func(t *testing.T) {
		_, err := registry.Get("gastos")
		require.Error(t, err)
		assert.True(t, common.IsConfigError(err))
	})
}

func TestSchemaValidation(t *testing.T) {
	registry, err := New()
	require.NoError(t, err)

	t.Run("valid metas payload", func(t *testing.T) {
		entry, err := registry.Get(Metas)
		require.NoError(t, err)

		payload := mustUnmarshal(t, `{"records": [
			{"Meta_Codigo": "01", "Meta_Nombre": "Bacheo", "Meta_Unidad": "m2",
			 "Meta_Anual": 500, "Meta_Parcial": 250, "Meta_Ejecutado": 240.5,
			 "Juri_Codigo": "1110100000", "Prog_Codigo": "01", "Prog_Nombre": "Obras"}
		]}`)
		assert.NoError(t, entry.Validate(payload))
	})

	t.Run("nulls allowed for metric fields", func(t *testing.T) {
		entry, err := registry.Get(Metas)
		require.NoError(t, err)

		payload := mustUnmarshal(t, `{"records": [
			{"Meta_Nombre": "Bacheo", "Meta_Anual": null, "Prog_Codigo": null}
		]}`)
		assert.NoError(t, entry.Validate(payload))
	})

	t.Run("missing required field rejected", func(t *testing.T) {
		entry, err := registry.Get(Metas)
		require.NoError(t, err)

		payload := mustUnmarshal(t, `{"records": [{"Meta_Codigo": "01"}]}`)
		assert.Error(t, entry.Validate(payload))
	})

	t.Run("unexpected field rejected", func(t *testing.T) {
		entry, err := registry.Get(Jurisdiccion)
		require.NoError(t, err)

		payload := mustUnmarshal(t, `{"records": [{"Juri_Codigo": "1", "Invento": true}]}`)
		assert.Error(t, entry.Validate(payload))
	})

	t.Run("string amount rejected by programas schema", func(t *testing.T) {
		entry, err := registry.Get(Programas)
		require.NoError(t, err)

		payload := mustUnmarshal(t, `{"records": [
			{"Prog_Nombre": "Obras", "Prog_Vigente": "1.234,56"}
		]}`)
		assert.Error(t, entry.Validate(payload))
	})

	t.Run("records wrapper required", func(t *testing.T) {
		entry, err := registry.Get(Programas)
		require.NoError(t, err)
		assert.Error(t, entry.Validate(mustUnmarshal(t, `[]`)))
	})
}
