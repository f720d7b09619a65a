package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	pages := []string{
		"Estado de Situacion Patrimonial\nACTIVO CORRIENTE 1.000,00",
		"Evolucion de Gastos por Programa\nJurisdiccion 1110100000 Presupuesto vigente",
		"Evolucion de las principales metas de programas\n01 Bacheo (m2) 500 250 240",
	}

	r := New()

	t.Run("programas section found by keywords", func(t *testing.T) {
		match := r.Route(pages, "programas")
		assert.True(t, match.Matched)
		assert.Equal(t, []int{2}, match.Pages)
		assert.Contains(t, match.Text, "Gastos por Programa")
		assert.NotContains(t, match.Text, "Situacion Patrimonial")
	})

	t.Run("metas section found by keywords", func(t *testing.T) {
		match := r.Route(pages, "metas")
		assert.True(t, match.Matched)
		assert.Equal(t, []int{3}, match.Pages)
		assert.Contains(t, match.Text, "principales metas")
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		upper := []string{strings.ToUpper(pages[2])}
		match := r.Route(upper, "metas")
		assert.True(t, match.Matched)
	})

	t.Run("miss falls back to full document", func(t *testing.T) {
		noise := []string{"pagina uno sin encabezados", "pagina dos sin encabezados"}
		match := r.Route(noise, "metas")
		assert.False(t, match.Matched)
		assert.Empty(t, match.Pages)
		assert.Equal(t, "pagina uno sin encabezados\n\npagina dos sin encabezados", match.Text)
	})

	t.Run("single keyword hit is not enough", func(t *testing.T) {
		weak := []string{"aca se menciona un programa pero nada mas"}
		match := r.Route(weak, "programas")
		assert.False(t, match.Matched)
	})

	t.Run("unknown schema falls back to full document", func(t *testing.T) {
		match := r.Route(pages, "desconocido")
		assert.False(t, match.Matched)
		assert.NotEmpty(t, match.Text)
	})

	t.Run("never returns empty text for a non-empty document", func(t *testing.T) {
		for _, schema := range []string{"jurisdiccion", "programas", "metas", "otra"} {
			match := r.Route(pages, schema)
			require.NotEmpty(t, match.Text, "schema %s", schema)
		}
	})

	t.Run("multiple matching pages are joined in order", func(t *testing.T) {
		doubled := append(append([]string{}, pages...),
			"Evolucion de las principales metas de programas, continuacion")
		match := r.Route(doubled, "metas")
		assert.True(t, match.Matched)
		assert.Equal(t, []int{3, 4}, match.Pages)
		assert.Contains(t, match.Text, "continuacion")
	})
}
