package openai

import (
	"fmt"
	"strings"

	"github.com/govdata-ar/rendicion-tracker/internal/llm"
	"github.com/govdata-ar/rendicion-tracker/internal/schemas"
)

const systemPrompt = `Sos un extractor de tablas contables desde reportes municipales ("Rendición de Cuentas").
Devolvés SOLO JSON válido siguiendo el JSON Schema provisto.
No inventes filas. Si un dato no está, dejalo en null.
Ignorá encabezados, subtítulos, totales, separadores y filas decorativas.
Normalizá números: "1.234,56" => 1234.56 y "(123,45)" => -123.45.
Mantené los códigos exactamente como aparecen en el documento.`

// Per-table extraction rules, distilled from the report layouts the
// pipeline has seen in production.
var tableInstructions = map[string]string{
	schemas.Jurisdiccion: `Extraé las Jurisdicciones de la tabla "Evolución de Gastos por Programa".
- La tabla mezcla niveles: filas de Jurisdicción (nivel superior) y filas de Programa (subnivel).
- Identificá jurisdicciones por su código numeral de inicio; deduplicá códigos repetidos.
- Juri_Grupo es "Departamento Ejecutivo" o "H.C.D." si aplica.`,
	schemas.Programas: `Extraé los Programas de la tabla "Evolución de Gastos por Programa".
- Cada programa debe quedar asociado a su jurisdicción vía Juri_Codigo.
- Capturá los montos disponibles: vigente, preventivo, compromiso, devengado, pagado.`,
	schemas.Metas: `Extraé la tabla "Evolución de las principales metas de programas".
- Cada fila representa una meta vinculada a un programa.
- Capturá código/nombre de meta, unidad de medida (entre paréntesis) y los valores del período:
  Meta_Anual, Meta_Parcial, Meta_Ejecutado, en ese orden de columnas.
- Capturá el código y nombre del programa, y el código de jurisdicción si aparece.
- Metas con valores incompletos se cargan igual dejando nulls.`,
}

func buildUserPrompt(req llm.ExtractRequest) string {
	var b strings.Builder
	instructions, ok := tableInstructions[req.Schema.Name]
	if !ok {
		instructions = fmt.Sprintf("Extraé los registros de la tabla %q.", req.Schema.Name)
	}
	b.WriteString(instructions)
	b.WriteString("\n\n")
	if req.Municipio != "" || req.Periodo != "" {
		fmt.Fprintf(&b, "Contexto: municipio %q, período %q.\n\n", req.Municipio, req.Periodo)
	}
	b.WriteString("Texto extraído del documento:\n")
	b.WriteString(req.Text)
	return b.String()
}
