package store

import (
	"fmt"
	"strings"

	"github.com/govdata-ar/rendicion-tracker/internal/llm"
)

// JurisdiccionRow maps an extracted jurisdiccion record to its table row.
func JurisdiccionRow(docID string, record llm.Record) Row {
	return Row{
		"ID_DocumentoCargado": docID,
		"Juri_Codigo":         codeOf(record, "Juri_Codigo"),
		"Juri_Nombre":         record["Juri_Nombre"],
		"Juri_Grupo":          record["Juri_Grupo"],
	}
}

// ProgramaRow maps an extracted programa record to its table row.
func ProgramaRow(docID string, record llm.Record) Row {
	return Row{
		"ID_DocumentoCargado": docID,
		"Juri_Codigo":         codeOf(record, "Juri_Codigo"),
		"Prog_Codigo":         codeOf(record, "Prog_Codigo"),
		"Prog_Nombre":         record["Prog_Nombre"],
		"Prog_Vigente":        record["Prog_Vigente"],
		"Prog_Preventivo":     record["Prog_Preventivo"],
		"Prog_Compromiso":     record["Prog_Compromiso"],
		"Prog_Devengado":      record["Prog_Devengado"],
		"Prog_Pagado":         record["Prog_Pagado"],
	}
}

// MetaRow maps a linked meta record to its table row. The metric values go
// into the configurable JSONB payload column; identity fields stay columns.
func MetaRow(docID string, record llm.Record, payloadColumn string) Row {
	return Row{
		"ID_DocumentoCargado": docID,
		"Juri_Codigo":         codeOf(record, "Juri_Codigo"),
		"Prog_Codigo":         codeOf(record, "Prog_Codigo"),
		"Meta_Codigo":         codeOf(record, "Meta_Codigo"),
		"Meta_Nombre":         record["Meta_Nombre"],
		payloadColumn: map[string]any{
			"Meta_Unidad":    record["Meta_Unidad"],
			"Meta_Anual":     record["Meta_Anual"],
			"Meta_Parcial":   record["Meta_Parcial"],
			"Meta_Ejecutado": record["Meta_Ejecutado"],
		},
	}
}

// StagingRow maps an unlinked meta to the staging table: the raw record plus
// the document reference and the reason it could not be linked.
func StagingRow(docID string, record llm.Record, reason string) Row {
	row := Row{
		"ID_DocumentoCargado": docID,
		"Motivo":              reason,
	}
	for field, value := range record {
		row[field] = value
	}
	return row
}

func codeOf(record llm.Record, field string) string {
	value, ok := record[field]
	if !ok || value == nil {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		text = fmt.Sprint(value)
	}
	return strings.TrimSpace(text)
}
