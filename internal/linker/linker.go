// Package linker resolves extracted metas to programas via composite code
// matching. This join, not raw extraction, is where referential integrity is
// decided: the LLM output is not guaranteed internally consistent, so the
// linker tolerates duplicate and missing codes instead of raising.
package linker

import (
	"fmt"
	"strings"

	"github.com/govdata-ar/rendicion-tracker/internal/llm"
)

// Reason classifies why a meta could not be linked.
type Reason string

const (
	ReasonNoProgramCode Reason = "no_program_code"
	ReasonNoMatchFound  Reason = "no_match_found"
)

// UnlinkedMeta is a meta with no matching programa, kept for the staging or
// drop-and-log path.
type UnlinkedMeta struct {
	Record llm.Record
	Reason Reason
}

// Result partitions the metas of one document and carries non-fatal
// warnings (duplicate programa keys, first occurrence kept).
type Result struct {
	Linked   []llm.Record
	Unlinked []UnlinkedMeta
	Warnings []string
}

// Link matches each meta against the programas extracted from the same
// document. A meta matches when Prog_Codigo is equal and, if the meta
// carries a Juri_Codigo, that must also equal the programa's Juri_Codigo.
// Linked metas get the matched programa's Juri_Codigo filled in so their
// persistence key is complete. Never errors.
func Link(metas, programas []llm.Record) Result {
	var result Result

	byComposite := make(map[string]llm.Record)
	byProgCode := make(map[string]llm.Record)
	for _, programa := range programas {
		progCode := codeField(programa, "Prog_Codigo")
		if progCode == "" {
			continue
		}
		juriCode := codeField(programa, "Juri_Codigo")
		key := juriCode + "::" + progCode
		if _, dup := byComposite[key]; dup {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("duplicate programa key (Juri_Codigo=%q, Prog_Codigo=%q), keeping first occurrence", juriCode, progCode))
			continue
		}
		byComposite[key] = programa
		if _, seen := byProgCode[progCode]; !seen {
			byProgCode[progCode] = programa
		}
	}

	for _, meta := range metas {
		progCode := codeField(meta, "Prog_Codigo")
		if progCode == "" {
			result.Unlinked = append(result.Unlinked, UnlinkedMeta{Record: meta, Reason: ReasonNoProgramCode})
			continue
		}
		juriCode := codeField(meta, "Juri_Codigo")

		var programa llm.Record
		var found bool
		if juriCode != "" {
			programa, found = byComposite[juriCode+"::"+progCode]
		} else {
			programa, found = byProgCode[progCode]
		}
		if !found {
			result.Unlinked = append(result.Unlinked, UnlinkedMeta{Record: meta, Reason: ReasonNoMatchFound})
			continue
		}

		if juriCode == "" {
			if matched := codeField(programa, "Juri_Codigo"); matched != "" {
				meta["Juri_Codigo"] = matched
			}
		}
		result.Linked = append(result.Linked, meta)
	}
	return result
}

func codeField(record llm.Record, field string) string {
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
