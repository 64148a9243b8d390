// Package display renders query results and topic reports for the terminal.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/ggr/internal/gerrit"
	"github.com/pders01/ggr/internal/models"
)

// Format is an output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	// FormatToon is the LLM-friendly toon encoding
	FormatToon Format = "toon"
)

// DefaultFields are shown when no field list is given
var DefaultFields = []string{"project", "_number", "status", "subject"}

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatToon:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: text, json, toon)", s)
	}
}

// SelectFields picks the named fields of every change from the dynamic JSON
// tree. Fields a change does not have are left out of its map.
func SelectFields(infos *gerrit.ChangeInfos, fields []string) ([]map[string]any, error) {
	raw, err := rawChanges(infos)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		row := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := obj[f]; ok {
				row[f] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rawChanges returns the dynamic tree, rebuilding it from the typed changes
// when it was not kept.
func rawChanges(infos *gerrit.ChangeInfos) ([]any, error) {
	if infos == nil {
		return nil, nil
	}
	if infos.Raw != nil {
		return infos.Raw, nil
	}
	data, err := json.Marshal(infos.Changes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal changes: %w", err)
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to rebuild changes: %w", err)
	}
	return raw, nil
}

// Changes writes the selected fields of every change in the given format.
func Changes(w io.Writer, infos *gerrit.ChangeInfos, fields []string, format Format) error {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	rows, err := SelectFields(infos, fields)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatToon:
		return writeToon(w, rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No changes found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(fields, "\t")))
	for _, row := range rows {
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = formatValue(row[f])
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	return tw.Flush()
}

// Report writes a topic report. Text output is only the closing tally, the
// operation prints its per-repository lines while it runs.
func Report(w io.Writer, report *models.Report, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatToon:
		return writeToon(w, report)
	}

	fmt.Fprintf(w, "%d ok, %d failed, %d total\n", len(report.Succeeded()), len(report.Failed()), len(report.Results))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func writeToon(w io.Writer, v any) error {
	output, err := gotoon.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode Toon: %w", err)
	}
	_, err = fmt.Fprintln(w, output)
	return err
}

// formatValue renders a JSON value for a table cell. Whole numbers print
// without an exponent.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}
