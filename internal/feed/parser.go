package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/model"
	"github.com/user/retro-tv-go/internal/platform"
)

// gvizMarker identifies the wrapped JSON-table export format produced
// by published sheets.
const gvizMarker = "google.visualization.Query.setResponse"

// ParseRows converts a raw feed body into column tuples. Format "auto"
// sniffs the gviz wrapper before falling back to delimited text. The
// CSV header row is skipped; gviz responses carry their header outside
// the row set.
func ParseRows(body string, format string) ([][]string, error) {
	switch format {
	case config.FormatGviz:
		return parseGvizRows(body)
	case config.FormatCSV:
		return parseCSVRows(body), nil
	default:
		if strings.Contains(body, gvizMarker) {
			return parseGvizRows(body)
		}
		return parseCSVRows(body), nil
	}
}

// parseCSVRows splits delimited text into rows, skipping the header.
func parseCSVRows(body string) [][]string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	var rows [][]string
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, splitCSVLine(line))
	}
	return rows
}

// splitCSVLine splits one delimited line on commas without breaking on
// commas embedded inside double-quoted fields. Doubled quotes inside a
// quoted field unescape to a single quote.
func splitCSVLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if quoted && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			quoted = !quoted
		case ch == ',' && !quoted:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// gvizResponse mirrors the subset of the JSON-table payload this loader
// reads.
type gvizResponse struct {
	Table struct {
		Rows []struct {
			C []*struct {
				V interface{} `json:"v"`
			} `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

// parseGvizRows strips the non-JSON wrapper around a JSON-table
// response and flattens its cells into string tuples.
func parseGvizRows(body string) ([][]string, error) {
	start := strings.Index(body, "(")
	end := strings.LastIndex(body, ")")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("malformed gviz wrapper")
	}

	var resp gvizResponse
	if err := json.Unmarshal([]byte(body[start+1:end]), &resp); err != nil {
		return nil, fmt.Errorf("gviz payload: %w", err)
	}

	rows := make([][]string, 0, len(resp.Table.Rows))
	for _, row := range resp.Table.Rows {
		cells := make([]string, len(row.C))
		for i, cell := range row.C {
			if cell == nil || cell.V == nil {
				continue
			}
			cells[i] = cellString(cell.V)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// cellString renders a gviz cell value; sheet numbers arrive as
// float64 and whole values must not keep a trailing ".0".
func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// RecordFromRow maps one column tuple into a Record using the
// configured column layout. It returns false for rows that must be
// dropped: missing or invalid URL, or an unapproved row when an
// approved column is configured.
func RecordFromRow(row []string, cfg *config.FeedConfig) (model.Record, bool) {
	rawURL := strings.TrimSpace(cell(row, cfg.URLColumn))
	if !platform.IsValidVideoURL(rawURL) {
		return model.Record{}, false
	}

	if cfg.ApprovedColumn >= 0 && !isTrueish(cell(row, cfg.ApprovedColumn)) {
		return model.Record{}, false
	}

	name := strings.TrimSpace(cell(row, cfg.NameColumn))
	if name == "" {
		name = model.AnonymousName
	}

	return model.Record{
		URL:         rawURL,
		SubmittedBy: name,
		Title:       strings.TrimSpace(cell(row, cfg.TitleColumn)),
		StartHour:   hourCell(row, cfg.StartHourColumn),
		EndHour:     hourCell(row, cfg.EndHourColumn),
	}, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func hourCell(row []string, idx int) int {
	raw := strings.TrimSpace(cell(row, idx))
	if raw == "" {
		return -1
	}
	hour, err := strconv.Atoi(raw)
	if err != nil || hour < 0 || hour > 23 {
		return -1
	}
	return hour
}

func isTrueish(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "approved":
		return true
	}
	return false
}
