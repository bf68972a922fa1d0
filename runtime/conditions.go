package runtime

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/go-resty/resty/v2"
)

// ConditionTable is an ordered sequence of rows, each mapping a condition
// variable name to a value. isTrials loops bind one row per iteration.
type ConditionTable struct {
	Columns []string
	Rows    []map[string]any
}

func (t *ConditionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// LoadConditions reads a condition table from a local file or an http(s) URL.
// CSV files use the header row as column names; JSON files are an array of
// flat objects.
func LoadConditions(ref *ConditionsRef) (*ConditionTable, error) {
	if ref == nil {
		return nil, nil
	}

	var (
		data []byte
		name string
		err  error
	)

	switch {
	case ref.URL != "":
		name = ref.URL
		resp, rerr := resty.New().R().Get(ref.URL)
		if rerr != nil {
			return nil, fmt.Errorf("error fetching conditions from %s: %w", ref.URL, rerr)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("error fetching conditions from %s: status %s", ref.URL, resp.Status())
		}
		data = resp.Body()
	default:
		name = ref.File
		data, err = os.ReadFile(ref.File)
		if err != nil {
			return nil, fmt.Errorf("error reading conditions file: %w", err)
		}
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return parseJSONConditions(data)
	default:
		return parseCSVConditions(data)
	}
}

func parseCSVConditions(data []byte) (*ConditionTable, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing conditions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("conditions CSV has no header row")
	}

	header := records[0]
	for _, col := range header {
		if !varNameRe.MatchString(col) {
			return nil, fmt.Errorf("condition column %q is not a valid variable name", col)
		}
	}

	table := &ConditionTable{Columns: header}
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = coerceCell(record[i])
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// coerceCell turns numeric-looking CSV cells into numbers so expressions can
// do arithmetic on them. Everything else stays a string.
func coerceCell(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func parseJSONConditions(data []byte) (*ConditionTable, error) {
	parsed, err := gabs.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing conditions JSON: %w", err)
	}

	if _, ok := parsed.Data().([]any); !ok {
		return nil, fmt.Errorf("conditions JSON must be an array of objects")
	}
	children := parsed.Children()

	table := &ConditionTable{}
	seen := make(map[string]bool)
	for i, child := range children {
		obj, ok := child.Data().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("conditions JSON row %d is not an object", i)
		}
		for col := range obj {
			if !varNameRe.MatchString(col) {
				return nil, fmt.Errorf("condition column %q is not a valid variable name", col)
			}
			if !seen[col] {
				seen[col] = true
				table.Columns = append(table.Columns, col)
			}
		}
		table.Rows = append(table.Rows, obj)
	}
	return table, nil
}
