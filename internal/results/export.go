package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CSVSeparator is the field separator used by WriteCSV.
const CSVSeparator = ';'

// Columns returns the union of the row columns of games, in row order.
// Games with fewer agents leave later agent columns empty.
func Columns(games []GameData) []string {
	var widest GameData
	for _, g := range games {
		if len(g.Agents) > len(widest.Agents) {
			widest = g
		}
	}
	row := widest.Row()
	cols := make([]string, 0, row.Len())
	for pair := row.Oldest(); pair != nil; pair = pair.Next() {
		cols = append(cols, pair.Key)
	}
	return cols
}

// WriteCSV writes one header line and one line per game. List columns are
// JSON encoded.
func WriteCSV(w io.Writer, games []GameData) error {
	cw := csv.NewWriter(w)
	cw.Comma = CSVSeparator

	cols := Columns(games)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, g := range games {
		record, err := csvRecord(cols, g.Row())
		if err != nil {
			return fmt.Errorf("%s: %w", g.GameID, err)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", g.GameID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(cols []string, row *orderedmap.OrderedMap[string, any]) ([]string, error) {
	record := make([]string, len(cols))
	for i, col := range cols {
		value, ok := row.Get(col)
		if !ok {
			continue
		}
		cell, err := csvCell(value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		record[i] = cell
	}
	return record, nil
}

func csvCell(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// WriteJSON writes the rows of games indexed by position.
func WriteJSON(w io.Writer, games []GameData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Table(games)); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
