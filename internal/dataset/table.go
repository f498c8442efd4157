// Package dataset reads the database export and reads/writes the tabular
// outputs of each pipeline stage.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a header plus rows, every row padded to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of col in the header, or -1.
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == col {
			return i
		}
	}
	return -1
}

// Cell returns row[i], or "" when i is out of range.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadTable loads a .csv or .xlsx file. The first row is the header.
func ReadTable(path string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	case ".csv", ".txt", "":
		rows, err = readCSVFile(path)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("dataset: %s has no header row", path)
	}

	t := &Table{Header: rows[0]}
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		t.Rows = append(t.Rows, pad(r, len(t.Header)))
	}
	return t, nil
}

func readCSVFile(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open csv")
	}
	return readCSV(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)), sniffDelimiter(data))
}

func readCSV(r io.Reader, delim rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read csv row")
		}
		rows = append(rows, record)
	}
}

// sniffDelimiter picks ';' when the header line has more semicolons than
// commas. Czech spreadsheet exports default to ';'.
func sniffDelimiter(data []byte) rune {
	line, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("dataset: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// WriteTable writes header and rows as a comma-separated UTF-8 file.
func WriteTable(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "dataset: create output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "dataset: create output")
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "dataset: write header")
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "dataset: write rows")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "dataset: close output")
	}
	return nil
}

// columns resolves every name against the header or returns ErrMissingColumn.
func (t *Table) columns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, n := range names {
		idx[i] = t.Index(n)
		if idx[i] < 0 {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(ErrMissingColumn, "%s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
