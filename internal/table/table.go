// Package table loads delimited and spreadsheet files into an in-memory grid of
// string cells with a single header row.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrNoHeader is returned when a file has no header row after skipping.
	ErrNoHeader = errors.New("no header row")
	// ErrColumnNotFound is returned by lookups for a header name that is absent.
	ErrColumnNotFound = errors.New("column not found")
)

// Options controls how a file is read.
type Options struct {
	// SkipRows drops this many leading records before the header.
	SkipRows int
	// Delimiter for CSV. If 0, picks by extension (',' or '\t').
	Delimiter rune
	// FillNA replaces empty cells when non-empty.
	FillNA string
	// SheetName / SheetIndex select the XLSX sheet. SheetIndex is 1-based.
	SheetName  string
	SheetIndex int
}

// Table is a rectangular string grid. Every row has len(Header) cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) {
	return len(t.Rows), len(t.Header)
}

// Index returns the position of the named column. Lookups are exact first,
// then case-insensitive on trimmed names.
func (t *Table) Index(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, name, t.Name)
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Filter returns a new table holding the rows for which keep returns true.
// Rows are shared with the receiver, not copied.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := &Table{Name: t.Name, Header: t.Header}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Load reads a CSV, TSV or XLSX file by extension.
func Load(path string, opt Options) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		recs, err := readXLSX(path, opt.SheetName, opt.SheetIndex)
		if err != nil {
			return nil, err
		}
		return fromRecords(filepath.Base(path), recs, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return Read(filepath.Base(path), f, delim, opt)
}

// Read parses delimited records from r.
func Read(name string, r io.Reader, delim rune, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = delim
	var recs [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(recs)+1, err)
		}
		if len(recs) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		recs = append(recs, rec)
	}
	return fromRecords(name, recs, opt)
}

func fromRecords(name string, recs [][]string, opt Options) (*Table, error) {
	if opt.SkipRows > 0 {
		if opt.SkipRows >= len(recs) {
			recs = nil
		} else {
			recs = recs[opt.SkipRows:]
		}
	}
	if len(recs) == 0 || len(recs[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}
	t := &Table{Name: name, Header: dedupeHeader(recs[0])}
	ncol := len(t.Header)
	t.Rows = make([][]string, 0, len(recs)-1)
	for _, rec := range recs[1:] {
		row := make([]string, ncol)
		copy(row, rec)
		if opt.FillNA != "" {
			for j := range row {
				if strings.TrimSpace(row[j]) == "" {
					row[j] = opt.FillNA
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// dedupeHeader names blank headers "Unnamed: i" and suffixes repeated names
// with ".1", ".2", ... so every column is addressable.
func dedupeHeader(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	counts := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		if used[name] {
			for {
				counts[h]++
				name = h + "." + strconv.Itoa(counts[h])
				if !used[name] {
					break
				}
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
