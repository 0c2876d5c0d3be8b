// Package ingest loads historical statistics files into the analytic
// store. It accepts CSV and XLSX, matches columns by header name, and
// normalizes entity values to the canonical lowercase form the pipeline
// filters on.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/Luc0-0/Samarth/internal/store"
	"github.com/Luc0-0/Samarth/internal/vocab"
)

const insertBatchSize = 500

// tableColumns maps each analytic table to its loadable columns, in
// insert order.
var tableColumns = map[string][]string{
	"agri_production": {"state", "district", "crop", "year", "production_tonnes", "area_hectares"},
	"climate_obs":     {"state", "district", "year", "rainfall_mm"},
}

// Loader streams rows from a source file into one analytic table.
type Loader struct {
	exec  store.Executor
	vocab *vocab.Vocabulary
}

func New(exec store.Executor, v *vocab.Vocabulary) *Loader {
	return &Loader{exec: exec, vocab: v}
}

// Load dispatches on file extension.
func (l *Loader) Load(ctx context.Context, path, table string) (int64, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return l.LoadXLSX(ctx, path, table)
	}
	return l.LoadCSV(ctx, path, table)
}

// LoadCSV ingests a CSV file with a header row.
func (l *Loader) LoadCSV(ctx context.Context, path, table string) (int64, error) {
	columns, ok := tableColumns[table]
	if !ok {
		return 0, eris.Errorf("ingest: unknown table %q", table)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: read header of %s", path)
	}
	index := headerIndex(header, columns)

	var total int64
	batch := make([][]any, 0, insertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, insErr := l.exec.InsertRows(ctx, table, columns, batch)
		total += n
		batch = batch[:0]
		return insertErr(insErr, table)
	}

	for {
		record, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return total, eris.Wrapf(readErr, "ingest: read %s", path)
		}
		row, ok := l.convertRow(record, index, columns)
		if !ok {
			continue
		}
		batch = append(batch, row)
		if len(batch) == insertBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	zap.L().Info("ingest: file loaded",
		zap.String("path", path), zap.String("table", table), zap.Int64("rows", total))
	return total, nil
}

// LoadXLSX ingests the first sheet of an XLSX workbook with a header row.
func (l *Loader) LoadXLSX(ctx context.Context, path, table string) (int64, error) {
	columns, ok := tableColumns[table]
	if !ok {
		return 0, eris.Errorf("ingest: unknown table %q", table)
	}

	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open %s", path)
	}
	if len(wb.Sheets) == 0 || len(wb.Sheets[0].Rows) == 0 {
		return 0, eris.Errorf("ingest: %s has no data", path)
	}
	sheet := wb.Sheets[0]

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		header[i] = cell.String()
	}
	index := headerIndex(header, columns)

	var total int64
	batch := make([][]any, 0, insertBatchSize)
	for _, sheetRow := range sheet.Rows[1:] {
		record := make([]string, len(sheetRow.Cells))
		for i, cell := range sheetRow.Cells {
			record[i] = cell.String()
		}
		row, ok := l.convertRow(record, index, columns)
		if !ok {
			continue
		}
		batch = append(batch, row)
		if len(batch) == insertBatchSize {
			n, insErr := l.exec.InsertRows(ctx, table, columns, batch)
			total += n
			if insErr != nil {
				return total, insertErr(insErr, table)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		n, insErr := l.exec.InsertRows(ctx, table, columns, batch)
		total += n
		if insErr != nil {
			return total, insertErr(insErr, table)
		}
	}

	zap.L().Info("ingest: file loaded",
		zap.String("path", path), zap.String("table", table), zap.Int64("rows", total))
	return total, nil
}

// headerIndex maps each wanted column to its position in the file
// header, or -1 when absent. Header names are matched after lowercasing
// and space-to-underscore normalization, so "Production Tonnes" and
// "production_tonnes" both work.
func headerIndex(header []string, columns []string) []int {
	pos := map[string]int{}
	for i, h := range header {
		key := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(h)), " ", "_")
		pos[key] = i
	}
	index := make([]int, len(columns))
	for i, col := range columns {
		if p, ok := pos[col]; ok {
			index[i] = p
		} else {
			index[i] = -1
		}
	}
	return index
}

// convertRow builds the typed insert row. Rows missing state or year
// are skipped; empty numeric cells insert as NULL so averages ignore
// them.
func (l *Loader) convertRow(record []string, index []int, columns []string) ([]any, bool) {
	row := make([]any, len(columns))
	for i, col := range columns {
		var raw string
		if index[i] >= 0 && index[i] < len(record) {
			raw = strings.TrimSpace(record[index[i]])
		}
		switch col {
		case "state":
			if raw == "" {
				return nil, false
			}
			row[i] = strings.ToLower(raw)
		case "district":
			row[i] = strings.ToLower(raw)
		case "crop":
			row[i] = l.canonicalCrop(raw)
		case "year":
			y, err := strconv.Atoi(raw)
			if err != nil {
				return nil, false
			}
			row[i] = y
		default:
			if raw == "" {
				row[i] = nil
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				row[i] = nil
				continue
			}
			row[i] = v
		}
	}
	return row, true
}

func (l *Loader) canonicalCrop(raw string) string {
	c := strings.ToLower(raw)
	if canonical, ok := l.vocab.CropAliases[c]; ok {
		return canonical
	}
	return c
}

func insertErr(err error, table string) error {
	if err == nil {
		return nil
	}
	return eris.Wrapf(err, "ingest: insert into %s", table)
}
