package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"platepipe/internal/record"
	"platepipe/internal/services"
)

// Input table column names. Header matching is case-insensitive; column
// order does not matter.
const (
	colPath     = "path"
	colArm      = "arm"
	colBatch    = "batch"
	colPlate    = "plate"
	colWell     = "well"
	colSite     = "site"
	colCycle    = "cycle"
	colChannels = "channels"
	colFrames   = "frame_count"
)

// The cycle column is absent from a painting-only table; every other column
// is mandatory. Cycle values are still required per row on barcoding rows.
var requiredColumns = []string{
	colPath, colArm, colBatch, colPlate, colWell, colSite, colChannels, colFrames,
}

// RowError reports a rejected input table row. It classifies as a validation
// failure.
type RowError struct {
	Line    int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("input table line %d: %s", e.Line, e.Message)
}

func (e *RowError) Unwrap() error { return services.ErrValidation }

// LoadTable reads the CSV input table at path into records. The first row is
// the header; a malformed row fails the whole load, naming its line.
func LoadTable(path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input table: %w", err)
	}
	defer f.Close()

	records, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("input table %s: %w", path, err)
	}
	return records, nil
}

// ReadTable parses input table rows from r.
func ReadTable(r io.Reader) ([]record.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input table", services.ErrValidation)
	}
	if err != nil {
		return nil, err
	}
	index, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var records []record.Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &RowError{Line: line, Message: err.Error()}
		}
		rec, err := rowRecord(index, row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func indexHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: input table header missing %q column", services.ErrConfiguration, name)
		}
	}
	return index, nil
}

func rowRecord(index map[string]int, row []string, line int) (record.Record, error) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	path := cell(colPath)
	if path == "" {
		return record.Record{}, &RowError{Line: line, Message: "empty path"}
	}
	arm, err := record.ParseArm(cell(colArm))
	if err != nil {
		return record.Record{}, &RowError{Line: line, Message: err.Error()}
	}

	meta := map[record.Field]string{
		record.FieldArm:     string(arm),
		record.FieldBatch:   cell(colBatch),
		record.FieldPlate:   cell(colPlate),
		record.FieldWell:    cell(colWell),
		record.FieldSite:    cell(colSite),
		record.FieldCycle:   cell(colCycle),
		record.FieldChannel: "",
	}
	channels := record.SplitChannelList(cell(colChannels))
	rec := record.New(meta, channels, path)

	required := []record.Field{
		record.FieldBatch, record.FieldPlate, record.FieldWell, record.FieldSite,
	}
	if arm == record.ArmBarcoding {
		required = append(required, record.FieldCycle)
	}
	schema := record.Schema{Required: required}
	if err := schema.Validate(rec); err != nil {
		return record.Record{}, fmt.Errorf("input table line %d: %w", line, err)
	}
	if _, ok := rec.Site(); !ok {
		return record.Record{}, &RowError{Line: line, Message: fmt.Sprintf("site %q is not numeric", cell(colSite))}
	}
	if raw := cell(colCycle); raw != "" {
		if _, ok := rec.Cycle(); !ok {
			return record.Record{}, &RowError{Line: line, Message: fmt.Sprintf("cycle %q is not numeric", raw)}
		}
	}
	if len(channels) == 0 {
		return record.Record{}, fmt.Errorf("input table line %d: %w: missing required field %q",
			line, services.ErrConfiguration, colChannels)
	}
	frames := cell(colFrames)
	if frames == "" {
		return record.Record{}, fmt.Errorf("input table line %d: %w: missing required field %q",
			line, services.ErrConfiguration, colFrames)
	}
	count, err := strconv.Atoi(frames)
	if err != nil {
		return record.Record{}, &RowError{Line: line, Message: fmt.Sprintf("frame_count %q is not numeric", frames)}
	}
	if count != len(channels) {
		return record.Record{}, &RowError{
			Line:    line,
			Message: fmt.Sprintf("frame_count %d does not match %d listed channels", count, len(channels)),
		}
	}
	return rec, nil
}
