package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// FileCandidate serves batches from a workbook or CSV on disk: either the
// configured network-share export or a session-uploaded file.
type FileCandidate struct {
	kind     model.SourceKind
	path     string
	priority int
}

// NewShareCandidate builds the network-share candidate.
func NewShareCandidate(path string, priority int) *FileCandidate {
	return &FileCandidate{kind: model.SourceShare, path: path, priority: priority}
}

// NewUploadCandidate builds a session-upload candidate.
func NewUploadCandidate(path string, priority int) *FileCandidate {
	return &FileCandidate{kind: model.SourceUpload, path: path, priority: priority}
}

// Descriptor identifies the file source.
func (f *FileCandidate) Descriptor() model.SourceDescriptor {
	return model.SourceDescriptor{
		Kind:     f.kind,
		Name:     filepath.Base(f.path),
		Location: f.path,
		Priority: f.priority,
	}
}

// Fetch reads the file into a raw batch. Format is chosen by extension;
// the first sheet of a workbook is the dataset.
func (f *FileCandidate) Fetch(ctx context.Context) (model.RawBatch, error) {
	if f.path == "" {
		return model.RawBatch{}, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return model.RawBatch{}, err
	}
	if _, err := os.Stat(f.path); err != nil {
		return model.RawBatch{}, fmt.Errorf("stat %s: %w", f.path, err)
	}

	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".xlsx", ".xls":
		table, err = readWorkbook(f.path)
	case ".csv", ".txt":
		table, err = readCSV(f.path)
	default:
		return model.RawBatch{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(f.path))
	}
	if err != nil {
		return model.RawBatch{}, err
	}
	if len(table) < 2 {
		return model.RawBatch{}, ErrEmptyBatch
	}

	return model.RawBatch{Kind: f.kind, Header: table[0], Rows: table[1:]}, nil
}

func readWorkbook(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyBatch
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1 // ragged exports happen; the normalizer copes
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}
