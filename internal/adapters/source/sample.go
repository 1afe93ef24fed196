package source

import (
	"bytes"
	"context"
	"encoding/csv"
	_ "embed"
	"fmt"

	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// sampleCSV ships inside the binary so the service can always produce
// something viewable, even with no backend reachable.
//
//go:embed sample_data.csv
var sampleCSV []byte

// SampleCandidate serves the bundled demonstration dataset. It sits last in
// the chain; a batch served from it after real failures is a degraded
// result, never a hard failure.
type SampleCandidate struct {
	priority int
}

// NewSampleCandidate builds the final-fallback candidate.
func NewSampleCandidate(priority int) *SampleCandidate {
	return &SampleCandidate{priority: priority}
}

// Descriptor identifies the sample source.
func (s *SampleCandidate) Descriptor() model.SourceDescriptor {
	return model.SourceDescriptor{
		Kind:     model.SourceSample,
		Name:     "bundled sample",
		Location: "embedded:sample_data.csv",
		Priority: s.priority,
	}
}

// Fetch decodes the embedded CSV.
func (s *SampleCandidate) Fetch(ctx context.Context) (model.RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return model.RawBatch{}, err
	}
	r := csv.NewReader(bytes.NewReader(sampleCSV))
	rows, err := r.ReadAll()
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("parse embedded sample: %w", err)
	}
	if len(rows) < 2 {
		return model.RawBatch{}, ErrEmptyBatch
	}
	return model.RawBatch{Kind: model.SourceSample, Header: rows[0], Rows: rows[1:]}, nil
}
