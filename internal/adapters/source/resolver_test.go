package source_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minehaul/fleetsafety/internal/adapters/source"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// stubCandidate scripts one step of the fallback chain.
type stubCandidate struct {
	kind     model.SourceKind
	priority int
	batch    model.RawBatch
	err      error
	calls    int
}

func (s *stubCandidate) Descriptor() model.SourceDescriptor {
	return model.SourceDescriptor{Kind: s.kind, Name: string(s.kind), Priority: s.priority}
}

func (s *stubCandidate) Fetch(ctx context.Context) (model.RawBatch, error) {
	s.calls++
	if s.err != nil {
		return model.RawBatch{}, s.err
	}
	return s.batch, nil
}

func goodBatch(kind model.SourceKind) model.RawBatch {
	return model.RawBatch{
		Kind:   kind,
		Header: []string{"License Plate", "Shift Date", "Event Type"},
		Rows:   [][]string{{"DT-101", "2025-03-01", "Speeding"}},
	}
}

func TestResolverPriorityOrder(t *testing.T) {
	Convey("Given candidates registered out of priority order", t, func() {
		db := &stubCandidate{kind: model.SourceDatabase, priority: 1, err: errors.New("connection refused")}
		share := &stubCandidate{kind: model.SourceShare, priority: 2, batch: goodBatch(model.SourceShare)}
		sample := &stubCandidate{kind: model.SourceSample, priority: 3, batch: goodBatch(model.SourceSample)}

		r := source.New([]source.Candidate{sample, share, db}, source.WithTimeout(time.Second))

		batch, desc, failures, err := r.Resolve(context.Background())

		Convey("Then resolution should stop at the first usable candidate", func() {
			So(err, ShouldBeNil)
			So(desc.Kind, ShouldEqual, model.SourceShare)
			So(batch.Empty(), ShouldBeFalse)
			So(db.calls, ShouldEqual, 1)
			So(share.calls, ShouldEqual, 1)
			So(sample.calls, ShouldEqual, 0)
		})

		Convey("Then the database failure should be captured, not fatal", func() {
			So(len(failures), ShouldEqual, 1)
			So(failures[0].Kind, ShouldEqual, model.SourceDatabase)
			So(failures[0].Cause, ShouldContainSubstring, "connection refused")
			So(failures[0].AttemptedAt.IsZero(), ShouldBeFalse)
		})

		Convey("Then the result should not be degraded", func() {
			So(source.Degraded(desc, failures), ShouldBeFalse)
		})
	})
}

func TestResolverDegradedFallback(t *testing.T) {
	Convey("Given every configured source failing", t, func() {
		db := &stubCandidate{kind: model.SourceDatabase, priority: 1, err: errors.New("auth failure")}
		share := &stubCandidate{kind: model.SourceShare, priority: 2, err: errors.New("path unreachable")}
		sample := &stubCandidate{kind: model.SourceSample, priority: 3, batch: goodBatch(model.SourceSample)}

		r := source.New([]source.Candidate{db, share, sample})
		batch, desc, failures, err := r.Resolve(context.Background())

		Convey("Then the sample should serve with the degraded flag", func() {
			So(err, ShouldBeNil)
			So(desc.Kind, ShouldEqual, model.SourceSample)
			So(batch.Empty(), ShouldBeFalse)
			So(len(failures), ShouldEqual, 2)
			So(source.Degraded(desc, failures), ShouldBeTrue)
		})
	})
}

// hungCandidate blocks until its context expires, like a database that
// accepts the connection and never answers.
type hungCandidate struct {
	kind     model.SourceKind
	priority int
	calls    int
}

func (h *hungCandidate) Descriptor() model.SourceDescriptor {
	return model.SourceDescriptor{Kind: h.kind, Name: string(h.kind), Priority: h.priority}
}

func (h *hungCandidate) Fetch(ctx context.Context) (model.RawBatch, error) {
	h.calls++
	<-ctx.Done()
	return model.RawBatch{}, ctx.Err()
}

func TestResolverHungCandidate(t *testing.T) {
	Convey("Given a database that hangs past the caller's deadline", t, func() {
		db := &hungCandidate{kind: model.SourceDatabase, priority: 1}
		sample := source.NewSampleCandidate(2)

		r := source.New([]source.Candidate{db, sample}, source.WithTimeout(20*time.Millisecond))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		batch, desc, failures, err := r.Resolve(ctx)

		Convey("Then the embedded sample should still serve, degraded", func() {
			So(err, ShouldBeNil)
			So(desc.Kind, ShouldEqual, model.SourceSample)
			So(batch.Empty(), ShouldBeFalse)
			So(db.calls, ShouldEqual, 1)
			So(len(failures), ShouldEqual, 1)
			So(failures[0].Kind, ShouldEqual, model.SourceDatabase)
			So(source.Degraded(desc, failures), ShouldBeTrue)
		})
	})
}

func TestResolverAllFailed(t *testing.T) {
	Convey("Given a chain with no survivor", t, func() {
		db := &stubCandidate{kind: model.SourceDatabase, priority: 1, err: errors.New("down")}
		sample := &stubCandidate{kind: model.SourceSample, priority: 2, err: errors.New("corrupt")}

		r := source.New([]source.Candidate{db, sample})
		_, _, failures, err := r.Resolve(context.Background())

		Convey("Then resolution should fail hard with all failures reported", func() {
			So(errors.Is(err, source.ErrAllSourcesFailed), ShouldBeTrue)
			So(len(failures), ShouldEqual, 2)
		})
	})
}

func TestResolverShapeCheck(t *testing.T) {
	Convey("Given a candidate returning implausible data", t, func() {
		bad := &stubCandidate{kind: model.SourceDatabase, priority: 1, batch: model.RawBatch{
			Header: []string{"foo", "bar"},
			Rows:   [][]string{{"1", "2"}},
		}}
		empty := &stubCandidate{kind: model.SourceShare, priority: 2, batch: model.RawBatch{
			Header: []string{"License Plate", "Shift Date"},
		}}
		good := &stubCandidate{kind: model.SourceSample, priority: 3, batch: goodBatch(model.SourceSample)}

		r := source.New([]source.Candidate{bad, empty, good})
		_, desc, failures, err := r.Resolve(context.Background())

		Convey("Then shape and emptiness failures should fall through", func() {
			So(err, ShouldBeNil)
			So(desc.Kind, ShouldEqual, model.SourceSample)
			So(len(failures), ShouldEqual, 2)
			So(failures[0].Cause, ShouldContainSubstring, "shape")
			So(failures[1].Cause, ShouldContainSubstring, "empty")
		})
	})
}

func TestResolverOverride(t *testing.T) {
	Convey("Given a session upload override", t, func() {
		db := &stubCandidate{kind: model.SourceDatabase, priority: 1, batch: goodBatch(model.SourceDatabase)}
		r := source.New([]source.Candidate{db})

		upload := &stubCandidate{kind: model.SourceUpload, priority: 0, batch: goodBatch(model.SourceUpload)}
		r.SetOverride(upload)

		Convey("Then the override should outrank configured sources", func() {
			_, desc, _, err := r.Resolve(context.Background())
			So(err, ShouldBeNil)
			So(desc.Kind, ShouldEqual, model.SourceUpload)
			So(db.calls, ShouldEqual, 0)
		})

		Convey("Then clearing it should restore the configured chain", func() {
			r.ClearOverride()
			_, desc, _, err := r.Resolve(context.Background())
			So(err, ShouldBeNil)
			So(desc.Kind, ShouldEqual, model.SourceDatabase)
		})
	})
}

func TestFileCandidate(t *testing.T) {
	Convey("Given CSV files on disk", t, func() {
		dir := t.TempDir()

		Convey("When reading a well-formed export", func() {
			path := filepath.Join(dir, "events.csv")
			fh, err := os.Create(path)
			So(err, ShouldBeNil)
			w := csv.NewWriter(fh)
			So(w.WriteAll([][]string{
				{"License Plate", "Shift Date", "Event Type"},
				{"DT-101", "2025-03-01", "Speeding"},
			}), ShouldBeNil)
			So(fh.Close(), ShouldBeNil)

			c := source.NewShareCandidate(path, 2)
			batch, err := c.Fetch(context.Background())

			So(err, ShouldBeNil)
			So(batch.Kind, ShouldEqual, model.SourceShare)
			So(len(batch.Rows), ShouldEqual, 1)
		})

		Convey("When the file is missing", func() {
			c := source.NewShareCandidate(filepath.Join(dir, "absent.csv"), 2)
			_, err := c.Fetch(context.Background())
			So(err, ShouldNotBeNil)
		})

		Convey("When the extension is unsupported", func() {
			path := filepath.Join(dir, "events.pdf")
			So(os.WriteFile(path, []byte("x"), 0o600), ShouldBeNil)
			c := source.NewUploadCandidate(path, 0)
			_, err := c.Fetch(context.Background())
			So(errors.Is(err, source.ErrUnsupportedFormat), ShouldBeTrue)
		})

		Convey("When the file has a header but no rows", func() {
			path := filepath.Join(dir, "empty.csv")
			So(os.WriteFile(path, []byte("License Plate,Shift Date\n"), 0o600), ShouldBeNil)
			c := source.NewShareCandidate(path, 2)
			_, err := c.Fetch(context.Background())
			So(errors.Is(err, source.ErrEmptyBatch), ShouldBeTrue)
		})
	})
}

func TestSampleCandidate(t *testing.T) {
	Convey("Given the embedded sample dataset", t, func() {
		c := source.NewSampleCandidate(3)
		batch, err := c.Fetch(context.Background())

		Convey("Then it should always yield a plausible batch", func() {
			So(err, ShouldBeNil)
			So(batch.Kind, ShouldEqual, model.SourceSample)
			So(batch.Empty(), ShouldBeFalse)
			So(batch.Header, ShouldContain, "License Plate")
			So(batch.Header, ShouldContain, "Shift Date")
		})
	})
}
