package probe_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/minehaul/fleetsafety/internal/adapters/probe"
	"github.com/minehaul/fleetsafety/internal/config"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestDatabaseProbe(t *testing.T) {
	Convey("Given database probes against live and dead endpoints", t, func() {
		Convey("When a listener is accepting", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			So(err, ShouldBeNil)
			defer ln.Close()

			_, portStr, err := net.SplitHostPort(ln.Addr().String())
			So(err, ShouldBeNil)
			port, _ := strconv.Atoi(portStr)

			p := probe.New(config.SQL{Host: "127.0.0.1", Port: port, Database: "FMS"})
			res := p.Probe(context.Background(), model.SourceDescriptor{Kind: model.SourceDatabase})

			So(res.Reachable, ShouldBeTrue)
			So(res.Latency, ShouldBeGreaterThan, 0)
		})

		Convey("When nothing listens on the port", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			So(err, ShouldBeNil)
			_, portStr, _ := net.SplitHostPort(ln.Addr().String())
			port, _ := strconv.Atoi(portStr)
			ln.Close()

			p := probe.New(config.SQL{Host: "127.0.0.1", Port: port, Database: "FMS"})
			res := p.Probe(context.Background(), model.SourceDescriptor{Kind: model.SourceDatabase})

			So(res.Reachable, ShouldBeFalse)
			So(res.Detail, ShouldContainSubstring, "refused")
		})

		Convey("When the host does not resolve", func() {
			p := probe.New(
				config.SQL{Host: "fms-db.invalid", Port: 1433, Database: "FMS"},
				probe.WithTimeout(2*time.Second),
			)
			res := p.Probe(context.Background(), model.SourceDescriptor{Kind: model.SourceDatabase})

			So(res.Reachable, ShouldBeFalse)
			So(res.Detail, ShouldNotBeEmpty)
		})

		Convey("When SQL is not configured", func() {
			p := probe.New(config.SQL{})
			res := p.Probe(context.Background(), model.SourceDescriptor{Kind: model.SourceDatabase})

			So(res.Reachable, ShouldBeFalse)
			So(res.Detail, ShouldEqual, "not configured")
		})
	})
}

func TestFileProbe(t *testing.T) {
	Convey("Given share and upload paths", t, func() {
		dir := t.TempDir()
		p := probe.New(config.SQL{})

		Convey("When the file exists", func() {
			path := filepath.Join(dir, "export.xlsx")
			So(os.WriteFile(path, []byte("x"), 0o600), ShouldBeNil)

			res := p.Probe(context.Background(), model.SourceDescriptor{
				Kind: model.SourceShare, Location: path,
			})
			So(res.Reachable, ShouldBeTrue)
		})

		Convey("When the path is missing", func() {
			res := p.Probe(context.Background(), model.SourceDescriptor{
				Kind: model.SourceShare, Location: filepath.Join(dir, "absent.xlsx"),
			})
			So(res.Reachable, ShouldBeFalse)
			So(res.Detail, ShouldEqual, "not found")
		})

		Convey("When the path is a directory", func() {
			res := p.Probe(context.Background(), model.SourceDescriptor{
				Kind: model.SourceUpload, Location: dir,
			})
			So(res.Reachable, ShouldBeTrue)
			So(res.Detail, ShouldEqual, "directory")
		})
	})
}

func TestSampleProbe(t *testing.T) {
	Convey("Given the bundled sample", t, func() {
		p := probe.New(config.SQL{})
		results := p.ProbeAll(context.Background(), []model.SourceDescriptor{
			{Kind: model.SourceSample, Name: "bundled sample"},
		})

		Convey("Then it should always be reachable", func() {
			So(len(results), ShouldEqual, 1)
			So(results[0].Reachable, ShouldBeTrue)
			So(results[0].CheckedAt.IsZero(), ShouldBeFalse)
		})
	})
}
