// Package probe answers "is this source reachable right now" without going
// through the dataset path. Probes never touch the cache, so diagnostics
// reflect the live state of each backend.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/minehaul/fleetsafety/internal/config"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/pkg/logger"
	"github.com/minehaul/fleetsafety/pkg/metrics"
)

const defaultTimeout = 3 * time.Second

// Result is one source's diagnostic outcome.
type Result struct {
	Kind      model.SourceKind `json:"kind"`
	Name      string           `json:"name"`
	Reachable bool             `json:"reachable"`
	Latency   time.Duration    `json:"latency"`
	Detail    string           `json:"detail,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}

// Prober checks source connectivity.
type Prober struct {
	sqlAddr string
	timeout time.Duration
	log     logger.Logger
}

// Option applies a configuration option to the Prober.
type Option func(*Prober)

// WithTimeout bounds a single probe.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the prober logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Prober) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a Prober. The SQL address is taken from config rather than
// the descriptor, which carries a redacted connection string.
func New(sqlCfg config.SQL, opts ...Option) *Prober {
	p := &Prober{timeout: defaultTimeout}
	if sqlCfg.Enabled() {
		p.sqlAddr = net.JoinHostPort(sqlCfg.Host, strconv.Itoa(sqlCfg.Port))
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named("probe")
	}
	return p
}

// Probe checks one source. Database sources get a TCP dial with the error
// classified, file sources a stat, and the bundled sample is always
// reachable.
func (p *Prober) Probe(ctx context.Context, desc model.SourceDescriptor) Result {
	start := time.Now()
	res := Result{Kind: desc.Kind, Name: desc.Name, CheckedAt: start.UTC()}

	switch desc.Kind {
	case model.SourceDatabase:
		res.Reachable, res.Detail = p.dial(ctx)
	case model.SourceShare, model.SourceUpload:
		res.Reachable, res.Detail = statPath(desc.Location)
	case model.SourceSample:
		res.Reachable = true
	default:
		res.Detail = fmt.Sprintf("unknown source kind %q", desc.Kind)
	}

	res.Latency = time.Since(start)
	metrics.RecordProbeLatency(string(desc.Kind), res.Latency.Seconds())
	return res
}

// ProbeAll checks every descriptor in order.
func (p *Prober) ProbeAll(ctx context.Context, descs []model.SourceDescriptor) []Result {
	out := make([]Result, 0, len(descs))
	for _, d := range descs {
		out = append(out, p.Probe(ctx, d))
	}
	return out
}

func (p *Prober) dial(ctx context.Context) (bool, string) {
	if p.sqlAddr == "" {
		return false, "not configured"
	}
	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", p.sqlAddr)
	if err != nil {
		return false, classifyDialError(err)
	}
	conn.Close()
	return true, ""
}

// classifyDialError separates name-resolution, refusal, and timeout
// failures so operators know what to fix.
func classifyDialError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns: " + dnsErr.Err
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}

func statPath(path string) (bool, string) {
	if path == "" {
		return false, "not configured"
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, "not found"
		}
		return false, err.Error()
	}
	if info.IsDir() {
		return true, "directory"
	}
	return true, ""
}
