package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	// SQL Server driver, registered as "sqlserver".
	_ "github.com/microsoft/go-mssqldb"

	"github.com/minehaul/fleetsafety/internal/config"
	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// Connection pool bounds. One pool is shared by every session; a hung
// backend consumes at most maxOpenConns slots without stalling other work.
const (
	maxOpenConns    = 8
	maxIdleConns    = 2
	connMaxLifetime = 30 * time.Minute
)

// DatabaseCandidate serves batches from the configured SQL Server backend.
type DatabaseCandidate struct {
	cfg      config.SQL
	priority int

	once sync.Once
	db   *sql.DB
	err  error
}

// NewDatabaseCandidate builds the primary backend candidate. The pool is
// opened lazily on first fetch.
func NewDatabaseCandidate(cfg config.SQL, priority int) *DatabaseCandidate {
	return &DatabaseCandidate{cfg: cfg, priority: priority}
}

// Descriptor identifies the database source.
func (d *DatabaseCandidate) Descriptor() model.SourceDescriptor {
	return model.SourceDescriptor{
		Kind:     model.SourceDatabase,
		Name:     d.cfg.Host + "/" + d.cfg.Database,
		Location: d.connString(false),
		Priority: d.priority,
	}
}

// connString builds an ADO-style connection string from the sql.* config.
// withSecret controls whether the password is included; descriptors carry
// the redacted form.
func (d *DatabaseCandidate) connString(withSecret bool) string {
	parts := []string{
		"server=" + d.cfg.Host,
		fmt.Sprintf("port=%d", d.cfg.Port),
		"database=" + d.cfg.Database,
	}
	if d.cfg.TrustedConnection {
		parts = append(parts, "trusted_connection=yes")
	} else if d.cfg.Username != "" {
		parts = append(parts, "user id="+d.cfg.Username)
		if withSecret {
			parts = append(parts, "password="+d.cfg.Password)
		} else {
			parts = append(parts, "password=****")
		}
	}
	return strings.Join(parts, ";")
}

func (d *DatabaseCandidate) open() (*sql.DB, error) {
	d.once.Do(func() {
		driver := d.cfg.Driver
		if driver == "" {
			driver = "sqlserver"
		}
		d.db, d.err = sql.Open(driver, d.connString(true))
		if d.err != nil {
			return
		}
		d.db.SetMaxOpenConns(maxOpenConns)
		d.db.SetMaxIdleConns(maxIdleConns)
		d.db.SetConnMaxLifetime(connMaxLifetime)
	})
	return d.db, d.err
}

// Fetch pulls the event table through a scoped pooled connection: acquired
// for this call, released on every exit path.
func (d *DatabaseCandidate) Fetch(ctx context.Context) (model.RawBatch, error) {
	if !d.cfg.Enabled() {
		return model.RawBatch{}, ErrNotConfigured
	}
	db, err := d.open()
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("open pool: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	table := d.cfg.Table
	if table == "" {
		table = "dbo.FMS_SPEED"
	}
	rows, err := conn.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("read columns: %w", err)
	}

	batch := model.RawBatch{Kind: model.SourceDatabase, Header: header}
	values := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return model.RawBatch{}, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellString(v)
		}
		batch.Rows = append(batch.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return model.RawBatch{}, fmt.Errorf("iterate rows: %w", err)
	}
	return batch, nil
}

// cellString renders a scanned SQL value in a form the normalizer parses.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}
