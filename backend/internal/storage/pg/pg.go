package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/threads/shared/config"
	internal_errors "github.com/itchan-dev/threads/shared/errors"
	"github.com/itchan-dev/threads/shared/logger"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Storage struct {
	db  *sql.DB
	now func() time.Time
}

func New(ctx context.Context, cfg config.Pg) (*Storage, error) {
	logger.Log.Info("connecting to db", "host", cfg.Host, "dbname", cfg.Dbname)
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("successfully connected to db")
	return &Storage{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func Connect(ctx context.Context, cfg config.Pg) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// timestamp matches timestamptz microsecond precision.
func (s *Storage) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().Truncate(time.Microsecond)
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return internal_errors.NotFound(what + " not found")
	}
	return err
}

func conflict(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return internal_errors.Conflict(what + " already exists")
	}
	return err
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internal_errors.NotFound(what + " not found")
	}
	return nil
}

// pullQuery removes the ids in $2 from the threads column of every row of
// table whose id is in $1, keeping the order of what is left.
func pullQuery(table string) string {
	return fmt.Sprintf(`
        UPDATE %s
        SET threads = ARRAY(
            SELECT t FROM unnest(threads) WITH ORDINALITY AS u(t, n)
            WHERE t <> ALL($2::text[])
            ORDER BY n
        )
        WHERE id = ANY($1::text[])
    `, pq.QuoteIdentifier(table))
}

func (s *Storage) pull(ctx context.Context, table string, owners, ids []string) error {
	if len(owners) == 0 || len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, pullQuery(table), pq.Array(owners), pq.Array(ids))
	return err
}

func (s *Storage) push(ctx context.Context, table, owner, id string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET threads = array_append(threads, $2) WHERE id = $1", pq.QuoteIdentifier(table)),
		owner, id,
	)
	return err
}
