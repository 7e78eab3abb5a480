package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
)

//go:embed schema.sql
var schema string

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	q      queryer
	tx     *sql.Tx
	logger *logging.Logger
}

// OpenPostgres opens a pooled connection and verifies it.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(db *sql.DB, logger *logging.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		q:      db,
		logger: logger,
	}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	s.logger.Info("Applying database schema")
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		s.logger.Error("Schema migration failed", logging.Fields{"error": err.Error()})
		return err
	}
	return nil
}

func (s *PostgresStore) Orders() OrderRepository         { return pgOrders{s} }
func (s *PostgresStore) OrderLines() OrderLineRepository { return pgOrderLines{s} }
func (s *PostgresStore) Users() UserRepository           { return pgUsers{s} }
func (s *PostgresStore) Categories() CategoryRepository  { return pgCategories{s} }
func (s *PostgresStore) Brands() BrandRepository         { return pgBrands{s} }
func (s *PostgresStore) Products() ProductRepository     { return pgProducts{s} }
func (s *PostgresStore) Reviews() ReviewRepository       { return pgReviews{s} }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn in a read committed transaction. Nested calls join the
// outer transaction.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return classify("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&PostgresStore{db: s.db, q: tx, tx: tx, logger: s.logger}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("Transaction rollback failed", logging.Fields{"error": rbErr.Error()})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// forUpdate is appended to root-entity reads so a concurrent cascade blocks
// until the holder commits.
func (s *PostgresStore) forUpdate() string {
	if s.tx != nil {
		return " FOR UPDATE"
	}
	return ""
}

// insert writes one row and returns its id. A non-zero id is written
// explicitly and the identity sequence is moved past it.
func (s *PostgresStore) insert(ctx context.Context, table string, id int64, cols []string, args []interface{}) (int64, error) {
	if id != 0 {
		cols = append([]string{"id"}, cols...)
		args = append([]interface{}{id}, args...)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ") RETURNING id"

	var newID int64
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&newID); err != nil {
		return 0, classify("insert "+table, err)
	}

	if id != 0 {
		bump := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), (SELECT MAX(id) FROM " + table + "))"
		if _, err := s.q.ExecContext(ctx, bump); err != nil {
			return 0, classify("advance "+table+" sequence", err)
		}
	}
	return newID, nil
}

// execAffecting runs a single-row write and maps zero affected rows to
// not found.
func (s *PostgresStore) execAffecting(ctx context.Context, op, entity string, id int64, query string, args ...interface{}) error {
	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Write failed", logging.Fields{
			"op":    op,
			"id":    id,
			"error": err.Error(),
		})
		return classify(op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound(entity, id)
	}
	return nil
}

func (s *PostgresStore) execCount(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	return int(n), nil
}

// classify maps driver errors onto the apperrors taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return apperrors.NewConflictError("duplicate key", err)
		case "serialization_failure", "deadlock_detected":
			return apperrors.NewConflictError("concurrent modification", err)
		case "foreign_key_violation":
			return apperrors.NewConflictError("row is still referenced", err)
		case "check_violation", "numeric_value_out_of_range":
			return apperrors.NewValidationError("", pqErr.Message)
		}
	}
	return apperrors.Internal(op, err)
}

// likeEscape escapes LIKE metacharacters so text matches literally.
func likeEscape(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}

// whereBuilder accumulates AND-ed conditions with positional arguments.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
