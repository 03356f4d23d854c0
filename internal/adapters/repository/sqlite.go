package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/record"
	"github.com/okian/crmpulse/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/samber/lo"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const driverName = "sqlite3"

// SQLiteStore is a Source over the CRM snapshot tables in a SQLite file.
// Timestamps are stored as unix nanoseconds and money as decimal text.
type SQLiteStore struct {
	db           *sql.DB
	log          logger.Logger
	batchSize    int
	maxOpenConns int
	closed       atomic.Bool
}

var _ Source = (*SQLiteStore)(nil)

// OpenSQLite opens path, applies pragmas and runs the embedded migrations.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		log:          logger.NewNop(),
		batchSize:    defaultBatchSize,
		maxOpenConns: 4,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	s.db = db

	if err := s.applyPragmas(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrMigrate, err)
	}
	s.log.Info(ctx, "sqlite store ready", logger.String("path", path))
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) applyPragmas(ctx context.Context) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set PRAGMA %s: %w", p.name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{log: s.log.Named("goose")})
	if err := goose.SetDialect(driverName); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("run goose migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output to the store logger.
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (s *SQLiteStore) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

func queryErr(collection string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrQuery, collection, err)
}

// where accumulates SQL conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func nanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

// ListDeals implements Source.
func (s *SQLiteStore) ListDeals(ctx context.Context, f DealFilter) ([]model.Deal, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var w where
	if !f.CreatedAfter.IsZero() {
		w.add("created_at >= ?", nanos(f.CreatedAfter))
	}
	if !f.CreatedBefore.IsZero() {
		w.add("created_at <= ?", nanos(f.CreatedBefore))
	}
	if f.KamID != "" {
		w.add("kam_id = ?", f.KamID)
	}
	if f.ExpectedCloseMonth != nil {
		start := f.ExpectedCloseMonth.Start(time.UTC)
		end := f.ExpectedCloseMonth.Next().Start(time.UTC)
		w.add("expected_close_date >= ? AND expected_close_date < ?", nanos(start), nanos(end))
	}
	q := "SELECT id, status, kam_id, account_id, expected_value, created_at, expected_close_date FROM deals" + w.String() + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, queryErr(CollectionDeals, err)
	}
	defer rows.Close()

	var out []model.Deal
	for rows.Next() {
		var (
			d       model.Deal
			status  string
			created int64
			closeAt sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &status, &d.KamID, &d.AccountID, &d.ExpectedValue, &created, &closeAt); err != nil {
			return nil, queryErr(CollectionDeals, err)
		}
		d.Status = model.Stage(status)
		d.CreatedAt = fromNanos(created)
		if closeAt.Valid {
			d.ExpectedCloseDate = fromNanos(closeAt.Int64)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(CollectionDeals, err)
	}
	return out, nil
}

// ListStatusEvents implements Source. Deal ids are bound in batches.
func (s *SQLiteStore) ListStatusEvents(ctx context.Context, f EventFilter) ([]model.StatusEvent, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if f.DealIDs != nil && len(f.DealIDs) == 0 {
		return nil, nil
	}
	batches := [][]string{nil}
	if f.DealIDs != nil {
		batches = lo.Chunk(lo.Uniq(f.DealIDs), s.batchSize)
	}

	var out []model.StatusEvent
	for _, ids := range batches {
		part, err := s.listEvents(ctx, f, ids)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	sortEvents(out)
	return out, nil
}

func (s *SQLiteStore) listEvents(ctx context.Context, f EventFilter, ids []string) ([]model.StatusEvent, error) {
	var w where
	if ids != nil {
		w.add("deal_id IN ("+strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")+")", lo.ToAnySlice(ids)...)
	}
	if !f.ChangedAfter.IsZero() {
		w.add("changed_at >= ?", nanos(f.ChangedAfter))
	}
	if !f.ChangedBefore.IsZero() {
		w.add("changed_at <= ?", nanos(f.ChangedBefore))
	}
	q := "SELECT id, deal_id, old_status, new_status, changed_at FROM status_events" + w.String()
	rows, err := s.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, queryErr(CollectionEvents, err)
	}
	defer rows.Close()

	var out []model.StatusEvent
	for rows.Next() {
		var (
			e        model.StatusEvent
			old      sql.NullString
			newState string
			changed  int64
		)
		if err := rows.Scan(&e.ID, &e.DealID, &old, &newState, &changed); err != nil {
			return nil, queryErr(CollectionEvents, err)
		}
		e.OldStatus = model.Stage(old.String)
		e.NewStatus = model.Stage(newState)
		e.ChangedAt = fromNanos(changed)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(CollectionEvents, err)
	}
	return out, nil
}

// ListMandates implements Source. Performance values are decoded into
// entries here; undecodable values become malformed entries.
func (s *SQLiteStore) ListMandates(ctx context.Context, f MandateFilter) ([]model.Mandate, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var w where
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.KamID != "" {
		w.add("kam_id = ?", f.KamID)
	}
	q := "SELECT id, account_id, kam_id, type, lob FROM mandates" + w.String() + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, queryErr(CollectionMandates, err)
	}
	var out []model.Mandate
	for rows.Next() {
		var (
			m   model.Mandate
			typ string
		)
		if err := rows.Scan(&m.ID, &m.AccountID, &m.KamID, &typ, &m.LOB); err != nil {
			_ = rows.Close()
			return nil, queryErr(CollectionMandates, err)
		}
		m.Type = model.MandateType(typ)
		m.Performance = make(map[fiscal.Month]record.Entry)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, queryErr(CollectionMandates, err)
	}
	_ = rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	if err := s.attachPerformance(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) attachPerformance(ctx context.Context, mandates []model.Mandate) error {
	byID := make(map[string]int, len(mandates))
	for i, m := range mandates {
		byID[m.ID] = i
	}
	for _, ids := range lo.Chunk(lo.Keys(byID), s.batchSize) {
		q := "SELECT mandate_id, year, month, value FROM performance_records WHERE mandate_id IN (" +
			strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"
		rows, err := s.db.QueryContext(ctx, q, lo.ToAnySlice(ids)...)
		if err != nil {
			return queryErr(CollectionMandates, err)
		}
		for rows.Next() {
			var (
				mandateID   string
				year, month int
				raw         sql.NullString
			)
			if err := rows.Scan(&mandateID, &year, &month, &raw); err != nil {
				_ = rows.Close()
				return queryErr(CollectionMandates, err)
			}
			entry, err := record.Decode(json.RawMessage(raw.String))
			if err != nil {
				s.log.Debug(ctx, "malformed performance record",
					logger.String("mandate_id", mandateID), logger.Int("year", year), logger.Int("month", month))
			}
			mandates[byID[mandateID]].Performance[fiscal.Month{Year: year, Month: time.Month(month)}] = entry
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return queryErr(CollectionMandates, err)
		}
		_ = rows.Close()
	}
	return nil
}

// ListAccounts implements Source.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, company_size FROM accounts ORDER BY id")
	if err != nil {
		return nil, queryErr(CollectionAccounts, err)
	}
	defer rows.Close()
	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.CompanySize); err != nil {
			return nil, queryErr(CollectionAccounts, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(CollectionAccounts, err)
	}
	return out, nil
}

// ListTargets implements Source. A row whose scope columns are not exactly
// one shape is returned with a nil Scope so aggregation counts it malformed.
func (s *SQLiteStore) ListTargets(ctx context.Context, f TargetFilter) ([]model.TargetRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var w where
	if f.Month != 0 {
		w.add("month = ?", int(f.Month))
	}
	if f.Year != 0 {
		w.add("year = ?", f.Year)
	}
	if f.FiscalYear != "" {
		w.add("fiscal_year = ?", f.FiscalYear)
	}
	if f.Type != "" {
		w.add("target_type = ?", string(f.Type))
	}
	q := "SELECT id, target_type, month, year, fiscal_year, value, kam_id, account_id, mandate_id FROM targets" + w.String() + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, queryErr(CollectionTargets, err)
	}
	defer rows.Close()

	var out []model.TargetRecord
	for rows.Next() {
		var (
			t                   model.TargetRecord
			typ                 string
			month               int
			kam, acc, mandateID sql.NullString
		)
		if err := rows.Scan(&t.ID, &typ, &month, &t.Year, &t.FiscalYear, &t.Value, &kam, &acc, &mandateID); err != nil {
			return nil, queryErr(CollectionTargets, err)
		}
		t.Type = model.TargetType(typ)
		t.Month = time.Month(month)
		scope, err := model.NewTargetScope(kam.String, acc.String, mandateID.String)
		if err != nil {
			s.log.Debug(ctx, "target with invalid scope", logger.String("target_id", t.ID), logger.Error(err))
		}
		t.Scope = scope
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(CollectionTargets, err)
	}
	return out, nil
}

// ListKams implements Source.
func (s *SQLiteStore) ListKams(ctx context.Context) ([]model.Kam, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id, display_name FROM kams ORDER BY id")
	if err != nil {
		return nil, queryErr(CollectionKams, err)
	}
	defer rows.Close()
	var out []model.Kam
	for rows.Next() {
		var k model.Kam
		if err := rows.Scan(&k.ID, &k.DisplayName); err != nil {
			return nil, queryErr(CollectionKams, err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(CollectionKams, err)
	}
	return out, nil
}

// Load writes every collection of snap in one transaction. Existing rows with
// the same id are replaced; status events are only ever inserted.
func (s *SQLiteStore) Load(ctx context.Context, snap Snapshot) (err error) {
	if err := s.check(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return queryErr("load", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	for _, k := range snap.Kams {
		if _, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO kams (id, display_name) VALUES (?, ?)", k.ID, k.DisplayName); err != nil {
			return queryErr(CollectionKams, err)
		}
	}
	for _, a := range snap.Accounts {
		if _, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO accounts (id, name, company_size) VALUES (?, ?, ?)", a.ID, a.Name, a.CompanySize); err != nil {
			return queryErr(CollectionAccounts, err)
		}
	}
	for _, d := range snap.Deals {
		var closeAt sql.NullInt64
		if !d.ExpectedCloseDate.IsZero() {
			closeAt = sql.NullInt64{Int64: nanos(d.ExpectedCloseDate), Valid: true}
		}
		if _, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO deals (id, status, kam_id, account_id, expected_value, created_at, expected_close_date) VALUES (?, ?, ?, ?, ?, ?, ?)",
			d.ID, string(d.Status), d.KamID, d.AccountID, d.ExpectedValue.String(), nanos(d.CreatedAt), closeAt); err != nil {
			return queryErr(CollectionDeals, err)
		}
	}
	for _, e := range snap.Events {
		var old sql.NullString
		if e.OldStatus != "" {
			old = sql.NullString{String: string(e.OldStatus), Valid: true}
		}
		if _, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO status_events (id, deal_id, old_status, new_status, changed_at) VALUES (?, ?, ?, ?, ?)",
			e.ID, e.DealID, old, string(e.NewStatus), nanos(e.ChangedAt)); err != nil {
			return queryErr(CollectionEvents, err)
		}
	}
	for _, m := range snap.Mandates {
		if _, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO mandates (id, account_id, kam_id, type, lob) VALUES (?, ?, ?, ?, ?)",
			m.ID, m.AccountID, m.KamID, string(m.Type), m.LOB); err != nil {
			return queryErr(CollectionMandates, err)
		}
		for month, entry := range m.Performance {
			var raw []byte
			if raw, err = entry.MarshalJSON(); err != nil {
				return queryErr(CollectionMandates, err)
			}
			if _, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO performance_records (mandate_id, year, month, value) VALUES (?, ?, ?, ?)",
				m.ID, month.Year, int(month.Month), string(raw)); err != nil {
				return queryErr(CollectionMandates, err)
			}
		}
	}
	for _, t := range snap.Targets {
		var kam, acc, mandateID sql.NullString
		switch sc := t.Scope.(type) {
		case model.CrossSellScope:
			kam = sql.NullString{String: sc.KamID, Valid: true}
			acc = sql.NullString{String: sc.AccountID, Valid: true}
		case model.ExistingScope:
			mandateID = sql.NullString{String: sc.MandateID, Valid: true}
		}
		if _, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO targets (id, target_type, month, year, fiscal_year, value, kam_id, account_id, mandate_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			t.ID, string(t.Type), int(t.Month), t.Year, t.FiscalYear, t.Value.String(), kam, acc, mandateID); err != nil {
			return queryErr(CollectionTargets, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return queryErr("load", err)
	}
	return nil
}
