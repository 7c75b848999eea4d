// Package sqlstore persists records in a SQL database through xorm. Every
// model maps to one table and every field to one column.
package sqlstore

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/codec"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"xorm.io/builder"
	"xorm.io/xorm"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// DefaultDriver is the driver used when none is configured.
const DefaultDriver = "sqlite3"

// bufferSize is the page size of Iterate.
const bufferSize = 100

// ErrAlreadyInTransaction is returned by WithTx when ctx already carries a
// transaction.
var ErrAlreadyInTransaction = errors.New("database connection has already been in a transaction")

type sessionKey struct{}

// Store is a record store on a SQL database.
type Store struct {
	engine *xorm.Engine
}

// Open connects to the database.
func Open(driver, dsn string, showSQL bool) (*Store, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	engine, err := xorm.NewEngine(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}
	engine.SetLogger(newXORMLogger(showSQL))
	engine.ShowSQL(showSQL)
	return &Store{engine: engine}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.engine.Close()
}

func (s *Store) session(ctx context.Context) *xorm.Session {
	if sess, ok := ctx.Value(sessionKey{}).(*xorm.Session); ok {
		return sess.Context(ctx)
	}
	return s.engine.Context(ctx)
}

// InTransaction reports whether ctx carries a transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(sessionKey{}).(*xorm.Session)
	return ok
}

// WithTx runs f in a transaction. Every store call made with the context
// passed to f joins it. The transaction commits when f returns nil and rolls
// back otherwise.
func (s *Store) WithTx(ctx context.Context, f func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return ErrAlreadyInTransaction
	}
	sess := s.engine.NewSession()
	defer sess.Close()
	if err := sess.Begin(); err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	log.Debug("transaction started")

	if err := f(context.WithValue(ctx, sessionKey{}, sess)); err != nil {
		if rbErr := sess.Rollback(); rbErr != nil {
			log.Error("rollback failed", "error", rbErr)
		}
		log.Debug("transaction rolled back", "error", err)
		return err
	}
	if err := sess.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	log.Debug("transaction committed")
	return nil
}

func columnType(f *models.Field) string {
	var typ string
	switch f.Kind {
	case models.KindIdentifier:
		return "BIGINT NOT NULL PRIMARY KEY"
	case models.KindBoolean:
		typ = "BOOLEAN"
	case models.KindInteger, models.KindDuration, models.KindRelation:
		typ = "BIGINT"
	default:
		typ = "TEXT"
	}
	if !f.Null && !f.AutoPopulated() {
		typ += " NOT NULL"
	}
	return typ
}

// Sync creates the tables of ms when missing.
func (s *Store) Sync(ctx context.Context, ms ...*models.Model) error {
	for _, m := range ms {
		columns := make([]string, 0, len(m.Fields))
		for _, f := range m.Fields {
			columns = append(columns, s.engine.Quote(f.ColumnName())+" "+columnType(f))
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.engine.Quote(m.TableName()), strings.Join(columns, ", "))
		if _, err := s.session(ctx).Exec(stmt); err != nil {
			return errors.Wrapf(err, "create table for %s", m.Label())
		}
		log.Debug("table synced", "model", m.Label(), "table", m.TableName())
	}
	return nil
}

// Build creates an unsaved record, coercing values to the field kinds.
func (s *Store) Build(m *models.Model, values models.Values) (*models.Record, error) {
	return codec.BuildRecord(m, values)
}

// columnValue converts a field value to what the column of f stores.
func columnValue(f *models.Field, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *models.Record:
		if x == nil {
			return nil
		}
		return x.PK()
	case decimal.Decimal:
		return x.String()
	case time.Duration:
		return int64(x)
	case time.Time:
		if f.Kind == models.KindDate {
			return x.Format(codec.DateLayout)
		}
		return codec.FormatTimestamp(x)
	case bool, int64, string:
		return x
	}
	if f.Kind == models.KindInteger {
		return v
	}
	return codec.Stringify(v)
}

func row(rec *models.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(rec.Meta.Fields))
	for _, f := range rec.Meta.Fields {
		v, ok := rec.Values[f.Name]
		if !ok {
			continue
		}
		out[f.ColumnName()] = columnValue(f, v)
	}
	return out
}

func (s *Store) nextID(ctx context.Context, m *models.Model) (int64, error) {
	stmt := fmt.Sprintf("SELECT MAX(%s) AS max_id FROM %s", s.engine.Quote(m.PK().ColumnName()), s.engine.Quote(m.TableName()))
	results, err := s.session(ctx).QueryInterface(stmt)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 || results[0]["max_id"] == nil {
		return 1, nil
	}
	last, err := codec.Clean(m.PK(), results[0]["max_id"])
	if err != nil {
		return 0, err
	}
	id, ok := last.(int64)
	if !ok {
		return 0, errors.Errorf("%s: primary key %v is not an integer", m.Label(), last)
	}
	return id + 1, nil
}

// Save inserts rec, or updates the row with its primary key. A missing
// primary key is assigned the next integer.
func (s *Store) Save(ctx context.Context, rec *models.Record) error {
	m := rec.Meta
	pk := m.PK()
	if pk == nil {
		return errors.Errorf("%s has no primary key", m.Label())
	}
	if rec.PK() == nil {
		id, err := s.nextID(ctx, m)
		if err != nil {
			return errors.Wrapf(err, "assign primary key of %s", m.Label())
		}
		rec.SetPK(id)
	}

	values := row(rec)
	cond := builder.Eq{pk.ColumnName(): values[pk.ColumnName()]}
	exists, err := s.session(ctx).Table(m.TableName()).Where(cond).Exist()
	if err != nil {
		return errors.Wrapf(err, "save %s", m.Label())
	}
	if !exists {
		_, err = s.session(ctx).Table(m.TableName()).Insert(values)
		return errors.Wrapf(err, "insert %s pk=%v", m.Label(), rec.PK())
	}

	delete(values, pk.ColumnName())
	if len(values) == 0 {
		return nil
	}
	_, err = s.session(ctx).Table(m.TableName()).Where(cond).Update(values)
	return errors.Wrapf(err, "update %s pk=%v", m.Label(), rec.PK())
}

func (s *Store) record(m *models.Model, values map[string]interface{}) (*models.Record, error) {
	byField := make(models.Values, len(m.Fields))
	for _, f := range m.Fields {
		if v, ok := values[f.ColumnName()]; ok {
			byField[f.Name] = v
		}
	}
	return codec.BuildRecord(m, byField)
}

// Get fetches the record of m with primary key pk.
func (s *Store) Get(ctx context.Context, m *models.Model, pk any) (*models.Record, error) {
	if m.PK() == nil {
		return nil, errors.Errorf("%s has no primary key", m.Label())
	}
	results, err := s.session(ctx).Table(m.TableName()).
		Where(builder.Eq{m.PK().ColumnName(): pk}).
		Limit(1).
		QueryInterface()
	if err != nil {
		return nil, errors.Wrapf(err, "get %s pk=%v", m.Label(), pk)
	}
	if len(results) == 0 {
		return nil, errors.Wrapf(models.ErrRecordNotFound, "%s pk=%v", m.Label(), pk)
	}
	return s.record(m, results[0])
}

// Count returns the number of rows of m.
func (s *Store) Count(ctx context.Context, m *models.Model) (int64, error) {
	n, err := s.session(ctx).Table(m.TableName()).Count()
	return n, errors.Wrapf(err, "count %s", m.Label())
}

// Iterate yields every record of m in primary key order, reading the table
// one page at a time.
func (s *Store) Iterate(ctx context.Context, m *models.Model) iter.Seq2[models.Object, error] {
	return func(yield func(models.Object, error) bool) {
		if m.PK() == nil {
			yield(nil, errors.Errorf("%s has no primary key", m.Label()))
			return
		}
		order := s.engine.Quote(m.PK().ColumnName())
		start := 0
		for {
			results, err := s.session(ctx).Table(m.TableName()).
				OrderBy(order).
				Limit(bufferSize, start).
				QueryInterface()
			if err != nil {
				yield(nil, errors.Wrapf(err, "iterate %s", m.Label()))
				return
			}
			for _, values := range results {
				rec, err := s.record(m, values)
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(rec, nil) {
					return
				}
			}
			if len(results) < bufferSize {
				return
			}
			start += len(results)
		}
	}
}
