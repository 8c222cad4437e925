// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"samscope/internal/models"
)

// SQLiteStorage implements Storage using SQLite. A per-instance mutex
// serializes writers so a multi-statement operation from one goroutine
// never interleaves with another's.
type SQLiteStorage struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// Option configures a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithLogger sets a logger for operation logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *SQLiteStorage) { s.logger = l }
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY,
		notice_id TEXT UNIQUE,
		title TEXT,
		agency TEXT,
		sub_tier TEXT,
		naics_code TEXT,
		psc_code TEXT,
		date_posted TEXT,
		type TEXT,
		base_period TEXT,
		option_periods TEXT,
		delivery_order TEXT,
		synopsis TEXT,
		setaside TEXT,
		response_date TEXT,
		award_date TEXT,
		award_number TEXT,
		contract_award_value REAL,
		contractor_name TEXT,
		contract_description TEXT,
		primary_poc TEXT,
		secondary_poc TEXT,
		data TEXT
	);
	`
	_, err := db.Exec(schema)
	return err
}

// insertColumns is the column list for upserts, data last.
const insertColumns = `notice_id, title, agency, sub_tier, naics_code, psc_code,
	date_posted, type, base_period, option_periods, delivery_order, synopsis,
	setaside, response_date, award_date, award_number, contract_award_value,
	contractor_name, contract_description, primary_poc, secondary_poc, data`

// updatableColumns maps column names accepted by BulkUpdate to the
// corresponding key in the stored original-row payload. notice_id (the key)
// and data (the payload itself) are deliberately absent.
var updatableColumns = map[string]string{
	"title":                models.HeaderTitle,
	"agency":               models.HeaderAgency,
	"sub_tier":             models.HeaderSubTier,
	"naics_code":           models.HeaderNAICSCode,
	"psc_code":             models.HeaderPSCCode,
	"date_posted":          models.HeaderDatePosted,
	"type":                 models.HeaderType,
	"base_period":          models.HeaderBasePeriod,
	"option_periods":       models.HeaderOptionPeriods,
	"delivery_order":       models.HeaderDeliveryOrder,
	"synopsis":             models.HeaderSynopsis,
	"setaside":             models.HeaderSetAside,
	"response_date":        models.HeaderResponseDate,
	"award_date":           models.HeaderAwardDate,
	"award_number":         models.HeaderAwardNumber,
	"contract_award_value": models.HeaderAwardValue,
	"contractor_name":      models.HeaderContractorName,
	"contract_description": models.HeaderDescription,
	"primary_poc":          models.HeaderPrimaryPOC,
	"secondary_poc":        models.HeaderSecondaryPOC,
}

// UpsertContracts validates each contract, drops invalid ones, and
// inserts-or-replaces the rest by notice id in one transaction. The full
// original row is stored verbatim as the data payload alongside the
// flattened columns. Returns the number of contracts persisted.
func (s *SQLiteStorage) UpsertContracts(ctx context.Context, contracts []*models.Contract) (int, error) {
	valid := make([]*models.Contract, 0, len(contracts))
	for _, c := range contracts {
		if err := c.Validate(); err != nil {
			if s.logger != nil {
				s.logger.Warn("dropping invalid contract", zap.Error(err))
			}
			continue
		}
		valid = append(valid, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 22), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO contracts (`+insertColumns+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, c := range valid {
		payload, err := json.Marshal(c.ToRaw())
		if err != nil {
			return 0, fmt.Errorf("failed to marshal contract %s: %w", c.NoticeID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.NoticeID, c.Title, c.Agency, c.SubTier, c.NAICSCode, c.PSCCode,
			c.DatePosted, c.Type, c.BasePeriod, c.OptionPeriods, c.DeliveryOrder,
			c.Synopsis, c.SetAside, c.ResponseDate, c.AwardDate, c.AwardNumber,
			c.AwardValue, c.ContractorName, c.Description, c.PrimaryPOC,
			c.SecondaryPOC, string(payload),
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if s.logger != nil {
		s.logger.Info("contracts persisted",
			zap.Int("inserted", len(valid)),
			zap.Int("dropped", len(contracts)-len(valid)))
	}
	return len(valid), nil
}

// Search returns up to limit matching contracts, skipping the first offset
// matches. Each result is reconstructed from the stored original-row payload
// so imported field names and values survive unchanged.
func (s *SQLiteStorage) Search(ctx context.Context, filter *models.Filter, limit, offset int) ([]*models.Contract, error) {
	where, args := BuildWhere(filter)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM contracts `+where+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var raw map[string]string
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contract payload: %w", err)
		}
		contracts = append(contracts, models.FromRow(raw))
	}
	return contracts, rows.Err()
}

// Count returns the number of contracts matching the filter.
func (s *SQLiteStorage) Count(ctx context.Context, filter *models.Filter) (int, error) {
	where, args := BuildWhere(filter)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contracts `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

// BulkUpdate sets the given column/value pairs on every contract whose
// notice id is in ids, keeping the stored payload consistent with the
// updated columns. Field names outside the updatable set are rejected.
func (s *SQLiteStorage) BulkUpdate(ctx context.Context, ids []string, fields map[string]string) error {
	if len(ids) == 0 || len(fields) == 0 {
		return nil
	}
	columns := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("field %q is not updatable", col)
		}
		columns = append(columns, col)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	setClause := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		setClause = append(setClause, col+" = ?")
	}
	setClause = append(setClause, "data = ?")

	for _, id := range ids {
		var payload string
		err := tx.QueryRowContext(ctx,
			`SELECT data FROM contracts WHERE notice_id = ?`, id).Scan(&payload)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return fmt.Errorf("bulk update failed for %s: %w", id, err)
		}
		var raw map[string]string
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			return fmt.Errorf("bulk update failed for %s: %w", id, err)
		}
		args := make([]any, 0, len(columns)+2)
		for _, col := range columns {
			raw[updatableColumns[col]] = fields[col]
			args = append(args, fields[col])
		}
		patched, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		args = append(args, string(patched), id)
		if _, err := tx.ExecContext(ctx,
			`UPDATE contracts SET `+strings.Join(setClause, ", ")+` WHERE notice_id = ?`,
			args...); err != nil {
			return fmt.Errorf("bulk update failed for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("bulk updated contracts", zap.Int("count", len(ids)))
	}
	return nil
}

// BulkDelete removes all contracts whose notice id is in ids. Deleting a
// nonexistent id is a no-op.
func (s *SQLiteStorage) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM contracts WHERE notice_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("bulk delete failed: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("bulk deleted contracts", zap.Int("count", len(ids)))
	}
	return nil
}

// Agencies returns the distinct awarding agencies, sorted.
func (s *SQLiteStorage) Agencies(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "agency")
}

// SetAsides returns the distinct set-aside categories, sorted.
func (s *SQLiteStorage) SetAsides(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "setaside")
}

func (s *SQLiteStorage) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM contracts WHERE `+column+` <> '' ORDER BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
