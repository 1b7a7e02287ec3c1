// Package store persists period-scoped target records and monthly allocation
// plans in a local sqlite database. Records are flat field-id -> value maps;
// a missing record means "use defaults" and is not an error.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldserve/marketing-targets/internal/allocator"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrUnbalancedAllocation rejects persisting a monthly plan whose budgets do
// not sum to the annual budget. The caller surfaces the remaining amount to
// the operator instead of saving.
var ErrUnbalancedAllocation = errors.New("allocated monthly budgets do not equal the annual budget")

// TargetRecord is one period-scoped target: the flat value record plus the
// date range and period type it was entered for.
type TargetRecord struct {
	ID        string
	QueryType constants.Period
	StartDate string
	EndDate   string
	Values    map[string]float64
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the sqlite database at dbPath and
// ensures the schema exists.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite works best over a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveTarget inserts or replaces the target for (queryType, startDate). The
// record's ID is assigned when empty and returned.
func (s *Store) SaveTarget(record TargetRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	payload, err := json.Marshal(record.Values)
	if err != nil {
		return "", fmt.Errorf("failed to encode field values: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO targets (id, query_type, start_date, end_date, field_values)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (query_type, start_date) DO UPDATE SET
			end_date = excluded.end_date,
			field_values = excluded.field_values,
			updated_at = CURRENT_TIMESTAMP
	`, record.ID, string(record.QueryType), record.StartDate, record.EndDate, string(payload))
	if err != nil {
		return "", fmt.Errorf("failed to save target: %w", err)
	}

	// On conflict the original row id survives; read it back so callers hold
	// the canonical id.
	var id string
	err = s.db.QueryRow(
		`SELECT id FROM targets WHERE query_type = ? AND start_date = ?`,
		string(record.QueryType), record.StartDate,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to read back target id: %w", err)
	}
	return id, nil
}

// GetTarget fetches the target for (queryType, startDate). The second return
// is false when no record exists; callers fall back to registry defaults.
func (s *Store) GetTarget(queryType constants.Period, startDate string) (TargetRecord, bool, error) {
	var record TargetRecord
	var qt, payload string

	err := s.db.QueryRow(`
		SELECT id, query_type, start_date, end_date, field_values
		FROM targets WHERE query_type = ? AND start_date = ?
	`, string(queryType), startDate).Scan(&record.ID, &qt, &record.StartDate, &record.EndDate, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return TargetRecord{}, false, nil
	}
	if err != nil {
		return TargetRecord{}, false, fmt.Errorf("failed to query target: %w", err)
	}

	record.QueryType = constants.Period(qt)
	if err := json.Unmarshal([]byte(payload), &record.Values); err != nil {
		return TargetRecord{}, false, fmt.Errorf("failed to decode field values: %w", err)
	}
	return record, true, nil
}

// ListTargets returns all stored targets for a period type, most recent
// start date first.
func (s *Store) ListTargets(queryType constants.Period) ([]TargetRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, query_type, start_date, end_date, field_values
		FROM targets WHERE query_type = ?
		ORDER BY start_date DESC
	`, string(queryType))
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []TargetRecord
	for rows.Next() {
		var record TargetRecord
		var qt, payload string
		if err := rows.Scan(&record.ID, &qt, &record.StartDate, &record.EndDate, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		record.QueryType = constants.Period(qt)
		if err := json.Unmarshal([]byte(payload), &record.Values); err != nil {
			return nil, fmt.Errorf("failed to decode field values: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveAllocation replaces the monthly plan for a target. The plan must
// balance: the budgets must sum to annualBudget in exact cents, otherwise
// ErrUnbalancedAllocation is returned and nothing is written.
func (s *Store) SaveAllocation(targetID string, annualBudget float64, months [constants.MonthsPerYear]allocator.MonthAllocation) error {
	allocated := decimal.Zero
	for _, m := range months {
		allocated = allocated.Add(decimal.NewFromFloat(m.Budget).Round(2))
	}
	if !allocated.Equal(decimal.NewFromFloat(annualBudget).Round(2)) {
		return ErrUnbalancedAllocation
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM monthly_allocations WHERE target_id = ?`, targetID); err != nil {
		return fmt.Errorf("failed to clear previous allocation: %w", err)
	}

	for i, m := range months {
		_, err := tx.Exec(`
			INSERT INTO monthly_allocations (
				target_id, month, budget, leads, estimates_set, estimates,
				sales, revenue, avg_job_size, com, management_cost, total_com
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, targetID, i+1, m.Budget, m.Leads, m.EstimatesSet, m.Estimates,
			m.Sales, m.Revenue, m.AvgJobSize, m.Com, m.ManagementCost, m.TotalCom)
		if err != nil {
			return fmt.Errorf("failed to insert month %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// GetAllocation fetches the stored monthly plan for a target. The second
// return is false when no plan has been saved.
func (s *Store) GetAllocation(targetID string) ([constants.MonthsPerYear]allocator.MonthAllocation, bool, error) {
	var months [constants.MonthsPerYear]allocator.MonthAllocation

	rows, err := s.db.Query(`
		SELECT month, budget, leads, estimates_set, estimates, sales,
			revenue, avg_job_size, com, management_cost, total_com
		FROM monthly_allocations WHERE target_id = ?
		ORDER BY month
	`, targetID)
	if err != nil {
		return months, false, fmt.Errorf("failed to query allocation: %w", err)
	}
	defer func() { _ = rows.Close() }()

	found := false
	for rows.Next() {
		var month int
		var m allocator.MonthAllocation
		if err := rows.Scan(&month, &m.Budget, &m.Leads, &m.EstimatesSet, &m.Estimates,
			&m.Sales, &m.Revenue, &m.AvgJobSize, &m.Com, &m.ManagementCost, &m.TotalCom); err != nil {
			return months, false, fmt.Errorf("failed to scan allocation: %w", err)
		}
		if month >= 1 && month <= constants.MonthsPerYear {
			months[month-1] = m
			found = true
		}
	}
	return months, found, rows.Err()
}
