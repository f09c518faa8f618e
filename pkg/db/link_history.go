package db

import (
	"database/sql"
	"fmt"
	"time"
)

// LinkRecord represents one transaction-to-schedule link.
type LinkRecord struct {
	ID            int64
	TransactionID string
	ScheduleID    string
	ScheduleName  string
	TxnDate       string
	Amount        int64
	Parcel        int
	ParcelTotal   int
	Created       bool
	Completed     bool
	LinkedAt      time.Time
}

// LinkHistory manages link history operations.
type LinkHistory struct {
	conn *Connection
}

// NewLinkHistory creates a new LinkHistory instance.
func NewLinkHistory(conn *Connection) *LinkHistory {
	return &LinkHistory{conn: conn}
}

// RecordLink records a transaction link. Re-linking the same transaction
// updates the existing row.
func (h *LinkHistory) RecordLink(record LinkRecord) error {
	query := `
		INSERT INTO link_history (transaction_id, schedule_id, schedule_name, txn_date, amount, parcel, parcel_total, created, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			schedule_id = excluded.schedule_id,
			schedule_name = excluded.schedule_name,
			txn_date = excluded.txn_date,
			amount = excluded.amount,
			parcel = excluded.parcel,
			parcel_total = excluded.parcel_total,
			created = excluded.created,
			completed = excluded.completed,
			linked_at = CURRENT_TIMESTAMP
	`

	_, err := h.conn.Exec(query,
		record.TransactionID,
		record.ScheduleID,
		record.ScheduleName,
		record.TxnDate,
		record.Amount,
		record.Parcel,
		record.ParcelTotal,
		record.Created,
		record.Completed,
	)

	if err != nil {
		return fmt.Errorf("failed to record link: %w", err)
	}

	return nil
}

// IsLinked checks whether a transaction already has a recorded link.
func (h *LinkHistory) IsLinked(transactionID string) (bool, error) {
	query := `
		SELECT COUNT(*) as count FROM link_history
		WHERE transaction_id = ?
	`

	var count int
	err := h.conn.QueryRow(query, transactionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if linked: %w", err)
	}

	return count > 0, nil
}

// LinksForSchedule retrieves all links recorded against a schedule.
func (h *LinkHistory) LinksForSchedule(scheduleID string) ([]LinkRecord, error) {
	query := `
		SELECT id, transaction_id, schedule_id, schedule_name, txn_date, amount, parcel, parcel_total, created, completed, linked_at
		FROM link_history
		WHERE schedule_id = ?
		ORDER BY txn_date ASC
	`

	rows, err := h.conn.Query(query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links for schedule: %w", err)
	}
	defer rows.Close()

	var records []LinkRecord
	for rows.Next() {
		var record LinkRecord

		if err := rows.Scan(
			&record.ID,
			&record.TransactionID,
			&record.ScheduleID,
			&record.ScheduleName,
			&record.TxnDate,
			&record.Amount,
			&record.Parcel,
			&record.ParcelTotal,
			&record.Created,
			&record.Completed,
			&record.LinkedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link record: %w", err)
		}

		records = append(records, record)
	}

	return records, nil
}

// Stats represents link history statistics.
type Stats struct {
	TotalLinks       int
	TotalSchedules   int
	CreatedSchedules int
	CompletedSeries  int
	LastRun          sql.NullString
}

// GetStats retrieves link history statistics.
func (h *LinkHistory) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`SELECT COUNT(*) FROM link_history`).Scan(&stats.TotalLinks)
	if err != nil {
		return nil, fmt.Errorf("failed to get link count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(DISTINCT schedule_id) FROM link_history`).Scan(&stats.TotalSchedules)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM link_history WHERE created = 1`).Scan(&stats.CreatedSchedules)
	if err != nil {
		return nil, fmt.Errorf("failed to get created count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(DISTINCT schedule_id) FROM link_history WHERE completed = 1`).Scan(&stats.CompletedSeries)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT MAX(linked_at) FROM link_history`).Scan(&stats.LastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *LinkHistory) GetMetadata(key string) (string, error) {
	query := `SELECT value FROM run_metadata WHERE key = ?`

	var value string
	err := h.conn.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *LinkHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO run_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := h.conn.Exec(query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
