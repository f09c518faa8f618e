// Package db provides SQLite storage for the local link history and run
// metadata kept under the budget data directory.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Link history table
-- Tracks which transactions have been linked to which installment schedules
CREATE TABLE IF NOT EXISTS link_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id TEXT NOT NULL,      -- transaction id in the remote store
    schedule_id TEXT NOT NULL,         -- schedule id in the remote store
    schedule_name TEXT NOT NULL,       -- composed series name (dedup key)
    txn_date TEXT NOT NULL,            -- YYYY-MM-DD
    amount INTEGER NOT NULL,           -- minor currency units
    parcel INTEGER NOT NULL,           -- 1-based position in the series
    parcel_total INTEGER NOT NULL,     -- series length
    created INTEGER NOT NULL,          -- 1 if this link created the schedule
    completed INTEGER NOT NULL,        -- 1 if this link completed the series
    linked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(transaction_id)
);

CREATE INDEX IF NOT EXISTS idx_link_history_schedule
    ON link_history(schedule_id);

CREATE INDEX IF NOT EXISTS idx_link_history_date
    ON link_history(txn_date);

-- Run metadata table
-- Stores key-value metadata about detection runs
CREATE TABLE IF NOT EXISTS run_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
