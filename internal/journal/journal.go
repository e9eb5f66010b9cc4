/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"exchange-bridge-go/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Entry is one completed operation to record.
type Entry struct {
	Kind     string // "buy", "sell", "withdrawal", "transfer"
	Exchange string // empty for pure on-chain operations
	Symbol   string
	Amount   decimal.Decimal
	Address  string
	TxId     string
	Status   string
}

// Row is one journaled operation read back for display.
type Row struct {
	Id        string
	Kind      string
	Exchange  string
	Symbol    string
	Amount    decimal.Decimal
	Address   string
	TxId      string
	Status    string
	CreatedAt time.Time
}

// Service is the optional local operation journal: a flat audit table
// of what the operator did this session and before. It is never a
// recovery source; the exchange and the chain stay authoritative.
type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.JournalConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening operation journal", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open journal: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping journal: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to initialize journal schema: %w", err)
	}

	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close journal", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		exchange TEXT NOT NULL DEFAULT '',
		symbol TEXT NOT NULL,
		amount TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		tx_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Record appends one operation and returns its generated id.
func (s *Service) Record(ctx context.Context, entry Entry) (string, error) {
	if entry.Kind == "" || entry.Symbol == "" || entry.Status == "" {
		return "", fmt.Errorf("kind, symbol and status are required")
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (id, kind, exchange, symbol, amount, address, tx_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, entry.Kind, entry.Exchange, entry.Symbol, entry.Amount.String(),
		entry.Address, entry.TxId, entry.Status)
	if err != nil {
		return "", fmt.Errorf("unable to record operation: %w", err)
	}

	zap.L().Debug("Operation journaled",
		zap.String("id", id),
		zap.String("kind", entry.Kind),
		zap.String("status", entry.Status))
	return id, nil
}

// History returns the most recent operations, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, exchange, symbol, amount, address, tx_id, status, created_at
		 FROM operations ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query journal: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		var amount string
		if err := rows.Scan(&row.Id, &row.Kind, &row.Exchange, &row.Symbol,
			&amount, &row.Address, &row.TxId, &row.Status, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan journal row: %w", err)
		}
		row.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount in journal row %s: %w", row.Id, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
