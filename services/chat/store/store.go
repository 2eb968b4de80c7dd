// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store implements the row-store collaborator on Postgres via gorm.
//
// # Description
//
// Two tables back the chat service: chat_messages (session-scoped turns,
// append-only) and insights (feedback rows, read-all/insert-one). The
// two-row turn write runs inside one transaction so a partial pair is
// never visible; callers see a write error instead.
//
// # Thread Safety
//
// Database is safe for concurrent use; gorm pools connections internally.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
	"github.com/AleutianAI/AleutianChat/services/chat/turn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Compile-time interface implementation checks.
var (
	_ turn.MessageStore = (*Database)(nil)
	_ turn.InsightStore = (*Database)(nil)
)

// Config holds the Postgres connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// Database wraps the gorm handle and implements the turn processor's
// MessageStore and InsightStore contracts.
type Database struct {
	db *gorm.DB
}

// NewDatabase connects to Postgres and migrates the chat tables.
//
// # Inputs
//
//   - ctx: Bounds the migration.
//   - cfg: Connection settings. All fields required.
//
// # Outputs
//
//   - *Database: Ready for use.
//   - error: Non-nil if the connection or migration fails.
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&ChatMessage{}, &InsightRow{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate chat tables: %w", err)
	}

	slog.Info("Connected to Postgres row store", "host", cfg.Host, "db", cfg.DBName)
	return &Database{db: db}, nil
}

// NewDatabaseFromGorm wraps an existing gorm handle. Used by tests.
func NewDatabaseFromGorm(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Close releases the underlying connection pool.
func (d *Database) Close() {
	sqlDB, err := d.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

// =============================================================================
// MessageStore
// =============================================================================

// ListRecent returns up to limit of the most recent turns for the session,
// ordered oldest-first.
//
// # Description
//
// The window is the most recent rows by created_at; the result is then
// reversed so the transcript reads oldest-first. An empty slice means the
// session has no history.
func (d *Database) ListRecent(ctx context.Context, sessionID string, limit int) ([]datatypes.Turn, error) {
	var rows []ChatMessage
	err := d.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent turns: %w", err)
	}

	turns := make([]datatypes.Turn, len(rows))
	for i, row := range rows {
		// rows are newest-first; fill the slice back-to-front
		turns[len(rows)-1-i] = datatypes.Turn{
			SessionID: row.SessionID,
			Role:      row.Role,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		}
	}
	return turns, nil
}

// AppendTurnPair appends the user turn then the assistant turn in one
// transaction.
//
// # Description
//
// The assistant row's created_at is strictly after the user row's so
// ascending created_at ordering reproduces the conversational order even
// within the pair. Postgres makes the transaction atomic; any failure
// rolls back both rows and surfaces as an error.
func (d *Database) AppendTurnPair(ctx context.Context, sessionID, userMessage, answer string) error {
	userAt := time.Now().UTC()
	assistantAt := userAt.Add(time.Millisecond)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ChatMessage{
			SessionID: sessionID,
			Role:      datatypes.RoleUser,
			Content:   userMessage,
			CreatedAt: userAt,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&ChatMessage{
			SessionID: sessionID,
			Role:      datatypes.RoleAssistant,
			Content:   answer,
			CreatedAt: assistantAt,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to append turn pair: %w", err)
	}
	return nil
}

// =============================================================================
// InsightStore
// =============================================================================

// ReadAll returns every stored insight row, oldest-first.
func (d *Database) ReadAll(ctx context.Context) ([]datatypes.Insight, error) {
	var rows []InsightRow
	err := d.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read insights: %w", err)
	}

	insights := make([]datatypes.Insight, len(rows))
	for i, row := range rows {
		insights[i] = datatypes.Insight{
			Feedback:  row.Feedback,
			CreatedAt: row.CreatedAt,
		}
	}
	return insights, nil
}

// Insert appends one feedback row.
func (d *Database) Insert(ctx context.Context, feedback string) error {
	err := d.db.WithContext(ctx).Create(&InsightRow{
		Feedback:  feedback,
		CreatedAt: time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}
	return nil
}
