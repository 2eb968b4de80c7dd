// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is the gorm model for one persisted turn. Rows are
// append-only; the service never updates or deletes them.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID string    `gorm:"type:varchar(255);not null;index:idx_chat_messages_session"`
	Role      string    `gorm:"type:varchar(50);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_chat_messages_session"`
}

// TableName keeps the table name stable across gorm naming changes.
func (ChatMessage) TableName() string { return "chat_messages" }

// BeforeCreate assigns the row id when the caller did not.
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// InsightRow is the gorm model for one stored feedback row.
type InsightRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Feedback  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName keeps the table name stable across gorm naming changes.
func (InsightRow) TableName() string { return "insights" }

// BeforeCreate assigns the row id when the caller did not.
func (r *InsightRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
