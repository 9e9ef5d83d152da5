// Package history persists successful translations, newest first.
package history

import (
	"context"
	"time"
)

type Record struct {
	ID         int64     `json:"id"`
	Original   string    `json:"original"`
	Translated string    `json:"translated"`
	Provider   string    `json:"provider,omitempty"`
	SourceLang string    `json:"source_lang,omitempty"`
	TargetLang string    `json:"target_lang,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store is the history collaborator. GetHistory returns records newest first; limit <= 0 means all.
type Store interface {
	AddRecord(ctx context.Context, r Record) error
	GetHistory(ctx context.Context, limit int) ([]Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) error
}
