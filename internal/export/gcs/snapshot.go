// Package gcs writes JSON snapshots of the decoded database and uploads them
// to Google Cloud Storage.
package gcs

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/copilot-ledger/internal/domain"
)

// Snapshot is a point-in-time copy of everything decoded from one database.
type Snapshot struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	Source       string               `json:"source"`
	Transactions []domain.Transaction `json:"transactions"`
	Accounts     []domain.Account     `json:"accounts"`
	Categories   []domain.Category    `json:"categories"`
}

// NewSnapshot builds a Snapshot. Nil collections are encoded as empty arrays.
func NewSnapshot(source string, at time.Time, txs []domain.Transaction, accs []domain.Account, cats []domain.Category) *Snapshot {
	s := &Snapshot{
		GeneratedAt:  at.UTC(),
		Source:       source,
		Transactions: txs,
		Accounts:     accs,
		Categories:   cats,
	}
	if s.Transactions == nil {
		s.Transactions = []domain.Transaction{}
	}
	if s.Accounts == nil {
		s.Accounts = []domain.Account{}
	}
	if s.Categories == nil {
		s.Categories = []domain.Category{}
	}
	return s
}

// WriteSnapshot encodes s as indented JSON.
func (s *Snapshot) WriteSnapshot(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("WriteSnapshot: %w", err)
	}
	return nil
}
