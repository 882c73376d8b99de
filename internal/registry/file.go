// Package registry implements the guest registry: the external store of
// committed guest records, looked up by canonical phone. The Google Sheets
// backend is the real system of record; the JSON file backend serves local
// runs and tests.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"wedding-guestbot/internal/models"
)

// FileRegistry keeps guest records in a JSON file on disk.
type FileRegistry struct {
	mu      sync.RWMutex
	records []models.GuestRecord
	file    string
}

// NewFileRegistry creates a registry backed by the given file, loading
// existing records if the file is present.
func NewFileRegistry(filePath string) (*FileRegistry, error) {
	r := &FileRegistry{file: filePath}

	if _, err := os.Stat(filePath); err == nil {
		if err := r.load(); err != nil {
			return nil, fmt.Errorf("load guest registry: %w", err)
		}
	}
	return r, nil
}

// FindByPhone returns the record with the given canonical phone, or
// (nil, nil) when none exists.
func (r *FileRegistry) FindByPhone(_ context.Context, canonicalPhone string) (*models.GuestRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.records {
		if r.records[i].Phone == canonicalPhone {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// Append adds a record. Uniqueness per canonical phone is the engine's
// responsibility; the registry stores what it is given.
func (r *FileRegistry) Append(_ context.Context, rec models.GuestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	if err := r.save(); err != nil {
		r.records = r.records[:len(r.records)-1]
		return err
	}
	return nil
}

// Delete removes the record with the given canonical phone, reporting
// whether anything was removed.
func (r *FileRegistry) Delete(_ context.Context, canonicalPhone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].Phone == canonicalPhone {
			backup := r.records
			r.records = append(append([]models.GuestRecord(nil), r.records[:i]...), r.records[i+1:]...)
			if err := r.save(); err != nil {
				// Keep memory matching disk.
				r.records = backup
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// List returns a copy of all records.
func (r *FileRegistry) List(_ context.Context) ([]models.GuestRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.GuestRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *FileRegistry) save() error {
	data, err := json.MarshalIndent(r.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(r.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(r.file, data, 0644)
}

func (r *FileRegistry) load() error {
	data, err := os.ReadFile(r.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		r.records = nil
		return nil
	}
	if err := json.Unmarshal(data, &r.records); err != nil {
		return fmt.Errorf("failed to unmarshal registry: %w", err)
	}
	return nil
}
