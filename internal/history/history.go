// Package history keeps the append-only list of completed donations and the
// name + contact lookup over it.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"donation-flow/internal/format"
	"donation-flow/internal/model"
	"donation-flow/internal/storage"
	"donation-flow/internal/validation"
)

// StorageKey is the slot holding the JSON array of records, newest first.
const StorageKey = "wwf-donation-history"

// Store reads and appends donation records.
type Store struct {
	mu     sync.Mutex
	store  storage.Store
	logger *slog.Logger
}

// New creates a history store over a durable storage.Store.
func New(store storage.Store, logger *slog.Logger) *Store {
	return &Store{store: store, logger: logger.With(slog.String("component", "history"))}
}

// Append puts record at the front of the history. Failures are logged.
func (s *Store) Append(ctx context.Context, record model.DonationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append([]model.DonationRecord{record}, s.load(ctx)...)
	raw, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("history encode failed", slog.String("error", err.Error()))
		return
	}
	if err := s.store.SetItem(ctx, StorageKey, string(raw)); err != nil {
		s.logger.Warn("history save failed",
			slog.String("key", StorageKey),
			slog.String("record_id", record.ID),
			slog.String("error", err.Error()),
		)
	}
}

// All returns every record, newest first. Unreadable data yields none.
func (s *Store) All(ctx context.Context) []model.DonationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) []model.DonationRecord {
	raw, ok, err := s.store.GetItem(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("history read failed",
			slog.String("key", StorageKey),
			slog.String("error", err.Error()),
		)
		return []model.DonationRecord{}
	}
	if !ok || raw == "" {
		return []model.DonationRecord{}
	}

	var records []model.DonationRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Warn("history decode failed",
			slog.String("key", StorageKey),
			slog.String("error", err.Error()),
		)
		return []model.DonationRecord{}
	}
	if records == nil {
		records = []model.DonationRecord{}
	}
	return records
}

// Find returns records whose donor name equals the trimmed name and whose
// email or phone matches the trimmed contact. Phones also match on digits
// alone, so hyphens in either side do not matter.
func (s *Store) Find(ctx context.Context, name, contact string) []model.DonationRecord {
	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)
	contactDigits := validation.Digits(contact)

	return slices.DeleteFunc(s.All(ctx), func(r model.DonationRecord) bool {
		if r.DonorName != name {
			return true
		}
		return !(r.Email == contact || r.Phone == contact || validation.Digits(r.Phone) == contactDigits)
	})
}

// GenerateCertificateNumber returns WWF-<year>-<5 random digits>. Numbers are
// random, so collisions are possible.
func GenerateCertificateNumber(now time.Time) string {
	return fmt.Sprintf("WWF-%d-%d", now.Year(), 10000+rand.IntN(90000))
}

// NewRecord snapshots a completed donation into an immutable record.
func NewRecord(snapshot model.Snapshot, now time.Time) model.DonationRecord {
	d := snapshot.Donation.Clone()
	return model.DonationRecord{
		ID:                strconv.FormatInt(now.UnixMilli(), 10),
		DonorName:         snapshot.Donor.Name,
		Email:             snapshot.Donor.Email,
		Phone:             snapshot.Donor.Phone,
		Amount:            d.Amount,
		DonationType:      d.Type,
		SelectedMissions:  d.SelectedMissions,
		Distribution:      d.Distribution,
		Date:              format.Date(now),
		CertificateNumber: GenerateCertificateNumber(now),
	}
}
