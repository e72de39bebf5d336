package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"donation-flow/internal/model"
	"donation-flow/internal/storage"
)

func newTestStore() (*Store, *storage.Memory) {
	mem := storage.NewMemory(0)
	return New(mem, slog.New(slog.NewTextHandler(io.Discard, nil))), mem
}

func record(id, name, email, phone string) model.DonationRecord {
	return model.DonationRecord{
		ID:                id,
		DonorName:         name,
		Email:             email,
		Phone:             phone,
		Amount:            30000,
		DonationType:      model.DonationMonthly,
		SelectedMissions:  []model.MissionSlug{model.MissionOcean},
		Distribution:      model.Distribution{model.MissionOcean: 100},
		Date:              "2026년 10월 17일",
		CertificateNumber: "WWF-2026-12345",
	}
}

func TestAppendNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	s.Append(ctx, record("1", "Kim", "k@x.io", "010-1111-2222"))
	s.Append(ctx, record("2", "Lee", "l@x.io", "010-3333-4444"))

	all := s.All(ctx)
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].ID != "2" || all[1].ID != "1" {
		t.Errorf("order = %s, %s; want 2, 1", all[0].ID, all[1].ID)
	}
}

func TestAllOnEmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	if got := s.All(ctx); got == nil || len(got) != 0 {
		t.Errorf("All on empty = %v, want empty non-nil", got)
	}

	_ = mem.SetItem(ctx, StorageKey, "not json")
	if got := s.All(ctx); len(got) != 0 {
		t.Errorf("All on corrupt = %v, want empty", got)
	}

	// Appending over corrupt data starts a fresh list.
	s.Append(ctx, record("1", "Kim", "k@x.io", "01012345678"))
	if got := s.All(ctx); len(got) != 1 {
		t.Errorf("len after append = %d, want 1", len(got))
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	s.Append(ctx, record("1", "Kim", "kim@example.com", "01012345678"))
	s.Append(ctx, record("2", "Kim", "other@example.com", "010-9999-8888"))
	s.Append(ctx, record("3", "Lee", "kim@example.com", "01012345678"))

	tests := []struct {
		name    string
		qName   string
		contact string
		wantIDs []string
	}{
		{"hyphenated query matches bare phone", "Kim", "010-1234-5678", []string{"1"}},
		{"bare query matches hyphenated phone", "Kim", "01099998888", []string{"2"}},
		{"email", "Kim", "kim@example.com", []string{"1"}},
		{"trimmed inputs", "  Kim ", " kim@example.com ", []string{"1"}},
		{"name must match exactly", "kim", "kim@example.com", nil},
		{"contact must match", "Kim", "nobody@example.com", nil},
		{"same contact other name", "Lee", "010 1234 5678", []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Find(ctx, tt.qName, tt.contact)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Find = %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

type brokenStore struct{}

func (brokenStore) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errors.New("read failed")
}
func (brokenStore) SetItem(context.Context, string, string) error {
	return storage.ErrQuotaExceeded
}
func (brokenStore) RemoveItem(context.Context, string) error { return nil }

func TestStorageFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	s := New(brokenStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Append(ctx, record("1", "Kim", "k@x.io", "01012345678"))
	if got := s.Find(ctx, "Kim", "k@x.io"); len(got) != 0 {
		t.Errorf("Find = %v, want empty", got)
	}
}

func TestGenerateCertificateNumber(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^WWF-2026-[1-9][0-9]{4}$`)
	for i := 0; i < 200; i++ {
		if got := GenerateCertificateNumber(now); !pattern.MatchString(got) {
			t.Fatalf("GenerateCertificateNumber = %q", got)
		}
	}
}

func TestNewRecordIsIndependent(t *testing.T) {
	now := time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC)
	snap := model.Snapshot{
		Donation: model.DonationState{
			Type:             model.DonationOneTime,
			Amount:           50000,
			SelectedMissions: []model.MissionSlug{model.MissionOcean, model.MissionForest},
			Distribution:     model.Distribution{model.MissionOcean: 50, model.MissionForest: 50},
		},
		Donor: model.DonorInfo{Name: "김민지", Email: "minji@example.com", Phone: "010-1234-5678"},
	}

	rec := NewRecord(snap, now)

	if rec.ID != "1772875800000" {
		t.Errorf("ID = %s", rec.ID)
	}
	if rec.Date != "2026년 3월 7일" {
		t.Errorf("Date = %q", rec.Date)
	}
	if rec.DonorName != "김민지" || rec.Amount != 50000 || rec.DonationType != model.DonationOneTime {
		t.Errorf("record = %+v", rec)
	}

	snap.Donation.SelectedMissions[0] = model.MissionFood
	snap.Donation.Distribution[model.MissionOcean] = 0
	if rec.SelectedMissions[0] != model.MissionOcean || rec.Distribution[model.MissionOcean] != 50 {
		t.Error("record shares memory with the snapshot")
	}
}
