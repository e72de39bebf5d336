// Package session carries a completed donation across the full page load
// that follows submission. The slot is a queue of depth one: Save overwrites
// it, Restore empties it, so a snapshot is read at most once.
package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"donation-flow/internal/model"
	"donation-flow/internal/storage"
)

// SlotKey is the storage key of the handoff slot.
const SlotKey = "wwf-donation-complete"

// Bridge is the single-slot snapshot handoff.
type Bridge struct {
	store  storage.Store
	logger *slog.Logger
}

// NewBridge creates a bridge over store.
func NewBridge(store storage.Store, logger *slog.Logger) *Bridge {
	return &Bridge{store: store, logger: logger.With(slog.String("component", "session_bridge"))}
}

// Save writes snapshot into the slot. Failures are logged and swallowed so
// the donation flow carries on.
func (b *Bridge) Save(ctx context.Context, snapshot model.Snapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		b.logger.Warn("snapshot encode failed", slog.String("error", err.Error()))
		return
	}
	if err := b.store.SetItem(ctx, SlotKey, string(raw)); err != nil {
		b.logger.Warn("snapshot save failed",
			slog.String("key", SlotKey),
			slog.String("error", err.Error()),
		)
	}
}

// Restore reads and clears the slot. The restored modal is always closed.
// A missing or unreadable slot yields false; corrupt data is removed.
func (b *Bridge) Restore(ctx context.Context) (model.Snapshot, bool) {
	raw, ok, err := b.store.GetItem(ctx, SlotKey)
	if err != nil {
		b.logger.Warn("snapshot read failed",
			slog.String("key", SlotKey),
			slog.String("error", err.Error()),
		)
		b.clear(ctx)
		return model.Snapshot{}, false
	}
	if !ok || raw == "" {
		return model.Snapshot{}, false
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		b.logger.Warn("snapshot decode failed, discarding",
			slog.String("key", SlotKey),
			slog.String("error", err.Error()),
		)
		b.clear(ctx)
		return model.Snapshot{}, false
	}

	snapshot.Modal.IsOpen = false
	snapshot.Donation = snapshot.Donation.Clone()
	b.clear(ctx)
	return snapshot, true
}

// Discard empties the slot without reading it.
func (b *Bridge) Discard(ctx context.Context) {
	b.clear(ctx)
}

func (b *Bridge) clear(ctx context.Context) {
	if err := b.store.RemoveItem(ctx, SlotKey); err != nil {
		b.logger.Warn("snapshot remove failed",
			slog.String("key", SlotKey),
			slog.String("error", err.Error()),
		)
	}
}
