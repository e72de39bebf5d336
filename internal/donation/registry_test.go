package donation

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"donation-flow/internal/model"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistryLifecycle(t *testing.T) {
	r := newTestRegistry()
	id := r.Create()

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	err := r.Do(id, func(m *Machine) error {
		m.OpenModal(model.MissionForest)
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	var step model.ModalStep
	_ = r.Do(id, func(m *Machine) error {
		step = m.CurrentStep()
		return nil
	})
	if step != model.StepConfirm {
		t.Errorf("step = %v, want 1", step)
	}

	if !r.Remove(id) {
		t.Error("Remove should report an existing session")
	}
	if err := r.Do(id, func(*Machine) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Do after remove = %v, want ErrSessionNotFound", err)
	}
	if r.Remove(id) {
		t.Error("second Remove should report false")
	}
}

func TestRegistryUnknownSession(t *testing.T) {
	r := newTestRegistry()
	err := r.Do(uuid.New(), func(*Machine) error { return nil })
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryPropagatesError(t *testing.T) {
	r := newTestRegistry()
	id := r.Create()
	boom := errors.New("boom")
	if err := r.Do(id, func(*Machine) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRegistrySweep(t *testing.T) {
	r := newTestRegistry()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	var expired []uuid.UUID
	r.OnExpire(func(id uuid.UUID) { expired = append(expired, id) })

	stale := r.Create()
	now = now.Add(90 * time.Minute)
	fresh := r.Create()
	now = now.Add(40 * time.Minute)

	if n := r.Sweep(time.Hour); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if len(expired) != 1 || expired[0] != stale {
		t.Errorf("expired = %v, want [%v]", expired, stale)
	}
	if err := r.Do(stale, func(*Machine) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session should be gone")
	}
	if err := r.Do(fresh, func(*Machine) error { return nil }); err != nil {
		t.Errorf("fresh session: %v", err)
	}
}

func TestRegistryConcurrentSessions(t *testing.T) {
	r := newTestRegistry()
	id := r.Create()
	_ = r.Do(id, func(m *Machine) error {
		m.OpenModal(model.MissionOcean)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Do(id, func(m *Machine) error {
				m.SetAmount(int64(1000 * (i + 1)))
				return nil
			})
		}(i)
	}
	wg.Wait()

	_ = r.Do(id, func(m *Machine) error {
		if m.Donation().Amount == 0 {
			t.Error("amount was never set")
		}
		return nil
	})
}
