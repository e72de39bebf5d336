// Package donation implements the donation wizard: the step graph, its
// transitions, and the in-memory state one donation session edits.
//
// A Machine is owned by exactly one session and is not safe for concurrent
// use; Registry serialises access when sessions are shared across goroutines.
// No transition fails. Inputs outside the domain (unknown missions, removing
// the entry mission, negative amounts) leave the state unchanged.
package donation

import (
	"context"
	"slices"

	"donation-flow/internal/distribution"
	"donation-flow/internal/model"
)

// SnapshotSaver receives the full session state on completion.
type SnapshotSaver interface {
	Save(ctx context.Context, snapshot model.Snapshot)
}

// Machine holds the wizard state for one donation session.
type Machine struct {
	modal    model.ModalState
	donation model.DonationState
	donor    model.DonorInfo
}

// NewMachine returns a closed machine in its initial state.
func NewMachine() *Machine {
	m := &Machine{}
	m.reset()
	return m
}

// reset restores the initial state: closed, step 1, no entry mission,
// monthly with nothing selected.
func (m *Machine) reset() {
	m.modal = model.ModalState{
		IsOpen:      false,
		CurrentStep: model.StepConfirm,
	}
	m.donation = model.DonationState{
		Type:             model.DonationMonthly,
		Amount:           0,
		SelectedMissions: []model.MissionSlug{},
		Distribution:     model.Distribution{},
	}
	m.donor = model.DonorInfo{}
}

// forward is the next-step table. Entries are functions because 2-1 forks on
// the number of selected missions.
var forward = map[model.ModalStep]func(m *Machine) model.ModalStep{
	model.StepMissionSelect: func(*Machine) model.ModalStep { return model.StepConfirm },
	model.StepConfirm:       func(*Machine) model.ModalStep { return model.StepAdditional },
	model.StepAdditional:    func(*Machine) model.ModalStep { return model.StepPayment },
	model.StepCategorySelect: func(m *Machine) model.ModalStep {
		if m.multiMission() {
			return model.StepDistribution
		}
		return model.StepPayment
	},
	model.StepDistribution: func(*Machine) model.ModalStep { return model.StepPayment },
	model.StepPayment:      func(*Machine) model.ModalStep { return model.StepPayment },
}

// backward is the inverse of forward along whichever path was taken.
var backward = map[model.ModalStep]func(m *Machine) model.ModalStep{
	model.StepMissionSelect: func(*Machine) model.ModalStep { return model.StepMissionSelect },
	model.StepConfirm: func(m *Machine) model.ModalStep {
		if m.modal.HasEntryMission() {
			return model.StepConfirm
		}
		return model.StepMissionSelect
	},
	model.StepAdditional:     func(*Machine) model.ModalStep { return model.StepConfirm },
	model.StepCategorySelect: func(*Machine) model.ModalStep { return model.StepAdditional },
	model.StepDistribution:   func(*Machine) model.ModalStep { return model.StepCategorySelect },
	model.StepPayment: func(m *Machine) model.ModalStep {
		if m.multiMission() {
			return model.StepDistribution
		}
		return model.StepAdditional
	},
}

func (m *Machine) multiMission() bool {
	return len(m.donation.SelectedMissions) > 1
}

// OpenModal starts a session. With a mission it enters at step 1 with that
// mission pinned; with an empty slug it enters at the mission pick step.
// An unknown mission is ignored.
func (m *Machine) OpenModal(slug model.MissionSlug) {
	if slug != "" && !slug.Valid() {
		return
	}

	m.reset()
	m.modal.IsOpen = true
	if slug == "" {
		m.modal.CurrentStep = model.StepMissionSelect
		return
	}

	m.modal.CurrentStep = model.StepConfirm
	m.modal.EntryMission = slug
	m.donation.SelectedMissions = []model.MissionSlug{slug}
	m.donation.Distribution = distribution.EqualSplit(m.donation.SelectedMissions)
}

// SelectMission picks the entry mission from step 0 and moves to step 1.
func (m *Machine) SelectMission(slug model.MissionSlug) {
	if !slug.Valid() || m.modal.CurrentStep != model.StepMissionSelect {
		return
	}

	m.modal.CurrentStep = model.StepConfirm
	m.modal.EntryMission = slug
	m.donation.SelectedMissions = []model.MissionSlug{slug}
	m.donation.Distribution = distribution.EqualSplit(m.donation.SelectedMissions)
}

// ToggleMission adds or removes slug and re-splits the selection evenly.
// The entry mission cannot be removed.
func (m *Machine) ToggleMission(slug model.MissionSlug) {
	if !slug.Valid() {
		return
	}

	selected := m.donation.SelectedMissions
	var next []model.MissionSlug
	if i := slices.Index(selected, slug); i >= 0 {
		if slug == m.modal.EntryMission {
			return
		}
		next = slices.Delete(slices.Clone(selected), i, i+1)
	} else {
		next = append(slices.Clone(selected), slug)
	}

	m.donation.SelectedMissions = next
	m.donation.Distribution = distribution.EqualSplit(next)
}

// NextStep advances along the step graph; step 3 is terminal.
func (m *Machine) NextStep() {
	m.modal.CurrentStep = forward[m.modal.CurrentStep](m)
}

// PrevStep walks back along the path taken; step 0, and step 1 when
// entered through a mission, stay where they are.
func (m *Machine) PrevStep() {
	m.modal.CurrentStep = backward[m.modal.CurrentStep](m)
}

// ExploreMore takes the "show me more missions" branch from step 2 to 2-1.
func (m *Machine) ExploreMore() {
	if m.modal.CurrentStep == model.StepAdditional {
		m.modal.CurrentStep = model.StepCategorySelect
	}
}

// CanGoBack reports whether back navigation should be offered.
func (m *Machine) CanGoBack() bool {
	step := m.modal.CurrentStep
	if step == model.StepMissionSelect {
		return false
	}
	return !(step == model.StepConfirm && m.modal.HasEntryMission())
}

// NeedsCloseConfirmation reports whether closing would discard input the
// donor should confirm losing.
func (m *Machine) NeedsCloseConfirmation() bool {
	switch m.modal.CurrentStep {
	case model.StepMissionSelect, model.StepConfirm:
		return false
	}
	return true
}

// CloseModal discards all in-progress data and closes the modal.
func (m *Machine) CloseModal() {
	m.reset()
}

// SetAmount sets the amount in won. Negative amounts are ignored.
func (m *Machine) SetAmount(amount int64) {
	if amount < 0 {
		return
	}
	m.donation.Amount = amount
}

// SetDonationType switches between monthly and one-time.
func (m *Machine) SetDonationType(t model.DonationType) {
	if !model.ValidDonationTypes[t] {
		return
	}
	m.donation.Type = t
}

// SetDonorInfo sets one donor field.
func (m *Machine) SetDonorInfo(field model.DonorField, value string) {
	switch field {
	case model.DonorName:
		m.donor.Name = value
	case model.DonorEmail:
		m.donor.Email = value
	case model.DonorPhone:
		m.donor.Phone = value
	}
}

// SetDistribution replaces the distribution as given. Keeping it consistent
// with the selection is the caller's job.
func (m *Machine) SetDistribution(d model.Distribution) {
	m.donation.Distribution = d.Clone()
}

// DragDistribution moves one mission's slider and rebalances the others.
func (m *Machine) DragDistribution(slug model.MissionSlug, value int) {
	m.donation.Distribution = distribution.RebalanceOnDrag(m.donation.SelectedMissions, m.donation.Distribution, slug, value)
}

// EditDistributionPercent applies a typed percent; false if it did not parse.
func (m *Machine) EditDistributionPercent(slug model.MissionSlug, text string) bool {
	next, ok := distribution.ManualPercentEdit(m.donation.SelectedMissions, m.donation.Distribution, slug, text)
	if ok {
		m.donation.Distribution = next
	}
	return ok
}

// ResetDistribution re-splits the current selection evenly.
func (m *Machine) ResetDistribution() {
	m.donation.Distribution = distribution.EqualSplit(m.donation.SelectedMissions)
}

// CompleteDonation hands the current state to saver. The step does not change.
func (m *Machine) CompleteDonation(ctx context.Context, saver SnapshotSaver) {
	saver.Save(ctx, m.Snapshot())
}

// --- Selectors ---

// Modal returns the modal state.
func (m *Machine) Modal() model.ModalState { return m.modal }

// Donation returns a copy of the donation state.
func (m *Machine) Donation() model.DonationState { return m.donation.Clone() }

// Donor returns the donor fields.
func (m *Machine) Donor() model.DonorInfo { return m.donor }

// CurrentStep returns the wizard step.
func (m *Machine) CurrentStep() model.ModalStep { return m.modal.CurrentStep }

// EntryMission returns the pinned mission, if any.
func (m *Machine) EntryMission() (model.MissionSlug, bool) {
	return m.modal.EntryMission, m.modal.HasEntryMission()
}

// SelectedMissions returns a copy of the selection in order.
func (m *Machine) SelectedMissions() []model.MissionSlug {
	return slices.Clone(m.donation.SelectedMissions)
}

// Distribution returns a copy of the distribution.
func (m *Machine) Distribution() model.Distribution {
	return m.donation.Distribution.Clone()
}

// Snapshot returns an independent copy of the whole state.
func (m *Machine) Snapshot() model.Snapshot {
	return model.Snapshot{
		Modal:    m.modal,
		Donation: m.donation.Clone(),
		Donor:    m.donor,
	}
}
