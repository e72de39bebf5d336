package donation

import (
	"context"
	"maps"
	"slices"
	"testing"

	"donation-flow/internal/model"
)

type recordingSaver struct {
	saved []model.Snapshot
}

func (r *recordingSaver) Save(_ context.Context, s model.Snapshot) {
	r.saved = append(r.saved, s)
}

func TestNewMachineInitialState(t *testing.T) {
	m := NewMachine()

	modal := m.Modal()
	if modal.IsOpen {
		t.Error("new machine should be closed")
	}
	if modal.CurrentStep != model.StepConfirm {
		t.Errorf("CurrentStep = %v, want %v", modal.CurrentStep, model.StepConfirm)
	}
	if _, ok := m.EntryMission(); ok {
		t.Error("new machine should have no entry mission")
	}

	d := m.Donation()
	if d.Type != model.DonationMonthly || d.Amount != 0 {
		t.Errorf("donation = %+v, want monthly with amount 0", d)
	}
	if d.SelectedMissions == nil || len(d.SelectedMissions) != 0 {
		t.Errorf("SelectedMissions = %v, want empty non-nil", d.SelectedMissions)
	}
	if d.Distribution == nil || len(d.Distribution) != 0 {
		t.Errorf("Distribution = %v, want empty non-nil", d.Distribution)
	}
}

func TestOpenModalWithMission(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)

	modal := m.Modal()
	if !modal.IsOpen || modal.CurrentStep != model.StepConfirm || modal.EntryMission != model.MissionOcean {
		t.Fatalf("modal = %+v, want open at step 1 with entry ocean", modal)
	}
	if got := m.SelectedMissions(); !slices.Equal(got, []model.MissionSlug{model.MissionOcean}) {
		t.Errorf("SelectedMissions = %v, want [ocean]", got)
	}
	if got := m.Distribution(); !maps.Equal(got, model.Distribution{model.MissionOcean: 100}) {
		t.Errorf("Distribution = %v, want {ocean:100}", got)
	}
	if got := m.Donation().Type; got != model.DonationMonthly {
		t.Errorf("Type = %q, want monthly", got)
	}
}

func TestOpenModalWithoutMission(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionForest)
	m.SetAmount(30000)
	m.SetDonorInfo(model.DonorName, "김민지")

	m.OpenModal("")

	modal := m.Modal()
	if !modal.IsOpen || modal.CurrentStep != model.StepMissionSelect || modal.HasEntryMission() {
		t.Fatalf("modal = %+v, want open at step 0 without entry", modal)
	}
	if d := m.Donation(); d.Amount != 0 || len(d.SelectedMissions) != 0 || len(d.Distribution) != 0 {
		t.Errorf("donation not reset: %+v", d)
	}
	if m.Donor() != (model.DonorInfo{}) {
		t.Errorf("donor not reset: %+v", m.Donor())
	}
}

func TestOpenModalUnknownMissionIgnored(t *testing.T) {
	m := NewMachine()
	m.OpenModal("desert")
	if m.Modal().IsOpen {
		t.Error("unknown mission should not open the modal")
	}
}

func TestSelectMission(t *testing.T) {
	m := NewMachine()
	m.OpenModal("")
	m.SelectMission(model.MissionWildlife)

	if m.CurrentStep() != model.StepConfirm {
		t.Errorf("CurrentStep = %v, want 1", m.CurrentStep())
	}
	if entry, ok := m.EntryMission(); !ok || entry != model.MissionWildlife {
		t.Errorf("EntryMission = %q, %v", entry, ok)
	}
	if got := m.Distribution(); !maps.Equal(got, model.Distribution{model.MissionWildlife: 100}) {
		t.Errorf("Distribution = %v", got)
	}

	// Only meaningful from step 0.
	m.SelectMission(model.MissionOcean)
	if entry, _ := m.EntryMission(); entry != model.MissionWildlife {
		t.Errorf("SelectMission outside step 0 changed entry to %q", entry)
	}
}

func TestToggleMission(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)

	m.ToggleMission(model.MissionForest)
	m.ToggleMission(model.MissionWildlife)

	want := []model.MissionSlug{model.MissionOcean, model.MissionForest, model.MissionWildlife}
	if got := m.SelectedMissions(); !slices.Equal(got, want) {
		t.Fatalf("SelectedMissions = %v, want %v", got, want)
	}
	wantDist := model.Distribution{model.MissionOcean: 34, model.MissionForest: 33, model.MissionWildlife: 33}
	if got := m.Distribution(); !maps.Equal(got, wantDist) {
		t.Errorf("Distribution = %v, want %v", got, wantDist)
	}

	// Removal re-splits from scratch.
	m.DragDistribution(model.MissionOcean, 80)
	m.ToggleMission(model.MissionForest)
	wantDist = model.Distribution{model.MissionOcean: 50, model.MissionWildlife: 50}
	if got := m.Distribution(); !maps.Equal(got, wantDist) {
		t.Errorf("after removal Distribution = %v, want %v", got, wantDist)
	}
}

func TestToggleEntryMissionIsNoop(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)
	m.ToggleMission(model.MissionForest)
	before := m.Snapshot()

	m.ToggleMission(model.MissionOcean)

	after := m.Snapshot()
	if !slices.Equal(before.Donation.SelectedMissions, after.Donation.SelectedMissions) {
		t.Errorf("selection changed: %v -> %v", before.Donation.SelectedMissions, after.Donation.SelectedMissions)
	}
	if !maps.Equal(before.Donation.Distribution, after.Donation.Distribution) {
		t.Errorf("distribution changed: %v -> %v", before.Donation.Distribution, after.Donation.Distribution)
	}
}

func TestToggleUnknownMissionIgnored(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)
	m.ToggleMission("desert")
	if got := m.SelectedMissions(); len(got) != 1 {
		t.Errorf("SelectedMissions = %v, want [ocean]", got)
	}
}

func TestNextStepTable(t *testing.T) {
	tests := []struct {
		name     string
		from     model.ModalStep
		missions int
		want     model.ModalStep
	}{
		{"0 to 1", model.StepMissionSelect, 1, model.StepConfirm},
		{"1 to 2", model.StepConfirm, 1, model.StepAdditional},
		{"2 to 3", model.StepAdditional, 1, model.StepPayment},
		{"2-1 single to 3", model.StepCategorySelect, 1, model.StepPayment},
		{"2-1 multi to 2-2", model.StepCategorySelect, 2, model.StepDistribution},
		{"2-2 to 3", model.StepDistribution, 2, model.StepPayment},
		{"3 terminal", model.StepPayment, 1, model.StepPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := machineAt(tt.from, tt.missions, true)
			m.NextStep()
			if got := m.CurrentStep(); got != tt.want {
				t.Errorf("NextStep from %v = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestPrevStepTable(t *testing.T) {
	tests := []struct {
		name     string
		from     model.ModalStep
		missions int
		entry    bool
		want     model.ModalStep
	}{
		{"0 terminal", model.StepMissionSelect, 0, false, model.StepMissionSelect},
		{"1 with entry stays", model.StepConfirm, 1, true, model.StepConfirm},
		{"1 without entry to 0", model.StepConfirm, 1, false, model.StepMissionSelect},
		{"2 to 1", model.StepAdditional, 1, true, model.StepConfirm},
		{"2-1 to 2", model.StepCategorySelect, 1, true, model.StepAdditional},
		{"2-2 to 2-1", model.StepDistribution, 2, true, model.StepCategorySelect},
		{"3 single to 2", model.StepPayment, 1, true, model.StepAdditional},
		{"3 multi to 2-2", model.StepPayment, 3, true, model.StepDistribution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := machineAt(tt.from, tt.missions, tt.entry)
			m.PrevStep()
			if got := m.CurrentStep(); got != tt.want {
				t.Errorf("PrevStep from %v = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestNextPrevRoundTrip(t *testing.T) {
	tests := []struct {
		from     model.ModalStep
		missions int
		entry    bool
	}{
		{model.StepConfirm, 1, true},
		{model.StepConfirm, 1, false},
		{model.StepAdditional, 1, true},
		{model.StepCategorySelect, 2, true},
		{model.StepCategorySelect, 1, true},
		{model.StepDistribution, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			m := machineAt(tt.from, tt.missions, tt.entry)
			m.NextStep()
			m.PrevStep()
			got := m.CurrentStep()

			// 2-1 with one mission skips 2-2 forward and returns through 2.
			want := tt.from
			if tt.from == model.StepCategorySelect && tt.missions == 1 {
				want = model.StepAdditional
			}
			if got != want {
				t.Errorf("next then prev from %v = %v, want %v", tt.from, got, want)
			}
		})
	}
}

func TestFullPathWithSubflow(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)
	m.SetAmount(30000)
	m.NextStep() // 2
	m.ExploreMore()
	if m.CurrentStep() != model.StepCategorySelect {
		t.Fatalf("ExploreMore = %v, want 2-1", m.CurrentStep())
	}
	m.ToggleMission(model.MissionForest)
	m.NextStep()
	if m.CurrentStep() != model.StepDistribution {
		t.Fatalf("step = %v, want 2-2", m.CurrentStep())
	}
	m.NextStep()
	if m.CurrentStep() != model.StepPayment {
		t.Fatalf("step = %v, want 3", m.CurrentStep())
	}

	path := []model.ModalStep{model.StepDistribution, model.StepCategorySelect, model.StepAdditional, model.StepConfirm, model.StepConfirm}
	for _, want := range path {
		m.PrevStep()
		if got := m.CurrentStep(); got != want {
			t.Fatalf("PrevStep = %v, want %v", got, want)
		}
	}
}

func TestExploreMoreOnlyFromStep2(t *testing.T) {
	m := machineAt(model.StepConfirm, 1, true)
	m.ExploreMore()
	if m.CurrentStep() != model.StepConfirm {
		t.Errorf("ExploreMore from 1 moved to %v", m.CurrentStep())
	}
}

func TestCanGoBack(t *testing.T) {
	tests := []struct {
		step  model.ModalStep
		entry bool
		want  bool
	}{
		{model.StepMissionSelect, false, false},
		{model.StepConfirm, true, false},
		{model.StepConfirm, false, true},
		{model.StepAdditional, true, true},
		{model.StepPayment, true, true},
	}

	for _, tt := range tests {
		m := machineAt(tt.step, 1, tt.entry)
		if got := m.CanGoBack(); got != tt.want {
			t.Errorf("CanGoBack at %v (entry=%v) = %v, want %v", tt.step, tt.entry, got, tt.want)
		}
	}
}

func TestNeedsCloseConfirmation(t *testing.T) {
	for _, step := range model.Steps {
		m := machineAt(step, 1, true)
		want := step != model.StepMissionSelect && step != model.StepConfirm
		if got := m.NeedsCloseConfirmation(); got != want {
			t.Errorf("NeedsCloseConfirmation at %v = %v, want %v", step, got, want)
		}
	}
}

func TestCloseModalDiscardsEverything(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)
	m.SetAmount(50000)
	m.SetDonationType(model.DonationOneTime)
	m.SetDonorInfo(model.DonorEmail, "a@b.co")
	m.NextStep()

	m.CloseModal()

	fresh := NewMachine().Snapshot()
	got := m.Snapshot()
	if got.Modal != fresh.Modal || got.Donor != fresh.Donor {
		t.Errorf("after close = %+v, want %+v", got, fresh)
	}
	if got.Donation.Amount != 0 || got.Donation.Type != model.DonationMonthly || len(got.Donation.SelectedMissions) != 0 {
		t.Errorf("donation not reset: %+v", got.Donation)
	}
}

func TestSetters(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)

	m.SetAmount(10000)
	m.SetAmount(-5)
	if got := m.Donation().Amount; got != 10000 {
		t.Errorf("Amount = %d, want 10000", got)
	}

	m.SetDonationType(model.DonationOneTime)
	m.SetDonationType("weekly")
	if got := m.Donation().Type; got != model.DonationOneTime {
		t.Errorf("Type = %q, want onetime", got)
	}

	m.SetDonorInfo(model.DonorName, "김민지")
	m.SetDonorInfo(model.DonorPhone, "010-1234-5678")
	m.SetDonorInfo("address", "Seoul")
	want := model.DonorInfo{Name: "김민지", Phone: "010-1234-5678"}
	if got := m.Donor(); got != want {
		t.Errorf("Donor = %+v, want %+v", got, want)
	}

	dist := model.Distribution{model.MissionOcean: 100}
	m.SetDistribution(dist)
	dist[model.MissionOcean] = 1
	if got := m.Distribution()[model.MissionOcean]; got != 100 {
		t.Errorf("SetDistribution kept caller's map: got %d", got)
	}
}

func TestDistributionHelpers(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)
	m.ToggleMission(model.MissionForest)
	m.ToggleMission(model.MissionWildlife)

	m.DragDistribution(model.MissionOcean, 50)
	want := model.Distribution{model.MissionOcean: 50, model.MissionForest: 25, model.MissionWildlife: 25}
	if got := m.Distribution(); !maps.Equal(got, want) {
		t.Errorf("after drag = %v, want %v", got, want)
	}

	if m.EditDistributionPercent(model.MissionForest, "x") {
		t.Error("non-numeric edit should be rejected")
	}
	if got := m.Distribution(); !maps.Equal(got, want) {
		t.Errorf("rejected edit changed distribution to %v", got)
	}

	if !m.EditDistributionPercent(model.MissionForest, "100") {
		t.Fatal("numeric edit should apply")
	}
	if got := m.Distribution()[model.MissionForest]; got != 95 {
		t.Errorf("forest = %d, want clamped 95", got)
	}
	if got := m.Distribution().Sum(); got != 100 {
		t.Errorf("sum = %d, want 100", got)
	}

	m.ResetDistribution()
	want = model.Distribution{model.MissionOcean: 34, model.MissionForest: 33, model.MissionWildlife: 33}
	if got := m.Distribution(); !maps.Equal(got, want) {
		t.Errorf("after reset = %v, want %v", got, want)
	}
}

func TestCompleteDonationHandsOffIndependentCopy(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)
	m.SetAmount(30000)
	m.NextStep()
	m.NextStep()

	saver := &recordingSaver{}
	m.CompleteDonation(context.Background(), saver)

	if len(saver.saved) != 1 {
		t.Fatalf("saved %d snapshots, want 1", len(saver.saved))
	}
	if m.CurrentStep() != model.StepPayment {
		t.Errorf("CompleteDonation moved step to %v", m.CurrentStep())
	}

	m.CloseModal()
	snap := saver.saved[0]
	if snap.Donation.Amount != 30000 || snap.Donation.Distribution[model.MissionOcean] != 100 {
		t.Errorf("snapshot affected by reset: %+v", snap.Donation)
	}
}

func TestSelectorsReturnCopies(t *testing.T) {
	m := NewMachine()
	m.OpenModal(model.MissionOcean)

	sel := m.SelectedMissions()
	sel[0] = model.MissionForest
	dist := m.Distribution()
	dist[model.MissionOcean] = 0

	if m.SelectedMissions()[0] != model.MissionOcean {
		t.Error("SelectedMissions exposed internal slice")
	}
	if m.Distribution()[model.MissionOcean] != 100 {
		t.Error("Distribution exposed internal map")
	}
}

// machineAt builds a machine sitting at step with the given number of
// selected missions, entered through a mission when entry is true.
func machineAt(step model.ModalStep, missions int, entry bool) *Machine {
	m := NewMachine()
	if entry {
		m.OpenModal(model.MissionOcean)
	} else {
		m.OpenModal("")
		if missions > 0 {
			m.donation.SelectedMissions = []model.MissionSlug{model.MissionOcean}
		}
	}
	for _, slug := range []model.MissionSlug{model.MissionForest, model.MissionWildlife, model.MissionFood} {
		if len(m.donation.SelectedMissions) >= missions {
			break
		}
		m.ToggleMission(slug)
	}
	m.modal.CurrentStep = step
	return m
}
