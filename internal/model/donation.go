package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// DonationType is the recurrence of a donation.
type DonationType string

const (
	DonationMonthly DonationType = "monthly"
	DonationOneTime DonationType = "onetime"
)

// ValidDonationTypes contains all valid donation types.
var ValidDonationTypes = map[DonationType]bool{
	DonationMonthly: true,
	DonationOneTime: true,
}

// Amount bounds in won.
const (
	MinAmount        int64 = 1_000
	MaxOneTimeAmount int64 = 100_000_000
	MaxMonthlyAmount int64 = 10_000_000
)

// MaxAmount returns the ceiling for the donation type.
func (t DonationType) MaxAmount() int64 {
	if t == DonationOneTime {
		return MaxOneTimeAmount
	}
	return MaxMonthlyAmount
}

// Label returns the Korean label used on summaries and certificates.
func (t DonationType) Label() string {
	if t == DonationMonthly {
		return "정기 후원"
	}
	return "일시 후원"
}

// PaymentMethod is the stub payment option picked at the last step.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit-card"
	PaymentBankTransfer PaymentMethod = "bank-transfer"
	PaymentEasyPay      PaymentMethod = "easy-pay"
)

// ValidPaymentMethods contains all valid payment methods.
var ValidPaymentMethods = map[PaymentMethod]bool{
	PaymentCreditCard:   true,
	PaymentBankTransfer: true,
	PaymentEasyPay:      true,
}

// ModalStep is one node of the donation wizard. The zero value is the
// mission pick step.
type ModalStep uint8

const (
	StepMissionSelect  ModalStep = iota // 0
	StepConfirm                         // 1
	StepAdditional                      // 2
	StepCategorySelect                  // 2-1
	StepDistribution                    // 2-2
	StepPayment                         // 3
)

var stepNames = [...]string{"0", "1", "2", "2-1", "2-2", "3"}

// Steps lists every step in wizard order.
var Steps = []ModalStep{
	StepMissionSelect,
	StepConfirm,
	StepAdditional,
	StepCategorySelect,
	StepDistribution,
	StepPayment,
}

// Valid reports whether s is one of the six steps.
func (s ModalStep) Valid() bool {
	return int(s) < len(stepNames)
}

func (s ModalStep) String() string {
	if !s.Valid() {
		return "invalid"
	}
	return stepNames[s]
}

// ParseModalStep accepts the wire names "0", "1", "2", "2-1", "2-2", "3".
func ParseModalStep(raw string) (ModalStep, error) {
	for _, step := range Steps {
		if step.String() == raw {
			return step, nil
		}
	}
	return 0, fmt.Errorf("invalid modal step %q", raw)
}

// MarshalJSON writes the main steps as numbers and the sub-path steps as
// strings, e.g. 2 and "2-1".
func (s ModalStep) MarshalJSON() ([]byte, error) {
	switch s {
	case StepCategorySelect, StepDistribution:
		return json.Marshal(s.String())
	case StepMissionSelect, StepConfirm, StepAdditional, StepPayment:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("invalid modal step %d", uint8(s))
}

func (s *ModalStep) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	step, err := ParseModalStep(raw)
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// ModalState is the wizard position. An empty EntryMission means the modal
// was opened without a mission.
type ModalState struct {
	IsOpen       bool
	CurrentStep  ModalStep
	EntryMission MissionSlug
}

// HasEntryMission reports whether the session was entered through a mission.
func (m ModalState) HasEntryMission() bool {
	return m.EntryMission != ""
}

type modalStateJSON struct {
	IsOpen       bool         `json:"isOpen"`
	CurrentStep  ModalStep    `json:"currentStep"`
	EntryMission *MissionSlug `json:"entryMission"`
}

func (m ModalState) MarshalJSON() ([]byte, error) {
	out := modalStateJSON{IsOpen: m.IsOpen, CurrentStep: m.CurrentStep}
	if m.HasEntryMission() {
		entry := m.EntryMission
		out.EntryMission = &entry
	}
	return json.Marshal(out)
}

func (m *ModalState) UnmarshalJSON(data []byte) error {
	var in modalStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.IsOpen = in.IsOpen
	m.CurrentStep = in.CurrentStep
	m.EntryMission = ""
	if in.EntryMission != nil {
		m.EntryMission = *in.EntryMission
	}
	return nil
}

// Distribution maps each selected mission to its integer percent.
type Distribution map[MissionSlug]int

// Sum returns the total percent.
func (d Distribution) Sum() int {
	total := 0
	for _, v := range d {
		total += v
	}
	return total
}

// Clone returns an independent copy; never nil.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	maps.Copy(out, d)
	return out
}

// DonationState is the amount and allocation under edit.
type DonationState struct {
	Type             DonationType  `json:"type" enum:"monthly,onetime"`
	Amount           int64         `json:"amount" minimum:"0"`
	SelectedMissions []MissionSlug `json:"selectedMissions"`
	Distribution     Distribution  `json:"distribution"`
}

// Clone returns a deep copy with non-nil collections.
func (d DonationState) Clone() DonationState {
	out := d
	out.SelectedMissions = slices.Clone(d.SelectedMissions)
	if out.SelectedMissions == nil {
		out.SelectedMissions = []MissionSlug{}
	}
	out.Distribution = d.Distribution.Clone()
	return out
}

// DonorInfo holds the free-form donor fields.
type DonorInfo struct {
	Name  string `json:"name" example:"김민지"`
	Email string `json:"email" example:"minji@example.com"`
	Phone string `json:"phone" example:"010-1234-5678"`
}

// DonorField names one DonorInfo field.
type DonorField string

const (
	DonorName  DonorField = "name"
	DonorEmail DonorField = "email"
	DonorPhone DonorField = "phone"
)

// ValidDonorFields contains all valid donor fields.
var ValidDonorFields = map[DonorField]bool{
	DonorName:  true,
	DonorEmail: true,
	DonorPhone: true,
}

// Snapshot is the full session state handed across the completion page load.
type Snapshot struct {
	Modal    ModalState    `json:"modal"`
	Donation DonationState `json:"donation"`
	Donor    DonorInfo     `json:"donor"`
}

// Complete reports whether the snapshot carries enough to show a summary.
func (s Snapshot) Complete() bool {
	return s.Donor.Name != "" && s.Donation.Amount != 0 && len(s.Donation.SelectedMissions) > 0
}

// DonationRecord is the immutable history entry written at submission.
type DonationRecord struct {
	ID                string        `json:"id" example:"1760680000000"`
	DonorName         string        `json:"donorName" example:"김민지"`
	Email             string        `json:"email" example:"minji@example.com"`
	Phone             string        `json:"phone" example:"010-1234-5678"`
	Amount            int64         `json:"amount" example:"30000"`
	DonationType      DonationType  `json:"donationType" enum:"monthly,onetime"`
	SelectedMissions  []MissionSlug `json:"selectedMissions"`
	Distribution      Distribution  `json:"distribution"`
	Date              string        `json:"date" example:"2026년 10월 17일"`
	CertificateNumber string        `json:"certificateNumber" example:"WWF-2026-48213"`
}
