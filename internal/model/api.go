package model

// SessionView is the read-only view of one donation session.
type SessionView struct {
	ID                     string        `json:"id" format:"uuid" doc:"Session ID"`
	IsOpen                 bool          `json:"isOpen"`
	CurrentStep            string        `json:"currentStep" enum:"0,1,2,2-1,2-2,3" doc:"Wizard step"`
	EntryMission           *MissionSlug  `json:"entryMission" doc:"Mission the flow was opened from, null when opened generically"`
	CanGoBack              bool          `json:"canGoBack"`
	NeedsCloseConfirmation bool          `json:"needsCloseConfirmation" doc:"Closing discards entered data and should be confirmed"`
	DistributionAdjustable bool          `json:"distributionAdjustable" doc:"True when two or more missions are selected"`
	SliderMin              int           `json:"sliderMin" example:"5"`
	SliderMax              int           `json:"sliderMax" example:"95"`
	Donation               DonationState `json:"donation"`
	Donor                  DonorInfo     `json:"donor"`
	AmountDisplay          string        `json:"amountDisplay" example:"30,000원"`
	AmountLabel            string        `json:"amountLabel" example:"3만원"`
}

// SummaryView is the completion page content restored from a finished session.
type SummaryView struct {
	Donation      DonationState `json:"donation"`
	Donor         DonorInfo     `json:"donor"`
	EntryMission  *MissionSlug  `json:"entryMission"`
	TypeLabel     string        `json:"typeLabel" example:"정기 후원"`
	AmountDisplay string        `json:"amountDisplay" example:"30,000원"`
	MissionNames  []string      `json:"missionNames"`
}

// CreateSessionRequest opens a new session, optionally from a mission page.
type CreateSessionRequest struct {
	Mission string `json:"mission,omitempty" required:"false" doc:"Entry mission slug; empty opens the generic flow"`
}

// MissionRequest names one mission.
type MissionRequest struct {
	Mission MissionSlug `json:"mission" enum:"climate-energy,ocean,wildlife,food,freshwater,forest"`
}

// AmountRequest sets the donation amount in won.
type AmountRequest struct {
	Amount int64 `json:"amount" minimum:"0" example:"30000"`
}

// TypeRequest sets the donation type.
type TypeRequest struct {
	Type DonationType `json:"type" enum:"monthly,onetime"`
}

// DonorRequest updates donor fields. Omitted fields are left unchanged.
type DonorRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty" doc:"Stored in 010-1234-5678 form"`
}

// DistributionRequest replaces the distribution wholesale.
type DistributionRequest struct {
	Distribution Distribution `json:"distribution"`
}

// DragRequest moves one mission's slider.
type DragRequest struct {
	Mission MissionSlug `json:"mission" enum:"climate-energy,ocean,wildlife,food,freshwater,forest"`
	Value   int         `json:"value" minimum:"0" maximum:"100"`
}

// EditPercentRequest types a percentage into one mission's field.
type EditPercentRequest struct {
	Mission MissionSlug `json:"mission" enum:"climate-energy,ocean,wildlife,food,freshwater,forest"`
	Text    string      `json:"text" example:"40"`
}

// CompleteRequest submits the donation.
type CompleteRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod" enum:"credit-card,bank-transfer,easy-pay"`
}

// CompleteResponse carries the stored history record.
type CompleteResponse struct {
	Record DonationRecord `json:"record"`
}

// MissionListResponse wraps the catalog.
type MissionListResponse struct {
	Missions []Mission `json:"missions"`
	Count    int       `json:"count"`
}

// HistoryEntry is a stored donation with the link that downloads its
// certificate.
type HistoryEntry struct {
	DonationRecord
	CertificateURL string `json:"certificateUrl" doc:"Certificate download path for this donation"`
}

// HistoryResponse wraps matched donation records.
type HistoryResponse struct {
	Records []HistoryEntry `json:"records"`
	Count   int            `json:"count"`
}

// PhoneFormatResponse is the formatted phone input and its validation.
type PhoneFormatResponse struct {
	Formatted string `json:"formatted" example:"010-1234-5678"`
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
}

// CertificateStatusResponse is the download state of one certificate.
type CertificateStatusResponse struct {
	Number string `json:"number" example:"WWF-2026-48213"`
	State  string `json:"state" enum:"idle,loading,error"`
}
