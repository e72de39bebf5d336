package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"donation-flow/internal/distribution"
	"donation-flow/internal/donation"
	"donation-flow/internal/format"
	"donation-flow/internal/history"
	"donation-flow/internal/metrics"
	"donation-flow/internal/model"
	"donation-flow/internal/session"
	"donation-flow/internal/storage"
	"donation-flow/internal/validation"
)

// SessionHandler exposes donation sessions over HTTP.
type SessionHandler struct {
	registry *donation.Registry
	slots    storage.Store
	history  *history.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionHandler creates a SessionHandler. slots backs the per-session
// completion handoff; expired sessions have their slot discarded.
func NewSessionHandler(registry *donation.Registry, slots storage.Store, hist *history.Store, m *metrics.Metrics, logger *slog.Logger) *SessionHandler {
	h := &SessionHandler{
		registry: registry,
		slots:    slots,
		history:  hist,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
	registry.OnExpire(func(id uuid.UUID) {
		h.bridge(id).Discard(context.Background())
	})
	return h
}

func (h *SessionHandler) bridge(id uuid.UUID) *session.Bridge {
	return session.NewBridge(storage.WithPrefix(h.slots, id.String()+":"), h.logger)
}

// --- Input/Output types for huma ---

type SessionOutput struct {
	Body model.SessionView
}

type CreateSessionInput struct {
	Body *model.CreateSessionRequest `required:"false"`
}

type SessionIDInput struct {
	ID string `path:"id" format:"uuid" doc:"Session ID"`
}

type OpenSessionInput struct {
	ID   string                      `path:"id" format:"uuid" doc:"Session ID"`
	Body *model.CreateSessionRequest `required:"false"`
}

type MissionInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.MissionRequest
}

type AmountInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.AmountRequest
}

type TypeInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.TypeRequest
}

type DonorInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.DonorRequest
}

type DistributionInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.DistributionRequest
}

type DragInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.DragRequest
}

type EditPercentInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.EditPercentRequest
}

type CompleteInput struct {
	ID   string `path:"id" format:"uuid" doc:"Session ID"`
	Body model.CompleteRequest
}

type CompleteOutput struct {
	Body model.CompleteResponse
}

type SummaryOutput struct {
	Body model.SummaryView
}

// RegisterRoutes registers all session routes with the huma API.
func (h *SessionHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Start a donation session",
		Description:   "Create a session and open the donation modal, optionally from a mission page.",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateSession)

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get a donation session",
		Tags:        []string{"sessions"},
	}, h.GetSession)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-session",
		Method:        http.MethodDelete,
		Path:          "/api/v1/sessions/{id}",
		Summary:       "End a donation session",
		Description:   "Close the modal and drop the session with any unread completion summary.",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteSession)

	huma.Register(api, huma.Operation{
		OperationID: "open-modal",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/open",
		Summary:     "Open the donation modal",
		Description: "Reset the session and open the modal, at step 1 with a mission or step 0 without.",
		Tags:        []string{"wizard"},
	}, h.OpenModal)

	h.registerStep(api, "next-step", "next", "Advance to the next step", func(m *donation.Machine) error {
		if m.CurrentStep() == model.StepConfirm {
			d := m.Donation()
			if r := validation.ValidateAmount(d.Amount, d.Type); !r.Valid {
				return huma.Error422UnprocessableEntity(r.Message, &huma.ErrorDetail{
					Location: "donation.amount",
					Message:  r.Message,
					Value:    d.Amount,
				})
			}
		}
		m.NextStep()
		return nil
	})
	h.registerStep(api, "prev-step", "prev", "Go back one step", func(m *donation.Machine) error {
		m.PrevStep()
		return nil
	})
	h.registerStep(api, "explore-more", "explore", "Answer yes to supporting more missions", func(m *donation.Machine) error {
		m.ExploreMore()
		return nil
	})
	h.registerStep(api, "close-modal", "close", "Close the modal and reset the session", func(m *donation.Machine) error {
		m.CloseModal()
		return nil
	})
	h.registerStep(api, "reset-distribution", "distribution/reset", "Split the selected missions equally", func(m *donation.Machine) error {
		m.ResetDistribution()
		return nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "select-mission",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/select",
		Summary:     "Pick the mission on step 0",
		Tags:        []string{"wizard"},
	}, h.SelectMission)

	huma.Register(api, huma.Operation{
		OperationID: "toggle-mission",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/toggle",
		Summary:     "Add or remove a mission",
		Description: "The entry mission cannot be removed. The distribution is re-split equally.",
		Tags:        []string{"wizard"},
	}, h.ToggleMission)

	huma.Register(api, huma.Operation{
		OperationID: "set-amount",
		Method:      http.MethodPut,
		Path:        "/api/v1/sessions/{id}/amount",
		Summary:     "Set the donation amount",
		Tags:        []string{"donation"},
	}, h.SetAmount)

	huma.Register(api, huma.Operation{
		OperationID: "set-donation-type",
		Method:      http.MethodPut,
		Path:        "/api/v1/sessions/{id}/type",
		Summary:     "Set monthly or one-time",
		Tags:        []string{"donation"},
	}, h.SetDonationType)

	huma.Register(api, huma.Operation{
		OperationID: "set-donor",
		Method:      http.MethodPut,
		Path:        "/api/v1/sessions/{id}/donor",
		Summary:     "Update donor fields",
		Tags:        []string{"donation"},
	}, h.SetDonor)

	huma.Register(api, huma.Operation{
		OperationID: "set-distribution",
		Method:      http.MethodPut,
		Path:        "/api/v1/sessions/{id}/distribution",
		Summary:     "Replace the distribution",
		Description: "Keys must be the selected missions and values must sum to 100.",
		Tags:        []string{"distribution"},
	}, h.SetDistribution)

	huma.Register(api, huma.Operation{
		OperationID: "drag-distribution",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/distribution/drag",
		Summary:     "Move one mission's slider",
		Description: "The other missions are rescaled so the total stays 100.",
		Tags:        []string{"distribution"},
	}, h.DragDistribution)

	huma.Register(api, huma.Operation{
		OperationID: "edit-distribution",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/distribution/edit",
		Summary:     "Type a percent for one mission",
		Description: "The value is clamped to 5..95 before the others are rescaled.",
		Tags:        []string{"distribution"},
	}, h.EditDistributionPercent)

	huma.Register(api, huma.Operation{
		OperationID: "complete-donation",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/complete",
		Summary:     "Submit the donation",
		Description: "Validate the donor and amount on the payment step, hand the state to the completion page and record it in history. Nothing is charged.",
		Tags:        []string{"donation"},
	}, h.Complete)

	huma.Register(api, huma.Operation{
		OperationID: "get-summary",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/summary",
		Summary:     "Read the completion summary once",
		Description: "Returns the submitted state and clears it; a second read returns 404.",
		Tags:        []string{"donation"},
	}, h.Summary)
}

func (h *SessionHandler) registerStep(api huma.API, opID, suffix, summary string, fn func(m *donation.Machine) error) {
	huma.Register(api, huma.Operation{
		OperationID: opID,
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/" + suffix,
		Summary:     summary,
		Tags:        []string{"wizard"},
	}, func(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
		return h.apply(input.ID, opID, fn)
	})
}

// apply runs fn on the session's machine and returns the resulting view.
func (h *SessionHandler) apply(rawID, action string, fn func(m *donation.Machine) error) (*SessionOutput, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("donation session %s not found", rawID))
	}

	var view model.SessionView
	err = h.registry.Do(id, func(m *donation.Machine) error {
		from := m.CurrentStep()
		if err := fn(m); err != nil {
			return err
		}
		if to := m.CurrentStep(); to != from {
			h.metrics.ObserveTransition(from.String(), to.String())
			h.logger.Debug("wizard step changed",
				slog.String("session_id", id.String()),
				slog.String("action", action),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}
		view = sessionView(id, m)
		return nil
	})
	if err != nil {
		return nil, h.mapError(err, id, action)
	}
	return &SessionOutput{Body: view}, nil
}

func (h *SessionHandler) mapError(err error, id uuid.UUID, action string) error {
	var se huma.StatusError
	switch {
	case errors.Is(err, donation.ErrSessionNotFound):
		return huma.Error404NotFound(fmt.Sprintf("donation session %s not found", id))
	case errors.As(err, &se):
		return se
	}
	h.logger.Error("session operation failed",
		slog.String("session_id", id.String()),
		slog.String("action", action),
		slog.String("error", err.Error()),
	)
	return huma.Error500InternalServerError("failed to update donation session")
}

func sessionView(id uuid.UUID, m *donation.Machine) model.SessionView {
	modal := m.Modal()
	d := m.Donation()

	var entry *model.MissionSlug
	if slug, ok := m.EntryMission(); ok {
		entry = &slug
	}

	return model.SessionView{
		ID:                     id.String(),
		IsOpen:                 modal.IsOpen,
		CurrentStep:            modal.CurrentStep.String(),
		EntryMission:           entry,
		CanGoBack:              m.CanGoBack(),
		NeedsCloseConfirmation: m.NeedsCloseConfirmation(),
		DistributionAdjustable: distribution.Adjustable(d.SelectedMissions),
		SliderMin:              distribution.MinManualPercent,
		SliderMax:              distribution.MaxManualPercent,
		Donation:               d,
		Donor:                  m.Donor(),
		AmountDisplay:          format.Currency(d.Amount),
		AmountLabel:            format.AmountLabel(d.Amount),
	}
}

func parseEntryMission(body *model.CreateSessionRequest) (model.MissionSlug, error) {
	if body == nil || body.Mission == "" {
		return "", nil
	}
	slug, err := model.ParseMissionSlug(body.Mission)
	if err != nil {
		return "", huma.Error400BadRequest(fmt.Sprintf("unknown mission %q", body.Mission))
	}
	return slug, nil
}

func (h *SessionHandler) CreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	slug, err := parseEntryMission(input.Body)
	if err != nil {
		return nil, err
	}

	id := h.registry.Create()
	h.logger.Info("donation session created",
		slog.String("session_id", id.String()),
		slog.String("entry_mission", string(slug)),
	)

	return h.apply(id.String(), "open-modal", func(m *donation.Machine) error {
		m.OpenModal(slug)
		return nil
	})
}

func (h *SessionHandler) GetSession(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
	return h.apply(input.ID, "get-session", func(*donation.Machine) error { return nil })
}

func (h *SessionHandler) DeleteSession(ctx context.Context, input *SessionIDInput) (*struct{}, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("donation session %s not found", input.ID))
	}

	err = h.registry.Do(id, func(m *donation.Machine) error {
		m.CloseModal()
		return nil
	})
	if err != nil {
		return nil, h.mapError(err, id, "delete-session")
	}

	h.registry.Remove(id)
	h.bridge(id).Discard(ctx)
	h.logger.Info("donation session ended", slog.String("session_id", id.String()))
	return nil, nil
}

func (h *SessionHandler) OpenModal(ctx context.Context, input *OpenSessionInput) (*SessionOutput, error) {
	slug, err := parseEntryMission(input.Body)
	if err != nil {
		return nil, err
	}
	return h.apply(input.ID, "open-modal", func(m *donation.Machine) error {
		m.OpenModal(slug)
		return nil
	})
}

func (h *SessionHandler) SelectMission(ctx context.Context, input *MissionInput) (*SessionOutput, error) {
	if !input.Body.Mission.Valid() {
		return nil, huma.Error400BadRequest(fmt.Sprintf("unknown mission %q", input.Body.Mission))
	}
	return h.apply(input.ID, "select-mission", func(m *donation.Machine) error {
		m.SelectMission(input.Body.Mission)
		return nil
	})
}

func (h *SessionHandler) ToggleMission(ctx context.Context, input *MissionInput) (*SessionOutput, error) {
	if !input.Body.Mission.Valid() {
		return nil, huma.Error400BadRequest(fmt.Sprintf("unknown mission %q", input.Body.Mission))
	}
	return h.apply(input.ID, "toggle-mission", func(m *donation.Machine) error {
		m.ToggleMission(input.Body.Mission)
		return nil
	})
}

func (h *SessionHandler) SetAmount(ctx context.Context, input *AmountInput) (*SessionOutput, error) {
	if input.Body.Amount < 0 {
		return nil, huma.Error400BadRequest("amount must not be negative")
	}
	return h.apply(input.ID, "set-amount", func(m *donation.Machine) error {
		m.SetAmount(input.Body.Amount)
		return nil
	})
}

func (h *SessionHandler) SetDonationType(ctx context.Context, input *TypeInput) (*SessionOutput, error) {
	if !model.ValidDonationTypes[input.Body.Type] {
		return nil, huma.Error400BadRequest("type must be one of: monthly, onetime")
	}
	return h.apply(input.ID, "set-donation-type", func(m *donation.Machine) error {
		m.SetDonationType(input.Body.Type)
		return nil
	})
}

func (h *SessionHandler) SetDonor(ctx context.Context, input *DonorInput) (*SessionOutput, error) {
	return h.apply(input.ID, "set-donor", func(m *donation.Machine) error {
		if input.Body.Name != nil {
			m.SetDonorInfo(model.DonorName, *input.Body.Name)
		}
		if input.Body.Email != nil {
			m.SetDonorInfo(model.DonorEmail, *input.Body.Email)
		}
		if input.Body.Phone != nil {
			m.SetDonorInfo(model.DonorPhone, validation.FormatPhoneNumber(*input.Body.Phone))
		}
		return nil
	})
}

func (h *SessionHandler) SetDistribution(ctx context.Context, input *DistributionInput) (*SessionOutput, error) {
	want := input.Body.Distribution
	return h.apply(input.ID, "set-distribution", func(m *donation.Machine) error {
		selected := m.SelectedMissions()
		if err := checkDistribution(selected, want); err != nil {
			return err
		}
		m.SetDistribution(want)
		return nil
	})
}

// checkDistribution requires one entry per selected mission, each within
// 0..100, together summing to 100.
func checkDistribution(selected []model.MissionSlug, d model.Distribution) error {
	if len(d) != len(selected) {
		return huma.Error422UnprocessableEntity("distribution must cover exactly the selected missions")
	}
	for _, slug := range selected {
		v, ok := d[slug]
		if !ok {
			return huma.Error422UnprocessableEntity(fmt.Sprintf("distribution is missing %s", slug))
		}
		if v < 0 || v > distribution.Total {
			return huma.Error422UnprocessableEntity(fmt.Sprintf("percent for %s must be between 0 and 100", slug))
		}
	}
	if len(selected) > 0 && d.Sum() != distribution.Total {
		return huma.Error422UnprocessableEntity(fmt.Sprintf("distribution must sum to 100, got %d", d.Sum()))
	}
	return nil
}

func (h *SessionHandler) DragDistribution(ctx context.Context, input *DragInput) (*SessionOutput, error) {
	return h.apply(input.ID, "drag-distribution", func(m *donation.Machine) error {
		m.DragDistribution(input.Body.Mission, input.Body.Value)
		return nil
	})
}

func (h *SessionHandler) EditDistributionPercent(ctx context.Context, input *EditPercentInput) (*SessionOutput, error) {
	return h.apply(input.ID, "edit-distribution", func(m *donation.Machine) error {
		if !m.EditDistributionPercent(input.Body.Mission, input.Body.Text) {
			return huma.Error422UnprocessableEntity("숫자를 입력해주세요", &huma.ErrorDetail{
				Location: "body.text",
				Message:  "not an integer",
				Value:    input.Body.Text,
			})
		}
		return nil
	})
}

func (h *SessionHandler) Complete(ctx context.Context, input *CompleteInput) (*CompleteOutput, error) {
	if !model.ValidPaymentMethods[input.Body.PaymentMethod] {
		return nil, huma.Error400BadRequest("paymentMethod must be one of: credit-card, bank-transfer, easy-pay")
	}
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("donation session %s not found", input.ID))
	}

	var snapshot model.Snapshot
	err = h.registry.Do(id, func(m *donation.Machine) error {
		if m.CurrentStep() != model.StepPayment {
			return huma.Error409Conflict(fmt.Sprintf("donation can only be completed on step 3, session is on step %s", m.CurrentStep()))
		}
		if details := submissionErrors(m.Donor(), m.Donation()); len(details) > 0 {
			return huma.Error422UnprocessableEntity("후원 정보를 확인해주세요", details...)
		}
		m.CompleteDonation(ctx, h.bridge(id))
		snapshot = m.Snapshot()
		return nil
	})
	if err != nil {
		return nil, h.mapError(err, id, "complete-donation")
	}

	record := history.NewRecord(snapshot, h.now())
	h.history.Append(ctx, record)
	h.metrics.ObserveDonation(string(record.DonationType), record.Amount)

	h.logger.Info("donation completed",
		slog.String("session_id", id.String()),
		slog.String("record_id", record.ID),
		slog.String("certificate_number", record.CertificateNumber),
		slog.String("type", string(record.DonationType)),
		slog.Int64("amount", record.Amount),
		slog.String("payment_method", string(input.Body.PaymentMethod)),
	)

	return &CompleteOutput{Body: model.CompleteResponse{Record: record}}, nil
}

func submissionErrors(donor model.DonorInfo, d model.DonationState) []error {
	var details []error
	fieldErrs := validation.DonorErrors(donor)
	values := map[model.DonorField]string{
		model.DonorName:  donor.Name,
		model.DonorEmail: donor.Email,
		model.DonorPhone: donor.Phone,
	}
	for _, f := range []model.DonorField{model.DonorName, model.DonorEmail, model.DonorPhone} {
		if msg, ok := fieldErrs[f]; ok {
			details = append(details, &huma.ErrorDetail{
				Location: "donor." + string(f),
				Message:  msg,
				Value:    values[f],
			})
		}
	}
	if r := validation.ValidateAmount(d.Amount, d.Type); !r.Valid {
		details = append(details, &huma.ErrorDetail{
			Location: "donation.amount",
			Message:  r.Message,
			Value:    d.Amount,
		})
	}
	return details
}

func (h *SessionHandler) Summary(ctx context.Context, input *SessionIDInput) (*SummaryOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("donation session %s not found", input.ID))
	}
	if err := h.registry.Do(id, func(*donation.Machine) error { return nil }); err != nil {
		return nil, h.mapError(err, id, "get-summary")
	}

	snapshot, ok := h.bridge(id).Restore(ctx)
	if !ok || !snapshot.Complete() {
		return nil, huma.Error404NotFound("완료된 후원 정보가 없습니다")
	}

	var entry *model.MissionSlug
	if snapshot.Modal.HasEntryMission() {
		slug := snapshot.Modal.EntryMission
		entry = &slug
	}
	names := make([]string, len(snapshot.Donation.SelectedMissions))
	for i, slug := range snapshot.Donation.SelectedMissions {
		names[i] = model.MissionName(string(slug))
	}

	return &SummaryOutput{Body: model.SummaryView{
		Donation:      snapshot.Donation,
		Donor:         snapshot.Donor,
		EntryMission:  entry,
		TypeLabel:     snapshot.Donation.Type.Label(),
		AmountDisplay: format.Currency(snapshot.Donation.Amount),
		MissionNames:  names,
	}}, nil
}
