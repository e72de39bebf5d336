package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"donation-flow/internal/certificate"
	"donation-flow/internal/history"
	"donation-flow/internal/model"
	"donation-flow/internal/validation"
)

// HistoryHandler serves donation history lookups and phone input helpers.
type HistoryHandler struct {
	history *history.Store
	logger  *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(hist *history.Store, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{history: hist, logger: logger}
}

type FindHistoryInput struct {
	Name    string `query:"name" doc:"Donor name, matched exactly after trimming" example:"김민지"`
	Contact string `query:"contact" doc:"Email or phone; phone digits match with or without hyphens" example:"010-1234-5678"`
}

type FindHistoryOutput struct {
	Body model.HistoryResponse
}

type FormatPhoneInput struct {
	Value string `query:"value" doc:"Raw phone input" example:"01012345678"`
}

type FormatPhoneOutput struct {
	Body model.PhoneFormatResponse
}

// RegisterRoutes registers history routes with the huma API.
func (h *HistoryHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "find-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/history",
		Summary:     "Find past donations",
		Description: "Records whose donor name equals name and whose email or phone equals contact, newest first.",
		Tags:        []string{"history"},
	}, h.FindHistory)

	huma.Register(api, huma.Operation{
		OperationID: "format-phone",
		Method:      http.MethodGet,
		Path:        "/api/v1/phone/format",
		Summary:     "Format a phone number as typed",
		Tags:        []string{"history"},
	}, h.FormatPhone)
}

func (h *HistoryHandler) FindHistory(ctx context.Context, input *FindHistoryInput) (*FindHistoryOutput, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Contact) == "" {
		return nil, huma.Error400BadRequest("이름과 연락처를 모두 입력해주세요")
	}

	records := h.history.Find(ctx, input.Name, input.Contact)
	h.logger.Debug("history lookup", slog.Int("matches", len(records)))

	entries := make([]model.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = model.HistoryEntry{DonationRecord: r, CertificateURL: certificateURL(r)}
	}
	return &FindHistoryOutput{
		Body: model.HistoryResponse{Records: entries, Count: len(entries)},
	}, nil
}

// certificateURL points at the download route with the record's fields and
// its certificate number, so the download state is tracked per certificate.
func certificateURL(r model.DonationRecord) string {
	q := certificate.FromRecord(r).Query()
	q.Set("number", r.CertificateNumber)
	return "/api/v1/certificate?" + q.Encode()
}

func (h *HistoryHandler) FormatPhone(ctx context.Context, input *FormatPhoneInput) (*FormatPhoneOutput, error) {
	formatted := validation.FormatPhoneNumber(input.Value)
	r := validation.ValidatePhone(formatted)
	return &FormatPhoneOutput{
		Body: model.PhoneFormatResponse{Formatted: formatted, Valid: r.Valid, Message: r.Message},
	}, nil
}
