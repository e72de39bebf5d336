package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"donation-flow/internal/certificate"
	"donation-flow/internal/metrics"
	"donation-flow/internal/model"
)

// CertificateHandler proxies certificate downloads to the external generator.
type CertificateHandler struct {
	generator certificate.Generator
	tracker   *certificate.Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewCertificateHandler creates a CertificateHandler.
func NewCertificateHandler(gen certificate.Generator, tracker *certificate.Tracker, m *metrics.Metrics, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{generator: gen, tracker: tracker, metrics: m, logger: logger}
}

type DownloadCertificateInput struct {
	Name     string `query:"name" doc:"Donor name"`
	Amount   string `query:"amount" doc:"Amount in won" example:"30000"`
	Type     string `query:"type" doc:"monthly or onetime"`
	Missions string `query:"missions" doc:"Comma-separated mission slugs" example:"ocean,forest"`
	Date     string `query:"date" doc:"Donation date" example:"2026년 10월 17일"`
	Number   string `query:"number" pattern:"^WWF-\\d{4}-\\d{5}$" doc:"Certificate number; enables download state tracking" example:"WWF-2026-48213"`
}

type DownloadCertificateOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

type CertificateStatusInput struct {
	Number string `path:"number" example:"WWF-2026-48213"`
}

type CertificateStatusOutput struct {
	Body model.CertificateStatusResponse
}

// RegisterRoutes registers certificate routes with the huma API.
func (h *CertificateHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "download-certificate",
		Method:      http.MethodGet,
		Path:        "/api/v1/certificate",
		Summary:     "Download a donation certificate",
		Description: "Validate the five certificate fields and fetch the PDF from the generator.",
		Tags:        []string{"certificate"},
	}, h.Download)

	huma.Register(api, huma.Operation{
		OperationID: "certificate-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/certificate/{number}/status",
		Summary:     "Get certificate download state",
		Tags:        []string{"certificate"},
	}, h.Status)
}

func (h *CertificateHandler) Download(ctx context.Context, input *DownloadCertificateInput) (*DownloadCertificateOutput, error) {
	q := url.Values{}
	q.Set("name", input.Name)
	q.Set("amount", input.Amount)
	q.Set("type", input.Type)
	q.Set("missions", input.Missions)
	q.Set("date", input.Date)

	req, err := certificate.ParseQuery(q)
	if err != nil {
		h.metrics.ObserveCertificate("invalid")
		var ve *certificate.ValidationError
		if errors.As(err, &ve) {
			return nil, huma.Error400BadRequest(ve.Message)
		}
		return nil, huma.Error400BadRequest(err.Error())
	}

	if input.Number != "" {
		if err := h.tracker.Begin(input.Number); errors.Is(err, certificate.ErrInProgress) {
			return nil, huma.Error409Conflict("certificate download already in progress")
		}
	}

	pdf, err := h.generator.Generate(ctx, req)
	if input.Number != "" {
		h.tracker.Finish(input.Number, err)
	}
	if err != nil {
		h.logger.Error("certificate generation failed",
			slog.String("certificate_number", input.Number),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, certificate.ErrInvalidRequest) {
			h.metrics.ObserveCertificate("invalid")
			return nil, huma.Error400BadRequest("certificate request rejected", err)
		}
		h.metrics.ObserveCertificate("error")
		return nil, huma.Error502BadGateway("PDF 생성 중 오류가 발생했습니다.", err)
	}

	h.metrics.ObserveCertificate("ok")
	filename := "wwf-certificate.pdf"
	if input.Number != "" {
		filename = certificate.FileName(input.Number)
	}
	return &DownloadCertificateOutput{
		ContentType:        "application/pdf",
		ContentDisposition: `attachment; filename="` + filename + `"`,
		Body:               pdf,
	}, nil
}

func (h *CertificateHandler) Status(ctx context.Context, input *CertificateStatusInput) (*CertificateStatusOutput, error) {
	return &CertificateStatusOutput{
		Body: model.CertificateStatusResponse{
			Number: input.Number,
			State:  string(h.tracker.State(input.Number)),
		},
	}, nil
}
