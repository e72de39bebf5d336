// Package certificate talks to the external certificate generator: it builds
// and validates requests, fetches the PDF, and tracks per-record download state.
package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"donation-flow/internal/model"
)

var (
	// ErrInvalidRequest is returned when a required parameter is missing or the amount is not positive.
	ErrInvalidRequest = errors.New("invalid certificate request")
	// ErrGeneration is returned when the generator fails or answers with an error.
	ErrGeneration = errors.New("certificate generation failed")
)

// Messages the generator contract uses for rejected requests.
const (
	MsgMissingParams = "필수 파라미터가 누락되었습니다. (name, amount, type, missions, date)"
	MsgInvalidAmount = "유효하지 않은 금액입니다."
)

// ValidationError is a rejected request. It matches ErrInvalidRequest.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return ErrInvalidRequest.Error() + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Request carries the five certificate fields.
type Request struct {
	DonorName    string
	Amount       int64
	DonationType model.DonationType
	MissionSlugs []string
	Date         string
}

// FromRecord builds the request for a stored donation.
func FromRecord(r model.DonationRecord) Request {
	slugs := make([]string, len(r.SelectedMissions))
	for i, s := range r.SelectedMissions {
		slugs[i] = string(s)
	}
	return Request{
		DonorName:    r.DonorName,
		Amount:       r.Amount,
		DonationType: r.DonationType,
		MissionSlugs: slugs,
		Date:         r.Date,
	}
}

// Validate reports ErrInvalidRequest when the generator would reject the request.
func (r Request) Validate() error {
	if r.DonorName == "" || r.DonationType == "" || len(r.MissionSlugs) == 0 || r.Date == "" {
		return &ValidationError{Message: MsgMissingParams}
	}
	if r.Amount <= 0 {
		return &ValidationError{Message: MsgInvalidAmount}
	}
	return nil
}

// Query serialises the request as generator query parameters.
func (r Request) Query() url.Values {
	v := url.Values{}
	v.Set("name", r.DonorName)
	v.Set("amount", strconv.FormatInt(r.Amount, 10))
	v.Set("type", string(r.DonationType))
	v.Set("missions", strings.Join(r.MissionSlugs, ","))
	v.Set("date", r.Date)
	return v
}

// ParseQuery reads a request from query parameters and validates it.
func ParseQuery(v url.Values) (Request, error) {
	name, amountRaw, typ, missions, date := v.Get("name"), v.Get("amount"), v.Get("type"), v.Get("missions"), v.Get("date")
	if name == "" || amountRaw == "" || typ == "" || missions == "" || date == "" {
		return Request{}, &ValidationError{Message: MsgMissingParams}
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(amountRaw), 10, 64)
	if err != nil || amount <= 0 {
		return Request{}, &ValidationError{Message: MsgInvalidAmount}
	}

	var slugs []string
	for _, s := range strings.Split(missions, ",") {
		if s = strings.TrimSpace(s); s != "" {
			slugs = append(slugs, s)
		}
	}

	req := Request{
		DonorName:    name,
		Amount:       amount,
		DonationType: model.DonationType(typ),
		MissionSlugs: slugs,
		Date:         date,
	}
	return req, req.Validate()
}

// FileName is the download name for a certificate.
func FileName(certificateNumber string) string {
	return "wwf-certificate-" + certificateNumber + ".pdf"
}

// Generator produces certificate PDFs.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// Client calls a generator over HTTP GET.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a generator client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type generatorError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Generate fetches the PDF for req.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+req.Query().Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build generator request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK {
		var ge generatorError
		if json.Unmarshal(body, &ge) == nil && ge.Message != "" {
			if resp.StatusCode == http.StatusBadRequest {
				return nil, &ValidationError{Message: ge.Message}
			}
			return nil, fmt.Errorf("%w: %s (%s)", ErrGeneration, ge.Message, ge.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrGeneration, resp.StatusCode)
	}
	return body, nil
}
