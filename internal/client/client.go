// Package client talks to a running calibration server over its REST API.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"calibration-backend/internal/calibration"
)

// Instrument is a live instrument as returned by the server.
type Instrument struct {
	RegistryID          int64    `json:"registry_id"`
	InstrumentNumber    string   `json:"instrument_number"`
	InstrumentName      string   `json:"instrument_name"`
	EquipmentSerialNo   string   `json:"equipment_sl_no"`
	Make                string   `json:"make"`
	ModelNumber         string   `json:"model_number"`
	Frequency           string   `json:"frequency"`
	CertificateNumber   *string  `json:"certificate_number"`
	LastCalibrationDate string   `json:"last_calibration_date"`
	NextDueDate         string   `json:"next_due_date"`
	CycleStatus         string   `json:"cycle_status"`
	InstrumentStatus    string   `json:"instrument_status"`
	PerformedBy         string   `json:"performed_by"`
	Band                string   `json:"band"`
	Label               string   `json:"label"`
	DaysRemaining       *float64 `json:"days_remaining"`
}

// Cycle is one ledger entry.
type Cycle struct {
	EntryID           string    `json:"entry_id"`
	InstrumentNumber  string    `json:"instrument_number"`
	InstrumentName    string    `json:"instrument_name"`
	Frequency         string    `json:"frequency"`
	CertificateNumber *string   `json:"certificate_number"`
	CalibrationDate   string    `json:"calibration_date"`
	NextDueDate       string    `json:"next_due_date"`
	CompletedOn       string    `json:"completed_on"`
	PerformedBy       string    `json:"performed_by"`
	EntryTimestamp    time.Time `json:"entry_timestamp"`
}

// Completion is the server's answer to a completed cycle.
type Completion struct {
	Instrument   Instrument `json:"instrument"`
	HistoryEntry Cycle      `json:"history_entry"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int      `json:"-"`
	Message string   `json:"error"`
	Kind    string   `json:"kind"`
	Fields  []string `json:"fields"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s (%d): %s [%s]", e.Kind, e.Status, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Client is a calibration API client.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// do sends one request and decodes a 2xx body into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}
	req := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("calibration API call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Kind == "" {
			apiErr.Kind = "HTTPError"
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		c.logger.Debug("calibration API returned error",
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("kind", apiErr.Kind),
		)
		return apiErr
	}
	return nil
}

func withQuery(path string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// Counts fetches band counts at now (YYYY-MM-DD, empty for today).
func (c *Client) Counts(ctx context.Context, now string) (calibration.BandCounts, error) {
	var counts calibration.BandCounts
	err := c.do(ctx, resty.MethodGet, withQuery("/compliance/counts", map[string]string{"now": now}), nil, &counts)
	return counts, err
}

// Instruments lists instruments filtered by status (all, active, obsolete).
func (c *Client) Instruments(ctx context.Context, status, now string) ([]Instrument, error) {
	var out []Instrument
	err := c.do(ctx, resty.MethodGet, withQuery("/instruments", map[string]string{"status": status, "now": now}), nil, &out)
	return out, err
}

// Register creates an instrument.
func (c *Client) Register(ctx context.Context, in calibration.NewInstrument) (*Instrument, error) {
	var out Instrument
	if err := c.do(ctx, resty.MethodPost, "/instruments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Complete closes the current cycle of instrument id.
func (c *Client) Complete(ctx context.Context, id int64, in calibration.CompletionInput) (*Completion, error) {
	var out Completion
	if err := c.do(ctx, resty.MethodPost, "/instruments/"+strconv.FormatInt(id, 10)+"/complete", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists ledger entries logged between from and to (inclusive, either may be empty).
func (c *Client) History(ctx context.Context, from, to string) ([]Cycle, error) {
	var out []Cycle
	err := c.do(ctx, resty.MethodGet, withQuery("/history", map[string]string{"from": from, "to": to}), nil, &out)
	return out, err
}
