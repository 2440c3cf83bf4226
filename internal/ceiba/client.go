package ceiba

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"fleet-analytics/internal/config"
	"fleet-analytics/internal/metrics"
	"fleet-analytics/internal/model"
)

const (
	codeOK             = 200
	codeBadCredentials = 206
)

const (
	startOfDay = " 00:00:00"
	endOfDay   = " 23:59:59"
)

// Client talks to the CEIBA vehicle-tracking backend. Every response uses
// the `{errorcode, data}` envelope; anything but errorcode 200 is a failure,
// never empty data.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.CeibaConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.With().Str("component", "ceiba").Logger(),
	}
}

type envelope struct {
	ErrorCode int             `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

type telemetryRequest struct {
	TerID     []string `json:"terid"`
	StartTime string   `json:"starttime"`
	EndTime   string   `json:"endtime"`
	Key       string   `json:"key"`
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const endpoint = "basic/key"

	params := url.Values{}
	params.Set("username", username)
	params.Set("password", password)

	env, err := c.get(ctx, endpoint, params)
	if err != nil {
		return "", err
	}

	switch env.ErrorCode {
	case codeOK:
		var payload struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.Key == "" {
			return "", backendErr(endpoint, fmt.Errorf("response missing data.key"))
		}
		return payload.Key, nil
	case codeBadCredentials:
		return "", ErrInvalidCredentials
	default:
		return "", backendCodeErr(endpoint, env.ErrorCode)
	}
}

func (c *Client) ListGroups(ctx context.Context, key string) ([]model.Group, error) {
	const endpoint = "basic/groups"

	params := url.Values{}
	params.Set("key", key)

	raw, err := c.getData(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	groups := make([]model.Group, 0, len(raw))
	for _, record := range raw {
		if group, ok := normalizeGroup(record); ok {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (c *Client) ListDevices(ctx context.Context, key string) ([]model.Device, error) {
	const endpoint = "basic/devices"

	params := url.Values{}
	params.Set("key", key)

	raw, err := c.getData(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	devices := make([]model.Device, 0, len(raw))
	for _, record := range raw {
		if device, ok := normalizeDevice(record); ok {
			devices = append(devices, device)
		}
	}
	return devices, nil
}

func (c *Client) PassengerCounts(ctx context.Context, key string, terids []string, window model.DateRange) ([]model.EventRow, error) {
	return c.telemetry(ctx, "basic/passenger-count/detail", key, terids, window, countAliases)
}

func (c *Client) Mileage(ctx context.Context, key string, terids []string, window model.DateRange) ([]model.EventRow, error) {
	return c.telemetry(ctx, "basic/mileage/count", key, terids, window, mileageAliases)
}

func (c *Client) telemetry(ctx context.Context, endpoint, key string, terids []string, window model.DateRange, valueAliases []string) ([]model.EventRow, error) {
	body := telemetryRequest{
		TerID:     terids,
		StartTime: window.Start.Format(model.DateLayout) + startOfDay,
		EndTime:   window.End.Format(model.DateLayout) + endOfDay,
		Key:       key,
	}

	env, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	if env.ErrorCode != codeOK {
		return nil, backendCodeErr(endpoint, env.ErrorCode)
	}

	raw, err := decodeRecords(endpoint, env.Data)
	if err != nil {
		return nil, err
	}

	rows := make([]model.EventRow, 0, len(raw))
	dropped := 0
	for _, record := range raw {
		row, ok := normalizeEventRow(record, valueAliases)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	if dropped > 0 {
		c.log.Warn().Str("endpoint", endpoint).Int("dropped", dropped).Msg("telemetry rows missing required fields")
	}
	return rows, nil
}

func (c *Client) getData(ctx context.Context, endpoint string, params url.Values) ([]map[string]any, error) {
	env, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if env.ErrorCode != codeOK {
		return nil, backendCodeErr(endpoint, env.ErrorCode)
	}
	return decodeRecords(endpoint, env.Data)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*envelope, error) {
	target := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backendErr(endpoint, err)
	}
	return c.do(endpoint, req)
}

func (c *Client) post(ctx context.Context, endpoint string, body any) (*envelope, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, backendErr(endpoint, err)
	}

	target := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return nil, backendErr(endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(endpoint, req)
}

func (c *Client) do(endpoint string, req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CeibaRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, backendErr(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.CeibaRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, backendErr(endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		metrics.CeibaRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, backendErr(endpoint, fmt.Errorf("response is not JSON (http %d)", resp.StatusCode))
	}

	metrics.CeibaRequests.WithLabelValues(endpoint, "ok").Inc()
	return &env, nil
}

func decodeRecords(endpoint string, data json.RawMessage) ([]map[string]any, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, backendErr(endpoint, fmt.Errorf("unexpected data shape: %w", err))
	}
	return records, nil
}
