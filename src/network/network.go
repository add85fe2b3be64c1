package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"

	"github.com/google/uuid"
)

// maxErrorBody bounds how much of an error response ends up in a message.
const maxErrorBody = 512

type AsyncNetworkManager struct {
	Config  *models.MConfig
	BaseURL *url.URL
	Client  *http.Client
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) (*AsyncNetworkManager, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Backend.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	nm := &AsyncNetworkManager{
		Config:  cfg,
		BaseURL: base,
		Logger:  log,
	}
	nm.Client = nm.createClient()
	return nm, nil
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Backend.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request. Failures are returned as *helpers.TransportError.
func (nm *AsyncNetworkManager) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	return nm.do(ctx, http.MethodGet, path, params, nil)
}

// -----------------------------------------------------------------------------

// Post performs a POST request with an optional JSON body.
func (nm *AsyncNetworkManager) Post(ctx context.Context, path string, params map[string]string, body interface{}) ([]byte, error) {
	return nm.do(ctx, http.MethodPost, path, params, body)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) buildURL(path string, params map[string]string) string {
	reqURL := *nm.BaseURL
	reqURL.Path = strings.TrimRight(reqURL.Path, "/") + path

	q := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	return reqURL.String()
}

// -----------------------------------------------------------------------------

// do sends exactly one request; retry policy belongs to the caller.
func (nm *AsyncNetworkManager) do(ctx context.Context, method, path string, params map[string]string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, helpers.NewTransportError(path, 0, "encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, nm.buildURL(path, params), reader)
	if err != nil {
		return nil, helpers.NewTransportError(path, 0, "build request", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if nm.Config.Backend.UserAgent != "" {
		req.Header.Set("User-Agent", nm.Config.Backend.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := nm.Client.Do(req)
	if err != nil {
		msg := "request failed"
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			msg = "request timed out"
		}
		nm.Logger.Info("%s %s failed after %v (request %s): %v", method, path, time.Since(start), requestID, err)
		return nil, helpers.NewTransportError(path, 0, msg, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewTransportError(path, resp.StatusCode, "read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		nm.Logger.Info("%s %s returned %d (request %s)", method, path, resp.StatusCode, requestID)
		return nil, helpers.NewTransportError(path, resp.StatusCode, errorMessage(resp.StatusCode, data), nil)
	}

	nm.Logger.Debug("%s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))
	return data, nil
}

// -----------------------------------------------------------------------------

// errorMessage prefers the backend's {"detail"} or {"error"} text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Detail interface{} `json:"detail"`
		Error  string      `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	if text == "" {
		return http.StatusText(status)
	}
	return text
}
