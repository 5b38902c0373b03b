package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mt5-risk-sync-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// StatusError is returned when the bridge responds with a non-2xx status.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bridge returned status %d for %s", e.StatusCode, e.Endpoint)
}

// Service is a read-only client for the MT5 bridge HTTP API. It never
// mutates platform state.
type Service struct {
	client  http.Client
	baseURL string
	apiKey  string
}

func NewService(cfg models.BridgeConfig) (*Service, error) {
	httpClient, err := createCustomHttpClient(cfg.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Service{
		client:  httpClient,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			DualStack: true,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// OpenPositions fetches the current snapshot of open positions for a group.
func (s *Service) OpenPositions(ctx context.Context, group string) ([]models.BridgeTrade, error) {
	query := url.Values{}
	query.Set("group", group)

	trades, err := s.fetchTrades(ctx, "/api/positions/open", query)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch open positions: %w", err)
	}

	zap.L().Debug("Fetched open positions",
		zap.String("group", group),
		zap.Int("count", len(trades)))

	return trades, nil
}

// ClosedHistory fetches closed trades for a group within the unix-second
// window [from, to].
func (s *Service) ClosedHistory(ctx context.Context, group string, from, to int64) ([]models.BridgeTrade, error) {
	query := url.Values{}
	query.Set("group", group)
	query.Set("from", strconv.FormatInt(from, 10))
	query.Set("to", strconv.FormatInt(to, 10))

	trades, err := s.fetchTrades(ctx, "/api/trades/history", query)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch closed history: %w", err)
	}

	zap.L().Debug("Fetched closed history",
		zap.String("group", group),
		zap.Int64("from", from),
		zap.Int64("to", to),
		zap.Int("count", len(trades)))

	return trades, nil
}

func (s *Service) fetchTrades(ctx context.Context, endpoint string, query url.Values) ([]models.BridgeTrade, error) {
	requestURL := s.baseURL + endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	var trades []models.BridgeTrade
	if err := json.NewDecoder(resp.Body).Decode(&trades); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	return trades, nil
}
