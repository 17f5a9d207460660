package target

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dialsched/internal/models"
	"golang.org/x/time/rate"
)

// DialerClient implements ActivationPort against the dialer core's HTTP API.
// Calls are rate-limited so a tick with many due occurrences cannot hammer
// the dialer, and bounded by the caller's context.
type DialerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewDialerClient(baseURL, apiKey string, callsPerSecond float64) *DialerClient {
	if callsPerSecond <= 0 {
		callsPerSecond = 5
	}
	return &DialerClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
	}
}

func (c *DialerClient) Activate(ctx context.Context, scheduleType models.ScheduleType, targetID string) error {
	return c.post(ctx, scheduleType, targetID, "activate")
}

func (c *DialerClient) Deactivate(ctx context.Context, scheduleType models.ScheduleType, targetID string) error {
	return c.post(ctx, scheduleType, targetID, "deactivate")
}

func (c *DialerClient) post(ctx context.Context, scheduleType models.ScheduleType, targetID, verb string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/%s/%s/%s", c.baseURL, resource(scheduleType), targetID, verb)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call dialer core: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("dialer core returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func resource(scheduleType models.ScheduleType) string {
	if scheduleType == models.ScheduleTypeList {
		return "lists"
	}
	return "campaigns"
}
