// Package push delivers outbound payloads to the central service: live
// location updates and "help is underway" notifications. Location delivery
// walks a fallback chain (API, fresh-transport retry, webhook) because the
// central API has a history of dropping connections mid-incident; the
// notification webhook is a single best-effort POST.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/moxalise/aidmap/internal/observability"
)

const defaultTimeout = 10 * time.Second

// LocationPayload is the wire shape of a location update.
type LocationPayload struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Accuracy         float64 `json:"accuracy"`
	Altitude         float64 `json:"altitude"`
	AltitudeAccuracy float64 `json:"altitude_accuracy"`
	Heading          float64 `json:"heading"`
	Speed            float64 `json:"speed"`
	PhoneNumber      string  `json:"phone_number"`
	Message          string  `json:"message"`
	UserAgent        string  `json:"user_agent"`
	IPHash           string  `json:"ip_hash"`
}

// Notification is the wire shape of a help-is-underway message.
type Notification struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Phone    string `json:"phone"`
}

// Client posts to the central location API with the webhook as the final
// fallback.
type Client struct {
	locationURL string
	webhookURL  string
	client      *http.Client
	timeout     time.Duration
	log         *slog.Logger
	metrics     *observability.Metrics
}

func NewClient(locationURL, webhookURL string, log *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		locationURL: locationURL,
		webhookURL:  webhookURL,
		client:      &http.Client{Timeout: defaultTimeout},
		timeout:     defaultTimeout,
		log:         log,
		metrics:     metrics,
	}
}

// SendLocation delivers a location update. The primary POST is retried once
// on a fresh transport, then the webhook takes the same payload; the error
// returns only when every leg fails.
func (c *Client) SendLocation(ctx context.Context, payload LocationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode location payload: %w", err)
	}

	if err := postJSON(ctx, c.client, c.locationURL, body); err == nil {
		c.metrics.PushesSent.WithLabelValues("location").Inc()
		return nil
	} else {
		c.log.Warn("location api failed, retrying on fresh transport", "error", err)
	}
	c.metrics.PushFallbacks.WithLabelValues("location_retry").Inc()

	if err := postJSON(ctx, freshHTTPClient(c.timeout), c.locationURL, body); err == nil {
		c.metrics.PushesSent.WithLabelValues("location").Inc()
		return nil
	} else {
		c.log.Warn("location api retry failed, falling back to webhook", "error", err)
	}
	c.metrics.PushFallbacks.WithLabelValues("webhook").Inc()

	if err := postJSON(ctx, freshHTTPClient(c.timeout), c.webhookURL, body); err != nil {
		return fmt.Errorf("send location: all transports failed: %w", err)
	}
	c.metrics.PushesSent.WithLabelValues("location").Inc()
	return nil
}

// SendNotification posts to the webhook. Any 200 or 201 counts as accepted
// regardless of the response body.
func (c *Client) SendNotification(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := postJSON(ctx, c.client, c.webhookURL, body); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	c.metrics.PushesSent.WithLabelValues("notification").Inc()
	c.log.Info("notification delivered", "record_id", n.ID)
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("post %s: status %d", url, resp.StatusCode)
	}
	return nil
}

func freshHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}
