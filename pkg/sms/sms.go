package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abisalde/marketplace-service/internal/configs"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	SendSMS(ctx context.Context, phone, body string) error
}

// GatewayClient posts form-encoded messages to an HTTP SMS gateway.
type GatewayClient struct {
	baseURL  string
	apiKey   string
	senderID string
	client   *http.Client
}

func NewGatewayClient(baseURL, apiKey, senderID string) *GatewayClient {
	return &GatewayClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		senderID: senderID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func NewSenderService(cfg *configs.Config) Sender {
	return NewGatewayClient(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.SenderID)
}

func (g *GatewayClient) SendSMS(ctx context.Context, phone, body string) error {
	form := url.Values{}
	form.Set("senderid", g.senderID)
	form.Set("msgType", "text")
	form.Set("msg", body)
	form.Set("mobile", phone)
	form.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if g.apiKey != "" {
		req.Header.Set("apikey", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

var _ Sender = (*GatewayClient)(nil)
