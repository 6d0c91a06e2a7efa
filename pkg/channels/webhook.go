package channels

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// UserAgent is sent with every outbound HTTP request.
const UserAgent = "SafetyRing/1.0"

// SMSGateway posts messages to an HTTP SMS gateway.
type SMSGateway struct {
	url    string
	secret string
	client *http.Client
}

// NewSMSGateway creates an SMS gateway composer.
// If secret is non-empty, requests are signed with HMAC-SHA256.
func NewSMSGateway(url, secret string) *SMSGateway {
	return &SMSGateway{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (g *SMSGateway) Name() string { return "sms-gateway" }

func (g *SMSGateway) CanSend() bool { return g.url != "" }

func (g *SMSGateway) Send(ctx context.Context, handle, body string) error {
	if !g.CanSend() {
		return ErrNotConfigured
	}

	payload := gatewayPayload{
		Event:     "emergency_alert",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		To:        handle,
		Body:      body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	if g.secret != "" {
		sig := computeHMAC(data, []byte(g.secret))
		req.Header.Set("X-Signature-256", "sha256="+sig)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}

type gatewayPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
