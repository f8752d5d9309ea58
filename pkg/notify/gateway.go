package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GatewaySender posts SMS and push payloads to external provider gateways.
// An empty gateway URL means the channel is not configured; sends to it
// fail so the router can log and move on.
type GatewaySender struct {
	smsURL  string
	pushURL string
	client  *http.Client
}

func NewGatewaySender(smsURL, pushURL string) *GatewaySender {
	return &GatewaySender{
		smsURL:  smsURL,
		pushURL: pushURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (g *GatewaySender) SendSMS(to, message string) error {
	if g.smsURL == "" {
		return fmt.Errorf("sms gateway not configured")
	}
	return g.post(g.smsURL, map[string]string{
		"to":      to,
		"message": message,
	})
}

func (g *GatewaySender) SendPush(token, title, body string) error {
	if g.pushURL == "" {
		return fmt.Errorf("push gateway not configured")
	}
	return g.post(g.pushURL, map[string]string{
		"token": token,
		"title": title,
		"body":  body,
	})
}

func (g *GatewaySender) post(url string, payload map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := g.client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
