// Package transport sends outbound messages through the WhatsApp provider.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sehatlabs/sehat/internal/config"
)

// Messenger delivers outbound messages to a phone number.
type Messenger interface {
	// SendMessage delivers a plain text message.
	SendMessage(ctx context.Context, phoneNumber, text string) error

	// SendMessageWithMedia delivers a text message with an attached
	// media URL.
	SendMessageWithMedia(ctx context.Context, phoneNumber, text, mediaURL string) error
}

// WhatsAppClient is a Messenger backed by the provider's REST API.
type WhatsAppClient struct {
	apiURL string
	token  string
	client *http.Client
}

// NewWhatsAppClient creates a provider client from configuration.
func NewWhatsAppClient(cfg config.WhatsAppConfig) *WhatsAppClient {
	return &WhatsAppClient{
		apiURL: cfg.APIURL,
		token:  cfg.APIToken,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	MediaURL string `json:"media_url,omitempty"`
}

// SendMessage delivers a plain text message.
func (c *WhatsAppClient) SendMessage(ctx context.Context, phoneNumber, text string) error {
	return c.send(ctx, sendRequest{To: phoneNumber, Body: text})
}

// SendMessageWithMedia delivers a text message with an attached media URL.
func (c *WhatsAppClient) SendMessageWithMedia(ctx context.Context, phoneNumber, text, mediaURL string) error {
	return c.send(ctx, sendRequest{To: phoneNumber, Body: text, MediaURL: mediaURL})
}

func (c *WhatsAppClient) send(ctx context.Context, payload sendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", payload.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
