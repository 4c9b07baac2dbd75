// Package messaging holds the outbound gateways. Every send is best
// effort: callers log failures and move on, nothing rolls back.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WhatsAppSender delivers a text message to a phone number.
type WhatsAppSender interface {
	SendText(ctx context.Context, phone, message string) error
}

// EmailSender delivers a plain-text email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

const requestTimeout = 10 * time.Second

type whatsappClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewWhatsAppClient builds the gateway client. An empty base URL
// returns nil; callers treat a nil sender as disabled.
func NewWhatsAppClient(baseURL, token string) WhatsAppSender {
	if baseURL == "" {
		return nil
	}
	return &whatsappClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *whatsappClient) SendText(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode)
	}
	return nil
}

type emailClient struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

// NewEmailClient builds the email gateway client. An empty base URL
// returns nil; callers treat a nil sender as disabled.
func NewEmailClient(baseURL, apiKey, from string) EmailSender {
	if baseURL == "" {
		return nil
	}
	return &emailClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *emailClient) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"from":    c.from,
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email gateway returned %d", resp.StatusCode)
	}
	return nil
}
