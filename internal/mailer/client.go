package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Message is one rendered email handed to the provider.
type Message struct {
	To      []string
	CC      []string
	Subject string
	HTML    string
	Text    string
}

// Client sends email through a Resend-compatible HTTPS provider.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	provider   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey, from, provider string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		from:     from,
		provider: provider,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Provider returns the provider name recorded with each history row.
func (c *Client) Provider() string {
	return c.provider
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send posts the message to the provider and returns its message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      msg.To,
		CC:      msg.CC,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call email provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	var sr sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", err
	}

	c.logger.Info("Email accepted by provider",
		zap.Strings("to", msg.To),
		zap.String("message_id", sr.ID),
	)
	return sr.ID, nil
}
