package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/notification-worker/internal/app/notification/entity"
)

// SendGridClient отправляет письма через SendGrid v3 Mail Send API
type SendGridClient struct {
	baseURL string
	apiKey  string
	sender  string
	client  *http.Client
}

func NewSendGridClient(baseURL, apiKey, sender string, timeout time.Duration) *SendGridClient {
	return &SendGridClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		sender:  sender,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To                  []address              `json:"to"`
	DynamicTemplateData map[string]interface{} `json:"dynamic_template_data,omitempty"`
}

type mailSendRequest struct {
	From             address           `json:"from"`
	Subject          string            `json:"subject,omitempty"`
	Personalizations []personalization `json:"personalizations"`
	TemplateID       string            `json:"template_id"`
}

// Send отправляет одно письмо; провайдер отвечает 202 Accepted
func (c *SendGridClient) Send(ctx context.Context, mail entity.Email) error {
	body, err := json.Marshal(mailSendRequest{
		From:    address{Email: c.sender},
		Subject: mail.Subject,
		Personalizations: []personalization{{
			To:                  []address{{Email: mail.To}},
			DynamicTemplateData: mail.TemplateData,
		}},
		TemplateID: mail.TemplateID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
