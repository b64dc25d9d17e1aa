// Package email sends transactional reservation emails through Postmark.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"courtbook/internal/model"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendNewReservationEmail confirms a freshly booked seat.
func (c *Client) SendNewReservationEmail(user model.AppUser, event model.Event) error {
	subject := fmt.Sprintf("Reservation confirmed: %s on %s", event.Title, event.Date)
	link := fmt.Sprintf("%s/reservations", c.baseURL)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nYour seat for %s on %s from %s to %s is booked.\n\nManage your reservations: %s\n",
		user.Name, event.Title, event.Date, event.StartTime, event.EndTime, link,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your seat for <strong>%s</strong> on %s from %s to %s is booked.</p><p><a href="%s">Manage your reservations</a></p>`,
		user.Name, event.Title, event.Date, event.StartTime, event.EndTime, link,
	)
	return c.send(user.Email, subject, htmlBody, textBody)
}

// SendReservationCancelledEmail confirms a cancellation and its refund.
func (c *Client) SendReservationCancelledEmail(user model.AppUser, event model.Event) error {
	subject := fmt.Sprintf("Reservation cancelled: %s on %s", event.Title, event.Date)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nYour reservation for %s on %s from %s to %s was cancelled and the charge refunded to your balance.\n",
		user.Name, event.Title, event.Date, event.StartTime, event.EndTime,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your reservation for <strong>%s</strong> on %s from %s to %s was cancelled and the charge refunded to your balance.</p>`,
		user.Name, event.Title, event.Date, event.StartTime, event.EndTime,
	)
	return c.send(user.Email, subject, htmlBody, textBody)
}

// send posts one message to Postmark, retrying server-side failures with
// capped exponential backoff. Client-side (4xx) failures are permanent.
func (c *Client) send(toEmail, subject, htmlBody, textBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Postmark-Server-Token", c.serverToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("send email: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("postmark API error: status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
		}
		return nil
	})
}
