// Package notify sends run reports and alerts to a Telegram chat.
//
// A nil *Client is valid: every method is then a no-op, so callers do not
// need to check whether Telegram is configured.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram caps captions at 1024 characters and messages at 4096.
const (
	maxCaption = 1024
	maxMessage = 4096
)

// Client is a minimal Telegram Bot API client.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client, or nil when token or chatID is empty.
func New(token, chatID string, opts ...Option) *Client {
	if token == "" || chatID == "" {
		zap.L().Info("telegram not configured, notifications disabled",
			zap.Bool("token_set", token != ""),
			zap.Bool("chat_set", chatID != ""),
		)
		return nil
	}
	c := &Client{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// do posts body to method and checks the "ok" flag of the reply.
func (c *Client) do(ctx context.Context, method, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), body)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error.
		return eris.Errorf("telegram %s: request failed", method)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}
	var result apiResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return eris.Wrapf(err, "telegram %s: parse response (status %d)", method, resp.StatusCode)
	}
	if !result.OK {
		return eris.Errorf("telegram %s: %d %s", method, result.ErrorCode, result.Description)
	}
	return nil
}

// SendMessage sends an HTML-formatted text message.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(message{
		ChatID:                c.chatID,
		Text:                  clip(text, maxMessage),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return eris.Wrap(err, "marshal message")
	}
	return c.do(ctx, "sendMessage", "application/json", bytes.NewReader(payload))
}

// SendPhoto uploads a PNG with an HTML caption.
func (c *Client) SendPhoto(ctx context.Context, png []byte, filename, caption string) error {
	if c == nil {
		return nil
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"chat_id":    c.chatID,
		"caption":    clip(caption, maxCaption),
		"parse_mode": "HTML",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return eris.Wrap(err, "write form field")
		}
	}
	part, err := w.CreateFormFile("photo", filename)
	if err != nil {
		return eris.Wrap(err, "create form file")
	}
	if _, err := part.Write(png); err != nil {
		return eris.Wrap(err, "write photo")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "close form")
	}
	return c.do(ctx, "sendPhoto", w.FormDataContentType(), &buf)
}

// RunReport is what SendRunSummary needs to know about a finished run.
type RunReport struct {
	RunID    string
	Summary  string // plain text, escaped before sending
	Appended int
	Image    []byte // optional PNG of the appended complaints
}

// SendRunSummary posts the run summary, as a photo caption when an image
// is attached.
func (c *Client) SendRunSummary(ctx context.Context, r RunReport) error {
	if c == nil {
		return nil
	}
	text := fmt.Sprintf("📋 <b>Complaint sync finished</b>\n<code>%s</code>\n\n%s",
		html.EscapeString(r.RunID), html.EscapeString(r.Summary))

	var err error
	if len(r.Image) > 0 && r.Appended > 0 {
		err = c.SendPhoto(ctx, r.Image, "complaints.png", text)
	} else {
		err = c.SendMessage(ctx, text)
	}
	if err != nil {
		return eris.Wrap(err, "send run summary")
	}
	c.log.Info("run summary sent to telegram", zap.String("run_id", r.RunID))
	return nil
}

// SendCriticalAlert reports a failure that aborted the run.
func (c *Client) SendCriticalAlert(ctx context.Context, errorType string, cause error) error {
	if c == nil {
		return nil
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	text := fmt.Sprintf(
		"🚨 <b>CRITICAL ALERT - COMPLAINT SYNC</b>\n\n"+
			"<b>Error Type:</b> %s\n"+
			"<b>Error Message:</b> %s\n"+
			"<b>Timestamp:</b> %s\n\n"+
			"⚠️ <b>Action Required:</b> Please check the service immediately.",
		html.EscapeString(errorType),
		html.EscapeString(msg),
		time.Now().Format("2006-01-02 15:04:05"),
	)
	if err := c.SendMessage(ctx, text); err != nil {
		return eris.Wrap(err, "send critical alert")
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
