// Package telegram is a minimal Bot API client covering the methods this
// bot uses. Requests are plain JSON POSTs; there is no long polling, the
// server receives updates over a webhook.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ebisa/bunamatch/internal/config"
)

// Client calls the Telegram Bot API.
type Client struct {
	base  string
	token string
	http  *http.Client
	log   *slog.Logger
}

// NewClient creates a Bot API client from config.
func NewClient(cfg *config.Config, log *slog.Logger) *Client {
	return &Client{
		base:  cfg.Telegram.APIBase,
		token: cfg.Telegram.BotToken,
		http:  &http.Client{Timeout: 10 * time.Second},
		log:   log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
}

// call POSTs one Bot API method. Non-2xx with a parseable body is
// reported through the API's own description for easier debugging.
func (c *Client) call(ctx context.Context, method string, params any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.base, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("bot api call", "method", method)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%s: status %d, unparseable response", method, resp.StatusCode)
	}
	if !parsed.OK {
		return fmt.Errorf("%s: api error %d: %s", method, parsed.ErrorCode, parsed.Description)
	}
	return nil
}

type sendMessageParams struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ParseMode   string `json:"parse_mode,omitempty"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

// SendMessage delivers text to a chat. markup may be nil, a
// ReplyKeyboardMarkup, ReplyKeyboardRemove, or InlineKeyboardMarkup.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup any) error {
	return c.call(ctx, "sendMessage", sendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing the progress spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": queryID,
	})
}

// AnswerPreCheckoutQuery approves or rejects a payment about to settle.
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage string) error {
	params := map[string]any{
		"pre_checkout_query_id": queryID,
		"ok":                    ok,
	}
	if !ok {
		params["error_message"] = errorMessage
	}
	return c.call(ctx, "answerPreCheckoutQuery", params)
}

type sendInvoiceParams struct {
	ChatID        int64          `json:"chat_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Payload       string         `json:"payload"`
	ProviderToken string         `json:"provider_token"`
	Currency      string         `json:"currency"`
	Prices        []LabeledPrice `json:"prices"`
}

// SendInvoice issues a Stars invoice. Stars payments use an empty
// provider token.
func (c *Client) SendInvoice(ctx context.Context, chatID int64, title, description, payload, currency string, prices []LabeledPrice) error {
	return c.call(ctx, "sendInvoice", sendInvoiceParams{
		ChatID:      chatID,
		Title:       title,
		Description: description,
		Payload:     payload,
		Currency:    currency,
		Prices:      prices,
	})
}
