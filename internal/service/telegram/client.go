package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/open-builders/secret-santa-bot/internal/domain/delivery"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	requestTimeout = 10 * time.Second
)

// Client is a minimal Telegram Bot API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		// per-request deadlines come from the context
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		token:      token,
		logger:     log.Logger.With().Str("component", "telegram").Logger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type tgResponse struct {
	Ok          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  *respParameters `json:"parameters,omitempty"`
	Result      json.RawMessage `json:"result"`
}

type respParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// SendMessage sends a plain-text direct message. Failures are returned as
// *delivery.SendError.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if err := c.call(ctx, "sendMessage", params, requestTimeout, nil); err != nil {
		return err
	}
	c.logger.Debug().Int64("chat_id", chatID).Msg("Message sent")
	return nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(timeout)},
		"allowed_updates": {`["message","edited_message","callback_query"]`},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, time.Duration(timeout)*time.Second+requestTimeout, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// AnswerCallbackQuery acknowledges a button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id, text string) error {
	params := url.Values{"callback_query_id": {id}}
	if text != "" {
		params.Set("text", text)
	}
	return c.call(ctx, "answerCallbackQuery", params, requestTimeout, nil)
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", nil, requestTimeout, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SetMyCommands publishes the command list shown in Telegram clients.
func (c *Client) SetMyCommands(ctx context.Context, cmds []BotCommand) error {
	b, err := json.Marshal(cmds)
	if err != nil {
		return err
	}
	return c.call(ctx, "setMyCommands", url.Values{"commands": {string(b)}}, requestTimeout, nil)
}

func (c *Client) call(ctx context.Context, method string, params url.Values, timeout time.Duration, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return &delivery.SendError{Kind: delivery.KindUnexpected, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, method, err)
	}
	defer resp.Body.Close()

	var r tgResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		if ctx.Err() == nil && reqCtx.Err() != nil {
			return &delivery.SendError{Kind: delivery.KindTransient, Code: resp.StatusCode, Description: method + " timed out", Err: err}
		}
		return &delivery.SendError{Kind: delivery.KindUnexpected, Code: resp.StatusCode, Description: "undecodable " + method + " response", Err: err}
	}
	if !r.Ok {
		return classifyAPIError(r)
	}
	if out != nil && len(r.Result) > 0 {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return &delivery.SendError{Kind: delivery.KindUnexpected, Description: "undecodable " + method + " result", Err: err}
		}
	}
	return nil
}

// classifyAPIError maps a Bot API error reply onto the delivery kinds:
// 429 carries a mandatory wait, 403 means the user blocked the bot or the
// chat is gone, 400 is treated as transient.
func classifyAPIError(r tgResponse) *delivery.SendError {
	se := &delivery.SendError{Code: r.ErrorCode, Description: r.Description}
	switch r.ErrorCode {
	case http.StatusTooManyRequests:
		se.Kind = delivery.KindRateLimited
		wait := 1
		if r.Parameters != nil && r.Parameters.RetryAfter > 0 {
			wait = r.Parameters.RetryAfter
		}
		se.RetryAfter = time.Duration(wait) * time.Second
	case http.StatusForbidden:
		se.Kind = delivery.KindBlocked
	case http.StatusBadRequest:
		se.Kind = delivery.KindTransient
	default:
		se.Kind = delivery.KindUnexpected
	}
	return se
}

func classifyTransportError(parent context.Context, method string, err error) *delivery.SendError {
	if parent.Err() != nil {
		return &delivery.SendError{Kind: delivery.KindUnexpected, Description: method + " canceled", Err: err}
	}
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return &delivery.SendError{Kind: delivery.KindTransient, Description: method + " timed out", Err: err}
	}
	return &delivery.SendError{Kind: delivery.KindUnexpected, Description: method + " failed", Err: err}
}
