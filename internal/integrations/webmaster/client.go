package webmaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL     = "https://api.webmaster.yandex.net/v4"
	DefaultMaxAttempts = 3
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "wordstat-api/1.0"

	defaultRetryAfter = time.Second
	maxBodySize       = 32 << 20
	maxErrorBody      = 300
)

// Options параметры клиента
type Options struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	MaxAttempts int
	UserAgent   string
	Logger      Logger
	Observer    Observer
	// Sleep пауза между попытками; по умолчанию прерывается отменой контекста
	Sleep func(ctx context.Context, d time.Duration) error
	// HTTPClient переопределяет http.Client (Timeout из Options тогда не применяется)
	HTTPClient *http.Client
}

// Response сырой ответ API
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client клиент Yandex Webmaster API с повторами и обработкой 429
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	maxAttempts int
	userAgent   string
	sleep       func(ctx context.Context, d time.Duration) error
	logger      Logger
	observer    Observer
}

// NewClient создаёт клиент; незаданные опции получают значения по умолчанию
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		token:       opts.Token,
		httpClient:  opts.HTTPClient,
		maxAttempts: opts.MaxAttempts,
		userAgent:   opts.UserAgent,
		sleep:       opts.Sleep,
		logger:      opts.Logger,
		observer:    opts.Observer,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}

	return c
}

// Send выполняет запрос с повторами
//
// 429: пауза ровно Retry-After секунд (1 с по умолчанию), шаг экспоненты не растёт.
// Сеть и 5xx: пауза 2^n секунд, где n номер такой ошибки начиная с 0.
// Остальные 4xx возвращаются сразу как FatalError.
func (c *Client) Send(ctx context.Context, method, path string, params url.Values) (*Response, error) {
	if strings.TrimSpace(c.token) == "" {
		return nil, &FatalError{Err: ErrUnauthorized, Message: "access token is empty"}
	}

	var lastErr error
	backoffStep := 0

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		resp, err := c.do(ctx, method, path, params)
		if err == nil {
			return resp, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ctxErr, err)
		}

		lastErr = err
		if attempt == c.maxAttempts-1 {
			break
		}

		wait, reason := transient.RetryAfter, "rate_limited"
		if transient.StatusCode != http.StatusTooManyRequests {
			wait, reason = time.Duration(1<<backoffStep)*time.Second, "transient"
			backoffStep++
		}

		c.logger.Warn("Webmaster %s %s failed (attempt %d/%d): %v, retrying in %s",
			method, path, attempt+1, c.maxAttempts, err, wait)
		c.observer.ObserveRetry(reason)

		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: %v", err, lastErr)
		}
	}

	return nil, lastErr
}

// Get выполняет GET и разбирает JSON-ответ в out
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.Send(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrInvalidResponse, path, err)
	}

	return nil
}

// do выполняет одну попытку и классифицирует результат
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*Response, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &FatalError{Err: ErrBuildRequest, Message: err.Error()}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveRequest(method, 0, "network", time.Since(start))
		return nil, &TransientError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.observer.ObserveRequest(method, resp.StatusCode, "network", time.Since(start))
		return nil, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}

	status := resp.StatusCode
	c.logger.Debug("Webmaster %s %s -> %d (%d bytes)", method, path, status, len(body))

	switch {
	case status >= 200 && status < 300:
		c.observer.ObserveRequest(method, status, "ok", time.Since(start))
		return &Response{StatusCode: status, Header: resp.Header, Body: body}, nil

	case status == http.StatusTooManyRequests:
		c.observer.ObserveRequest(method, status, "rate_limited", time.Since(start))
		return nil, &TransientError{
			StatusCode: status,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        ErrRateLimited,
		}

	case status >= 500:
		c.observer.ObserveRequest(method, status, "server_error", time.Since(start))
		return nil, &TransientError{StatusCode: status, Err: fmt.Errorf("%w: %s", ErrServer, truncate(string(body), maxErrorBody))}

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.observer.ObserveRequest(method, status, "unauthorized", time.Since(start))
		code, msg := parseAPIError(body)
		return nil, &FatalError{StatusCode: status, Code: code, Message: msg, Err: ErrUnauthorized}

	default:
		c.observer.ObserveRequest(method, status, "rejected", time.Since(start))
		code, msg := parseAPIError(body)
		return nil, &FatalError{StatusCode: status, Code: code, Message: msg, Err: ErrRequestRejected}
	}
}

// parseRetryAfter читает Retry-After в секундах; пустое или нечисловое значение даёт 1 с
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// parseAPIError достаёт error_code и error_message из тела ошибки API
func parseAPIError(body []byte) (string, string) {
	var apiErr struct {
		Code    string `json:"error_code"`
		Message string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
		return "", truncate(strings.TrimSpace(string(body)), maxErrorBody)
	}
	return apiErr.Code, apiErr.Message
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
