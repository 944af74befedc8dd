package webmaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// GetUserInfo возвращает идентификатор пользователя, которому принадлежит токен
func (c *Client) GetUserInfo(ctx context.Context) (*domain.UserInfo, error) {
	var payload map[string]any
	if err := c.getNumbers(ctx, UserPath(), &payload); err != nil {
		return nil, err
	}

	userID := firstString(payload, "user_id", "id")
	if userID == "" {
		return nil, fmt.Errorf("%w: GetUserInfo - user_id is missing", ErrInvalidResponse)
	}

	return &domain.UserInfo{UserID: userID}, nil
}

// ListHosts возвращает сайты пользователя
func (c *Client) ListHosts(ctx context.Context, userID string) ([]domain.Host, error) {
	var payload struct {
		Hosts []map[string]any `json:"hosts"`
	}
	if err := c.getNumbers(ctx, HostsPath(userID), &payload); err != nil {
		return nil, err
	}

	hosts := make([]domain.Host, 0, len(payload.Hosts))
	for _, raw := range payload.Hosts {
		host := parseHost(raw)
		if host.HostID == "" {
			continue
		}
		hosts = append(hosts, host)
	}

	return hosts, nil
}

// GetHost возвращает информацию об одном сайте
func (c *Client) GetHost(ctx context.Context, userID, hostID string) (*domain.Host, error) {
	var payload map[string]any
	if err := c.getNumbers(ctx, HostPath(userID, hostID), &payload); err != nil {
		return nil, err
	}

	host := parseHost(payload)
	if host.HostID == "" {
		host.HostID = hostID
	}

	return &host, nil
}

// GetHostSummary возвращает сводку по сайту (ИКС, страницы в поиске, проблемы)
func (c *Client) GetHostSummary(ctx context.Context, userID, hostID string) (*domain.HostSummary, error) {
	var summary domain.HostSummary
	if err := c.Get(ctx, SummaryPath(userID, hostID), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// getNumbers как Get, но числа разбираются в json.Number без потери точности
func (c *Client) getNumbers(ctx context.Context, path string, out any) error {
	resp, err := c.Send(ctx, "GET", path, nil)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrInvalidResponse, path, err)
	}

	return nil
}

func parseHost(raw map[string]any) domain.Host {
	host := domain.Host{
		HostID: firstString(raw, "host_id", "id"),
		URL:    firstString(raw, "ascii_host_url", "unicode_host_url", "url"),
		Raw:    raw,
	}

	if v, ok := raw["verified"].(bool); ok {
		host.Verified = v
	}
	if v, ok := raw["host_data_status"].(string); ok {
		host.VerificationState = v
	}
	if mirror, ok := raw["main_mirror"].(map[string]any); ok {
		host.MainMirror = firstString(mirror, "ascii_host_url", "unicode_host_url", "host_id")
	}

	return host
}

// firstString возвращает первое непустое значение по ключам, приводя числа к строке
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
