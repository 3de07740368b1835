package crmapi

import (
	"bytes"
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

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/session"
	"github.com/xavierca1/leadflow/internal/usecase"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrUnauthenticated = errors.New("not authenticated")

// APIError is a non-2xx answer from the CRM backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("crm api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("crm api: status %d: %s", e.StatusCode, body)
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Session    *session.Session
	Logger     *zap.Logger

	refresh singleflight.Group
}

func NewClient(baseURL string, sess *session.Session, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Session:    sess,
		Logger:     logger,
	}
}

func (c *Client) ListLeads(ctx context.Context, params usecase.ListLeadsParams) ([]entity.Lead, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	path := "/leads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeLeads(body), nil
}

func (c *Client) UpdateLead(ctx context.Context, id string, patch entity.LeadPatch) (*entity.Lead, error) {
	body, err := c.do(ctx, http.MethodPatch, "/leads/"+url.PathEscape(id), patch)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var dto leadDTO
	if err := json.Unmarshal(body, &dto); err != nil || dto.ID == "" {
		c.Logger.Debug("update response carried no lead", zap.String("lead_id", id))
		return nil, nil
	}
	lead := dto.toEntity()
	return &lead, nil
}

func (c *Client) AddNote(ctx context.Context, id string, note entity.NoteInput) error {
	_, err := c.do(ctx, http.MethodPost, "/leads/"+url.PathEscape(id)+"/notes", note)
	return err
}

func (c *Client) DeleteLead(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/leads/"+url.PathEscape(id), nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", entity.ErrLeadNotFound, id)
	}
	return err
}

// do sends one request with the session's bearer token. A 401 triggers a
// single token refresh and one retry.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var raw []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		raw = b
	}

	token := c.Session.AccessToken()
	if token == "" {
		return nil, ErrUnauthenticated
	}

	status, body, err := c.send(ctx, method, path, raw, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		token, err = c.renew(ctx, token)
		if err != nil {
			return nil, err
		}
		status, body, err = c.send(ctx, method, path, raw, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			c.signOut(ctx)
			return nil, ErrUnauthenticated
		}
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, path string, raw []byte, token string) (int, []byte, error) {
	var rd io.Reader
	if raw != nil {
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// decodeLeads accepts a bare array or an object wrapping one under leads,
// data or items. Any other shape yields an empty list.
func (c *Client) decodeLeads(body []byte) []entity.Lead {
	trimmed := bytes.TrimSpace(body)
	var items []leadDTO

	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			c.Logger.Warn("lead list is malformed", zap.Error(err))
			return []entity.Lead{}
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			c.Logger.Warn("lead list envelope is malformed", zap.Error(err))
			return []entity.Lead{}
		}
		found := false
		for _, key := range []string{"leads", "data", "items"} {
			v, ok := envelope[key]
			if !ok || !bytes.HasPrefix(bytes.TrimSpace(v), []byte("[")) {
				continue
			}
			if err := json.Unmarshal(v, &items); err != nil {
				c.Logger.Warn("lead list is malformed", zap.String("key", key), zap.Error(err))
				return []entity.Lead{}
			}
			found = true
			break
		}
		if !found {
			c.Logger.Warn("lead list response carries no array")
			return []entity.Lead{}
		}
	default:
		c.Logger.Warn("lead list response is not a collection")
		return []entity.Lead{}
	}

	leads := make([]entity.Lead, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			c.Logger.Warn("dropping lead without id", zap.String("name", it.Name))
			continue
		}
		leads = append(leads, it.toEntity())
	}
	return leads
}
