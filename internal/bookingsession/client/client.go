// Package client talks to the public booking endpoints of a remote
// booking engine. It lets the session machine run next to a chat surface
// that is deployed apart from the intent service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"booking_engine/internal/bookingsession/session"
	"booking_engine/internal/intents/transport"
	"booking_engine/platform/apperr"
	"booking_engine/platform/httpkit"
	"booking_engine/platform/logger"
	"booking_engine/platform/urlsafe"
)

const (
	redirectExternal = "external"

	publicPath     = "/api/v1/public/booking"
	maxErrorBody   = 64 << 10
	defaultTimeout = 10 * time.Second
)

// Client implements session.BookingAPI over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

var _ session.BookingAPI = (*Client)(nil)

// New creates a client for the engine at baseURL. A zero timeout uses
// the default.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

func (c *Client) GetConfig(ctx context.Context, tenantID uuid.UUID, botID string) (session.Config, error) {
	var resp transport.ConfigResponse
	if err := c.do(ctx, http.MethodGet, c.botPath(tenantID, botID, "config"), nil, &resp); err != nil {
		return session.Config{}, err
	}

	services := make([]session.Service, 0, len(resp.Services))
	for _, s := range resp.Services {
		services = append(services, session.Service{
			ID:                s.ID,
			Name:              s.Name,
			AppointmentTypeID: s.AppointmentTypeID,
			PriceCents:        s.PriceCents,
			DurationMins:      s.DurationMins,
		})
	}
	return session.Config{
		Enabled:            resp.Enabled,
		DemoMode:           resp.DemoMode,
		ExternalBookingURL: resp.ExternalBookingURL,
		Services:           services,
	}, nil
}

func (c *Client) StartIntent(ctx context.Context, in session.StartIntentInput) (uuid.UUID, error) {
	body := transport.StartIntentRequest{
		ServiceID:    in.ServiceID,
		ServiceName:  in.ServiceName,
		PriceCents:   in.PriceCents,
		DurationMins: in.DurationMins,
		SessionID:    in.SessionID,
	}
	var resp transport.StartIntentResponse
	if err := c.do(ctx, http.MethodPost, c.botPath(in.TenantID, in.BotID, "intents"), body, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.IntentID, nil
}

func (c *Client) AttachLead(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID, contact session.Contact) (uuid.UUID, error) {
	body := transport.AttachLeadRequest{Name: contact.Name, Phone: contact.Phone, Email: contact.Email}
	var resp transport.AttachLeadResponse
	if err := c.do(ctx, http.MethodPost, c.intentPath(tenantID, botID, intentID, "lead"), body, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.LeadID, nil
}

func (c *Client) CommitClick(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) (session.Resolution, error) {
	var resp transport.CommitResponse
	if err := c.do(ctx, http.MethodPost, c.intentPath(tenantID, botID, intentID, "click"), nil, &resp); err != nil {
		return session.Resolution{}, err
	}
	// The remote side is trusted no further than a profile URL.
	if resp.RedirectType == redirectExternal && !urlsafe.IsValidExternalTarget(resp.URL) {
		c.log.WithContext(ctx).Warn("remote booking returned an unsafe redirect", "intentId", intentID)
		return session.Resolution{}, apperr.Internal("booking service returned an unsafe redirect").
			WithCode(session.CodeBookingProcessingFailed)
	}
	return session.Resolution{RedirectType: resp.RedirectType, URL: resp.URL, IsDemoMode: resp.IsDemoMode}, nil
}

func (c *Client) Abandon(ctx context.Context, tenantID uuid.UUID, botID string, intentID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, c.intentPath(tenantID, botID, intentID, "abandon"), nil, nil)
}

func (c *Client) botPath(tenantID uuid.UUID, botID, suffix string) string {
	return fmt.Sprintf("%s%s/%s/%s/%s", c.baseURL, publicPath, tenantID, url.PathEscape(botID), suffix)
}

func (c *Client) intentPath(tenantID uuid.UUID, botID string, intentID uuid.UUID, action string) string {
	return c.botPath(tenantID, botID, "intents/"+intentID.String()+"/"+action)
}

func (c *Client) do(ctx context.Context, method, reqURL string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		req.Header.Set(httpkit.HeaderRequestID, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}
		c.log.WithContext(ctx).Warn("booking request failed", "method", method, "url", reqURL, "error", err)
		return apperr.Wrap(apperr.KindUnavailable, "booking service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.decodeError(ctx, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "invalid booking service response", err)
	}
	return nil
}

// decodeError turns an error response into an apperr with the remote
// message and code.
func (c *Client) decodeError(ctx context.Context, resp *http.Response) error {
	var payload httpkit.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	message := payload.Error
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	kind := kindForStatus(resp.StatusCode)
	if kind == apperr.KindUnavailable {
		c.log.WithContext(ctx).Warn("booking service error", "status", resp.StatusCode, "message", message)
	}
	err := apperr.New(kind, message).WithDetails(payload.Details)
	if payload.Code != "" {
		err = err.WithCode(payload.Code)
	}
	return err
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.KindValidation
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindConflict
	case http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case http.StatusGone:
		return apperr.KindGone
	default:
		return apperr.KindUnavailable
	}
}
