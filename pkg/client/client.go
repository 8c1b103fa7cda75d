package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/aide/internal/authz"
	"github.com/naveenspark/aide/pkg/domain"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 30 * time.Second

// Client is the assistant backend API client. Authorization is not handled
// here: the transport (see internal/authz) attaches the bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the round tripper, normally the authz pipeline.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// --- Auth ---

// Login exchanges credentials for a token and user.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.post(authz.Exempt(ctx), "/api/auth/login", creds, &out); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &out, nil
}

// Register creates an account and returns an active session.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.post(authz.Exempt(ctx), "/api/auth/register", reg, &out); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &out, nil
}

// Me returns the user the stored token belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/api/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// Logout notifies the backend. Callers treat failures as best-effort.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(authz.Exempt(ctx), http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// ForgotPassword requests a reset link for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var msg domain.Message
	if err := c.post(authz.Exempt(ctx), "/api/auth/forgot-password", map[string]string{"email": email}, &msg); err != nil {
		return "", fmt.Errorf("client.ForgotPassword: %w", err)
	}
	return msg.Message, nil
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var msg domain.Message
	body := domain.PasswordReset{Token: token, NewPassword: newPassword}
	if err := c.post(authz.Exempt(ctx), "/api/auth/reset-password", body, &msg); err != nil {
		return "", fmt.Errorf("client.ResetPassword: %w", err)
	}
	return msg.Message, nil
}

// VerifyEmail confirms an address with the token from the verification mail.
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var msg domain.Message
	path := "/api/auth/verify-email?" + url.Values{"token": {token}}.Encode()
	if err := c.post(authz.Exempt(ctx), path, nil, &msg); err != nil {
		return "", fmt.Errorf("client.VerifyEmail: %w", err)
	}
	return msg.Message, nil
}

// OAuthLoginURL asks the backend for the provider consent URL.
// redirectURI, when set, is where the provider flow lands with ?token= or ?error=.
func (c *Client) OAuthLoginURL(ctx context.Context, provider, redirectURI string) (string, error) {
	switch provider {
	case "google", "microsoft":
	default:
		return "", fmt.Errorf("client.OAuthLoginURL: unsupported provider %q", provider)
	}
	path := "/api/auth/" + provider + "/login"
	if redirectURI != "" {
		path += "?" + url.Values{"redirect_uri": {redirectURI}}.Encode()
	}
	var out domain.OAuthLogin
	if err := c.get(ctx, path, &out); err != nil {
		return "", fmt.Errorf("client.OAuthLoginURL: %w", err)
	}
	if out.AuthURL == "" {
		return "", fmt.Errorf("client.OAuthLoginURL: empty auth_url")
	}
	return out.AuthURL, nil
}

// --- Emails ---

// EmailFilter narrows ListEmails.
type EmailFilter struct {
	Status     string
	Priority   string
	UnreadOnly bool
	Page       int
	Limit      int
}

// ListEmails fetches a page of emails.
func (c *Client) ListEmails(ctx context.Context, f EmailFilter) (*domain.EmailList, error) {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.Priority != "" {
		params.Set("priority", f.Priority)
	}
	if f.UnreadOnly {
		params.Set("unread_only", "true")
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}

	var list domain.EmailList
	if err := c.get(ctx, "/api/emails/?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("client.ListEmails: %w", err)
	}
	return &list, nil
}

// GetEmail fetches a single email.
func (c *Client) GetEmail(ctx context.Context, id string) (*domain.Email, error) {
	var e domain.Email
	if err := c.get(ctx, "/api/emails/"+url.PathEscape(id), &e); err != nil {
		return nil, fmt.Errorf("client.GetEmail: %w", err)
	}
	return &e, nil
}

// UpdateEmailStatus marks an email read, unread or archived.
func (c *Client) UpdateEmailStatus(ctx context.Context, id, status string) error {
	path := "/api/emails/" + url.PathEscape(id) + "/status?" + url.Values{"status": {status}}.Encode()
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, nil); err != nil {
		return fmt.Errorf("client.UpdateEmailStatus: %w", err)
	}
	return nil
}

// UpdateEmailPriority overrides the AI-assigned priority.
func (c *Client) UpdateEmailPriority(ctx context.Context, id, priority string) error {
	path := "/api/emails/" + url.PathEscape(id) + "/priority?" + url.Values{"priority": {priority}}.Encode()
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, nil); err != nil {
		return fmt.Errorf("client.UpdateEmailPriority: %w", err)
	}
	return nil
}

// GenerateDraft asks the backend to write a reply to an email. It costs
// credits; the backend answers 402 when the balance is short.
func (c *Client) GenerateDraft(ctx context.Context, req domain.DraftRequest) (*domain.Draft, error) {
	if req.OriginalEmailID == "" {
		return nil, fmt.Errorf("client.GenerateDraft: %w", domain.ErrMissingField)
	}
	var d domain.Draft
	path := "/api/emails/" + url.PathEscape(req.OriginalEmailID) + "/generate-draft"
	if err := c.post(ctx, path, req, &d); err != nil {
		return nil, fmt.Errorf("client.GenerateDraft: %w", err)
	}
	return &d, nil
}

// ListDrafts fetches unsent drafts, newest first.
func (c *Client) ListDrafts(ctx context.Context, page, limit int) ([]domain.Draft, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.Draft
	if err := c.get(ctx, "/api/emails/drafts/?"+params.Encode(), &out); err != nil {
		return nil, fmt.Errorf("client.ListDrafts: %w", err)
	}
	return out, nil
}

// SendDraft sends a draft through the linked provider.
func (c *Client) SendDraft(ctx context.Context, id string) (*domain.SentDraft, error) {
	var out domain.SentDraft
	if err := c.post(ctx, "/api/emails/drafts/"+url.PathEscape(id)+"/send", nil, &out); err != nil {
		return nil, fmt.Errorf("client.SendDraft: %w", err)
	}
	return &out, nil
}

func (c *Client) DeleteDraft(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/emails/drafts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteDraft: %w", err)
	}
	return nil
}

// --- Calendar ---

// ListEvents fetches events between start and end (zero values are omitted).
func (c *Client) ListEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	params := url.Values{}
	if !start.IsZero() {
		params.Set("start_date", start.Format(time.RFC3339))
	}
	if !end.IsZero() {
		params.Set("end_date", end.Format(time.RFC3339))
	}

	var events []domain.CalendarEvent
	if err := c.get(ctx, "/api/calendar/events?"+params.Encode(), &events); err != nil {
		return nil, fmt.Errorf("client.ListEvents: %w", err)
	}
	return events, nil
}

// CreateEvent creates a calendar event.
func (c *Client) CreateEvent(ctx context.Context, ev domain.CalendarEvent) (*domain.CalendarEvent, error) {
	var created domain.CalendarEvent
	if err := c.post(ctx, "/api/calendar/events", ev, &created); err != nil {
		return nil, fmt.Errorf("client.CreateEvent: %w", err)
	}
	return &created, nil
}

// UpdateEvent replaces a calendar event.
func (c *Client) UpdateEvent(ctx context.Context, ev domain.CalendarEvent) (*domain.CalendarEvent, error) {
	if ev.ID == "" {
		return nil, fmt.Errorf("client.UpdateEvent: missing event id")
	}
	var updated domain.CalendarEvent
	if err := c.doRequest(ctx, http.MethodPut, "/api/calendar/events/"+url.PathEscape(ev.ID), ev, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateEvent: %w", err)
	}
	return &updated, nil
}

// DeleteEvent deletes a calendar event.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/calendar/events/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteEvent: %w", err)
	}
	return nil
}

// --- Analytics ---

// Dashboard returns aggregated analytics for the last days days.
func (c *Client) Dashboard(ctx context.Context, days int) (*domain.DashboardAnalytics, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}
	var d domain.DashboardAnalytics
	if err := c.get(ctx, "/api/analytics/dashboard?"+params.Encode(), &d); err != nil {
		return nil, fmt.Errorf("client.Dashboard: %w", err)
	}
	return &d, nil
}

// ProductivityScore returns the current productivity score.
func (c *Client) ProductivityScore(ctx context.Context) (*domain.ProductivityScore, error) {
	var s domain.ProductivityScore
	if err := c.get(ctx, "/api/analytics/productivity-score", &s); err != nil {
		return nil, fmt.Errorf("client.ProductivityScore: %w", err)
	}
	return &s, nil
}

// --- Integrations ---

// IntegrationStatus returns the connection state of every provider.
func (c *Client) IntegrationStatus(ctx context.Context) (*domain.IntegrationStatus, error) {
	var s domain.IntegrationStatus
	if err := c.get(ctx, "/api/integrations/status", &s); err != nil {
		return nil, fmt.Errorf("client.IntegrationStatus: %w", err)
	}
	return &s, nil
}

// SyncIntegration triggers a provider sync (google or microsoft).
func (c *Client) SyncIntegration(ctx context.Context, provider string) (string, error) {
	var msg domain.Message
	if err := c.post(ctx, "/api/integrations/"+url.PathEscape(provider)+"/sync", nil, &msg); err != nil {
		return "", fmt.Errorf("client.SyncIntegration: %w", err)
	}
	return msg.Message, nil
}

// RemoveWebhooks deletes the push subscriptions of a provider.
func (c *Client) RemoveWebhooks(ctx context.Context, provider string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/integrations/webhooks/"+url.PathEscape(provider), nil, nil); err != nil {
		return fmt.Errorf("client.RemoveWebhooks: %w", err)
	}
	return nil
}

// --- Payments ---

// CreditPackages lists purchasable credit bundles.
func (c *Client) CreditPackages(ctx context.Context) ([]domain.CreditPackage, error) {
	var pkgs []domain.CreditPackage
	if err := c.get(ctx, "/api/payments/packages", &pkgs); err != nil {
		return nil, fmt.Errorf("client.CreditPackages: %w", err)
	}
	return pkgs, nil
}

// CreditBalance returns the current credit balance.
func (c *Client) CreditBalance(ctx context.Context) (*domain.CreditBalance, error) {
	var b domain.CreditBalance
	if err := c.get(ctx, "/api/payments/balance", &b); err != nil {
		return nil, fmt.Errorf("client.CreditBalance: %w", err)
	}
	return &b, nil
}

// PaymentHistory returns a page of payments and transactions.
func (c *Client) PaymentHistory(ctx context.Context, page, limit int) (*domain.PaymentHistory, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(page, 1)))
	params.Set("limit", strconv.Itoa(max(limit, 1)))

	var h domain.PaymentHistory
	if err := c.get(ctx, "/api/payments/history?"+params.Encode(), &h); err != nil {
		return nil, fmt.Errorf("client.PaymentHistory: %w", err)
	}
	return &h, nil
}

// CreatePaymentIntent starts a purchase of packageType.
func (c *Client) CreatePaymentIntent(ctx context.Context, packageType string) (*domain.PaymentIntent, error) {
	var pi domain.PaymentIntent
	if err := c.post(ctx, "/api/payments/create-payment-intent", map[string]string{"package_type": packageType}, &pi); err != nil {
		return nil, fmt.Errorf("client.CreatePaymentIntent: %w", err)
	}
	return &pi, nil
}

// --- Users ---

// Profile returns the full user record.
func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/api/users/profile", &u); err != nil {
		return nil, fmt.Errorf("client.Profile: %w", err)
	}
	return &u, nil
}

// UpdateProfile replaces the user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, p domain.Profile) (*domain.User, error) {
	var u domain.User
	if err := c.doRequest(ctx, http.MethodPut, "/api/users/profile", map[string]any{"profile": p}, &u); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return &u, nil
}

// UserActivity returns the usage counters.
func (c *Client) UserActivity(ctx context.Context) (*domain.Activity, error) {
	var a domain.Activity
	if err := c.get(ctx, "/api/users/activity", &a); err != nil {
		return nil, fmt.Errorf("client.UserActivity: %w", err)
	}
	return &a, nil
}

// Settings returns the user's preferences.
func (c *Client) Settings(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	if err := c.get(ctx, "/api/users/settings", &s); err != nil {
		return nil, fmt.Errorf("client.Settings: %w", err)
	}
	return &s, nil
}

// UpdateSettings replaces the user's preferences.
func (c *Client) UpdateSettings(ctx context.Context, s domain.Settings) (*domain.Settings, error) {
	var out domain.Settings
	if err := c.doRequest(ctx, http.MethodPut, "/api/users/settings", s, &out); err != nil {
		return nil, fmt.Errorf("client.UpdateSettings: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(authz.Track(ctx), method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: parseErrorBody(respBody)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
