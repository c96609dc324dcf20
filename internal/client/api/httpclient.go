package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/homehubdev/homehub/internal/client/models"
	"github.com/homehubdev/homehub/internal/common"
	"github.com/homehubdev/homehub/internal/logging"
)

// API paths, relative to the configured base URL.
const (
	pathLogin                = "/login"
	pathRegister             = "/register"
	pathMe                   = "/me"
	pathEmailVerify          = "/email/verify"
	pathEmailResend          = "/email/resend"
	pathPasswordResetRequest = "/password/reset-request"
	pathPasswordResetConfirm = "/password/reset-confirm"
	pathPasswordChange       = "/password/change"
	pathProfile              = "/users/me"
	pathTokenRefresh         = "/token/refresh"
	pathTokenRevoke          = "/token/revoke"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultRefreshSkew = 30 * time.Second

	// CurrentUser is a GET and safe to retry on transport failures.
	meMaxRetries uint64 = 2
	meRetryBase         = 200 * time.Millisecond
)

// HTTPClient is the concrete auth gateway over the HomeHub REST API.
//
// Token handling mirrors the server contract: the access token is attached
// as a bearer header; a 401 with code "token_expired" (or an access token
// whose JWT exp is within the refresh skew) triggers one refresh round-trip
// followed by a single replay of the original request.
type HTTPClient struct {
	baseURL     string
	httpc       *http.Client
	tokens      TokenSource
	log         logging.Logger
	refreshSkew time.Duration

	refreshMu sync.Mutex
}

type Option func(*HTTPClient)

// WithHTTPClient substitutes the underlying *http.Client (tests, proxies).
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.httpc = h }
}

// WithRefreshSkew sets how close to its exp an access token may get before
// a proactive refresh is attempted.
func WithRefreshSkew(d time.Duration) Option {
	return func(c *HTTPClient) { c.refreshSkew = d }
}

func NewHTTPClient(baseURL string, tokens TokenSource, log logging.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpc:       &http.Client{Timeout: defaultTimeout},
		tokens:      tokens,
		log:         log,
		refreshSkew: defaultRefreshSkew,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}

// ---- wire shapes ----

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type authResponse struct {
	User    *models.User `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	Message string       `json:"message"`
}

type meResponse struct {
	User *models.User `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type profileUpdateRequest struct {
	Username        string `json:"username,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	CurrentPassword string `json:"current_password"`
	OTPCode         string `json:"otp_code,omitempty"`
}

type profileUpdateResponse struct {
	User        *models.User `json:"user"`
	OTPRequired bool         `json:"otp_required"`
}

// errorEnvelope is the API's uniform error body:
// {"status":"error","message":"...","code":"...","errors":{field:[msgs]}}.
type errorEnvelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Errors  map[string][]string `json:"errors"`
}

// ---- operations ----

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, loginRequest{Email: email, Password: password}, &resp, false); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "login response missing user"}
	}
	if err := c.tokens.SetTokens(ctx, resp.Access, resp.Refresh); err != nil {
		return nil, fmt.Errorf("persisting session tokens: %w", err)
	}
	return resp.User, nil
}

func (c *HTTPClient) Register(ctx context.Context, email, username, password, passwordConfirm string) (*models.User, error) {
	if password != passwordConfirm {
		return nil, &ValidationError{
			Message: "passwords do not match",
			Fields:  map[string][]string{"password_confirm": {"does not match password"}},
		}
	}
	var resp authResponse
	req := registerRequest{Email: email, Username: username, Password: password, PasswordConfirm: passwordConfirm}
	if err := c.do(ctx, http.MethodPost, pathRegister, req, &resp, false); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "register response missing user"}
	}
	if err := c.tokens.SetTokens(ctx, resp.Access, resp.Refresh); err != nil {
		return nil, fmt.Errorf("persisting session tokens: %w", err)
	}
	return resp.User, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, refresh, err := c.tokens.Tokens(ctx)
	if err == nil && refresh != "" {
		if err := c.do(ctx, http.MethodPost, pathTokenRevoke, refreshRequest{Refresh: refresh}, nil, false); err != nil {
			// Best-effort revoke: local state stays authoritative.
			c.log.Warn(ctx, "token revoke failed", "error", err)
		}
	}
	return c.tokens.Clear(ctx)
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var resp meResponse
	backoff := retry.WithMaxRetries(meMaxRetries, retry.NewExponential(meRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, pathMe, nil, &resp, true)
		var nerr *NetworkError
		if errors.As(err, &nerr) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "me response missing user"}
	}
	return resp.User, nil
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, token string) error {
	body := struct {
		Token string `json:"token"`
	}{Token: token}
	return c.do(ctx, http.MethodPost, pathEmailVerify, body, nil, false)
}

func (c *HTTPClient) ResendVerification(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathEmailResend, nil, nil, true)
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.do(ctx, http.MethodPost, pathPasswordResetRequest, body, nil, false)
}

func (c *HTTPClient) ConfirmPasswordReset(ctx context.Context, token, password, passwordConfirm string) error {
	if password != passwordConfirm {
		return &ValidationError{
			Message: "passwords do not match",
			Fields:  map[string][]string{"password_confirm": {"does not match password"}},
		}
	}
	body := struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}{Token: token, Password: password, PasswordConfirm: passwordConfirm}
	return c.do(ctx, http.MethodPost, pathPasswordResetConfirm, body, nil, false)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, current, newPassword, newPasswordConfirm string) error {
	if newPassword != newPasswordConfirm {
		return &ValidationError{
			Message: "passwords do not match",
			Fields:  map[string][]string{"new_password_confirm": {"does not match new password"}},
		}
	}
	body := struct {
		CurrentPassword    string `json:"current_password"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}{CurrentPassword: current, NewPassword: newPassword, NewPasswordConfirm: newPasswordConfirm}
	return c.do(ctx, http.MethodPost, pathPasswordChange, body, nil, true)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*models.User, error) {
	req := profileUpdateRequest{
		Username:        upd.Username,
		DisplayName:     upd.DisplayName,
		CurrentPassword: upd.CurrentPassword,
		OTPCode:         upd.OTPCode,
	}
	var resp profileUpdateResponse
	if err := c.do(ctx, http.MethodPatch, pathProfile, req, &resp, true); err != nil {
		return nil, err
	}
	if resp.OTPRequired {
		return nil, ErrOTPRequired
	}
	if resp.User == nil {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "profile response missing user"}
	}
	return resp.User, nil
}

// ---- request plumbing ----

// do executes one API call. For authenticated calls it attaches the stored
// access token, refreshing it first when it is about to expire, and replays
// the request once if the server reports token_expired.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var access string
	if authed {
		var refresh string
		var err error
		access, refresh, err = c.tokens.Tokens(ctx)
		if err != nil {
			return fmt.Errorf("reading token store: %w", err)
		}
		if access == "" {
			return ErrNoSession
		}
		if refresh != "" && tokenExpiresWithin(access, c.refreshSkew) {
			if fresh, err := c.refresh(ctx, refresh); err == nil {
				access = fresh
			}
			// On refresh failure fall through: the 401 path below decides.
		}
	}

	status, respBody, err := c.roundTrip(ctx, method, path, body, access)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if authed && status == http.StatusUnauthorized {
		var env errorEnvelope
		_ = json.Unmarshal(respBody, &env)
		if env.Code == common.ErrCodeTokenExpired {
			if _, refresh, terr := c.tokens.Tokens(ctx); terr == nil && refresh != "" {
				if fresh, rerr := c.refresh(ctx, refresh); rerr == nil {
					status, respBody, err = c.roundTrip(ctx, method, path, body, fresh)
					if err != nil {
						return &NetworkError{Err: err}
					}
				}
			}
		}
	}

	return decodeResponse(status, respBody, out)
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, body any, access string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if access != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+access)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// refresh exchanges the refresh token for a new pair and persists it.
// Serialized so concurrent expired calls do not stampede the endpoint.
func (c *HTTPClient) refresh(ctx context.Context, refreshToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	status, body, err := c.roundTrip(ctx, http.MethodPost, pathTokenRefresh, refreshRequest{Refresh: refreshToken}, "")
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	var resp refreshResponse
	if err := decodeResponse(status, body, &resp); err != nil {
		c.log.Debug(ctx, "token refresh rejected", "status", status, "error", err)
		return "", err
	}
	if err := c.tokens.SetTokens(ctx, resp.Access, resp.Refresh); err != nil {
		return "", fmt.Errorf("persisting refreshed tokens: %w", err)
	}
	return resp.Access, nil
}

// decodeResponse maps an HTTP status plus body to a typed result or error:
// 2xx unmarshals into out, 401/403 become AuthError, remaining 4xx become
// ValidationError, 5xx become ServerError.
func decodeResponse(status int, body []byte, out any) error {
	if status >= 200 && status < 300 {
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &ServerError{StatusCode: status, Message: "malformed response body"}
		}
		return nil
	}

	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	if env.Message == "" {
		env.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Message: env.Message, Code: env.Code}
	case status >= 500:
		return &ServerError{StatusCode: status, Message: env.Message}
	case env.Code == common.ErrCodeOTPRequired:
		return ErrOTPRequired
	default:
		return &ValidationError{Message: env.Message, Fields: env.Errors}
	}
}

// tokenExpiresWithin reports whether the access token is a JWT whose exp
// claim falls inside the skew window. Opaque tokens and tokens without exp
// report false; those rely on the server's 401 token_expired signal.
func tokenExpiresWithin(token string, skew time.Duration) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < skew
}
