package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// refreshSkew is how close to expiry the access token may get before a
	// refresh is attempted ahead of the next call.
	refreshSkew = time.Minute
)

// SessionInfo describes the access token currently held in the jar. The
// token is decoded without verification; only the backend can verify it.
type SessionInfo struct {
	Authenticated bool      `json:"authenticated"`
	Subject       string    `json:"subject,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	TenantID      string    `json:"tenant_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// Session inspects the session cookies.
func (c *Client) Session() SessionInfo {
	raw := c.cookie(AccessCookie)
	if raw == "" {
		return SessionInfo{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return SessionInfo{}
	}
	info := SessionInfo{Authenticated: true}
	info.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	info.UserID = claimString(claims, "user_id")
	info.TenantID = claimString(claims, "tenant_id")
	return info
}

func claimString(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// needsRefresh is true when a refresh cookie exists and the access token is
// missing, unreadable or about to expire.
func (c *Client) needsRefresh() bool {
	if c.cookie(RefreshCookie) == "" {
		return false
	}
	info := c.Session()
	if !info.Authenticated || info.ExpiresAt.IsZero() {
		return !info.Authenticated
	}
	return c.now().Add(refreshSkew).After(info.ExpiresAt)
}

// ensureFresh refreshes the access token ahead of a call. Failures are
// logged; the call itself will surface a 401.
func (c *Client) ensureFresh(ctx context.Context) {
	if !c.needsRefresh() {
		return
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if !c.needsRefresh() {
		return
	}
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("session refresh failed")
	}
}

// Login authenticates and stores the session cookies.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Token, error) {
	var tok Token
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/login", body: creds, noRefresh: true}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg Registration) (*Token, error) {
	var tok Token
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/register", body: reg, noRefresh: true}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Refresh exchanges the refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) (*Token, error) {
	var tok Token
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/refresh", noRefresh: true}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Logout clears the session on both sides.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout", noRefresh: true}, nil)
	c.clearCookies()
	return err
}

func (c *Client) clearCookies() {
	expired := make([]*http.Cookie, 0, 2)
	for _, name := range []string{AccessCookie, RefreshCookie} {
		expired = append(expired, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	c.http.Jar.SetCookies(c.base, expired)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
