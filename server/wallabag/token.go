package wallabag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Credentials are the OAuth2 client and resource-owner credentials for a
// Wallabag instance.
type Credentials struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

func (c Credentials) complete() bool {
	return c.BaseURL != "" && c.ClientID != "" && c.ClientSecret != "" &&
		c.Username != "" && c.Password != ""
}

// fingerprint identifies the credential set a token was granted under. The
// password is left out: rotating it keeps the account, and a still-valid
// token pair should survive that.
func (c Credentials) fingerprint() string {
	sum := sha256.Sum256([]byte(c.BaseURL + "\n" + c.ClientID + "\n" + c.Username))
	return hex.EncodeToString(sum[:])
}

// StoredToken is the persisted form of the token pair, so a plugin restart
// does not force a fresh password grant. Fingerprint records which credential
// set granted the pair, so a cached token never outlives a credential change.
type StoredToken struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Fingerprint  string    `json:"fingerprint"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// tokenManager owns the access/refresh token pair. All state is guarded by mu;
// holding the lock across the token request also serializes refreshes, so
// concurrent callers finding an expired token trigger exactly one grant and
// the rest wait for its result.
type tokenManager struct {
	httpClient    *http.Client
	clock         clockwork.Clock
	creds         Credentials
	refreshBuffer time.Duration

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	onChange     func(StoredToken)
}

func newTokenManager(httpClient *http.Client, clock clockwork.Clock, creds Credentials, refreshBuffer time.Duration) *tokenManager {
	return &tokenManager{
		httpClient:    httpClient,
		clock:         clock,
		creds:         creds,
		refreshBuffer: refreshBuffer,
	}
}

// ValidToken returns an access token guaranteed to outlive the refresh buffer.
// It refreshes with the held refresh token when possible and falls back to a
// full password grant once; if both fail the call fails with an AuthError.
// This call blocks on network I/O when a grant is needed.
func (tm *tokenManager) ValidToken(ctx context.Context) (string, error) {
	if !tm.creds.complete() {
		return "", ErrConfigIncomplete
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.accessToken != "" && tm.clock.Now().Add(tm.refreshBuffer).Before(tm.expiresAt) {
		return tm.accessToken, nil
	}

	if tm.refreshToken != "" {
		if err := tm.requestToken(ctx, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {tm.refreshToken},
		}); err == nil {
			return tm.accessToken, nil
		}
		// The refresh token may be stale or revoked; fall through to a full
		// password grant.
		tm.refreshToken = ""
	}

	if err := tm.requestToken(ctx, url.Values{
		"grant_type": {"password"},
		"username":   {tm.creds.Username},
		"password":   {tm.creds.Password},
	}); err != nil {
		return "", &AuthError{Cause: err}
	}

	return tm.accessToken, nil
}

// Invalidate drops the access token, but only if it is still the one the
// caller used. A 401 observed by a request that raced a refresh must not
// discard the freshly granted token.
func (tm *tokenManager) Invalidate(token string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.accessToken == token {
		tm.accessToken = ""
		tm.expiresAt = time.Time{}
	}
}

// Restore seeds the manager with a previously persisted token pair and
// reports whether the pair was accepted. A token granted under different
// credentials is rejected, otherwise a credential change would keep sending
// the old instance's bearer token until the next 401. Expired material is
// still kept: the refresh token may remain valid.
func (tm *tokenManager) Restore(st StoredToken) bool {
	if st.Fingerprint != tm.creds.fingerprint() {
		return false
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.accessToken = st.AccessToken
	tm.refreshToken = st.RefreshToken
	tm.expiresAt = st.ExpiresAt
	return true
}

// requestToken performs a grant against the OAuth2 token endpoint and, on
// success, replaces the held token pair. Callers must hold mu.
func (tm *tokenManager) requestToken(ctx context.Context, form url.Values) error {
	form.Set("client_id", tm.creds.ClientID)
	form.Set("client_secret", tm.creds.ClientSecret)

	endpoint := strings.TrimRight(tm.creds.BaseURL, "/") + "/oauth/v2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "token request failed")
	}
	defer resp.Body.Close()

	// The response body may echo credentials in error descriptions, so only
	// the status code is reported.
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return errors.Wrap(err, "failed to decode token response")
	}
	if tr.AccessToken == "" {
		return errors.New("token endpoint returned an empty access token")
	}

	tm.accessToken = tr.AccessToken
	tm.refreshToken = tr.RefreshToken
	tm.expiresAt = tm.clock.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	if tm.onChange != nil {
		tm.onChange(StoredToken{
			AccessToken:  tm.accessToken,
			RefreshToken: tm.refreshToken,
			ExpiresAt:    tm.expiresAt,
			Fingerprint:  tm.creds.fingerprint(),
		})
	}

	return nil
}
