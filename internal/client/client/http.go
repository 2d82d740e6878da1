package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/common"
	"github.com/dmitrijs2005/uniportal/internal/logging"
	"github.com/dmitrijs2005/uniportal/internal/netx"
	"github.com/google/uuid"
)

const (
	DefaultTimeout = 10 * time.Second

	// maxPages caps how many "next" links a single List follows.
	maxPages = 100

	pathToken        = "/api/auth/token/"
	pathTokenRefresh = "/api/auth/token/refresh/"
	pathLogout       = "/api/auth/logout/"
	pathSessions     = "/api/auth/sessions/"
	pathDashboard    = "/api/university/dashboard/"
	pathUniversity   = "/api/university/"
)

// HTTPClient implements Client over net/http. It is safe for concurrent use.
type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	auth    Authorizer
	timeout time.Duration
	log     logging.Logger
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

// WithTimeout bounds every request, including reading its response.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithAuthorizer(a Authorizer) Option {
	return func(c *HTTPClient) { c.auth = a }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithTransport replaces the HTTP transport. Tests use it to inject
// failures.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.Transport = rt }
}

// NewHTTPClient returns a client for the API rooted at baseURL
// (for example "http://localhost:8000").
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("api url %q has no host", baseURL)
	}

	c := &HTTPClient{
		base:    base,
		http:    &http.Client{},
		auth:    BearerAuthorizer{},
		timeout: DefaultTimeout,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	c.http.Timeout = c.timeout
	return c, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (c *HTTPClient) resolve(path string) string {
	return c.base.String() + path
}

// do sends one request and returns the response of a 2xx answer; any other
// outcome is an *APIError. cred may be nil for unauthenticated calls.
func (c *HTTPClient) do(ctx context.Context, op, method, target string, cred *models.Credential, body []byte) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred != nil {
		c.auth.Authorize(req, *cred)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "http request failed", "method", method, "path", req.URL.Path, "request_id", requestID, "error", err)
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	data, err := netx.ReadBody(resp.Body)
	if err != nil {
		return nil, networkError(op, err)
	}
	c.log.Debug(ctx, "http request",
		"method", method, "path", req.URL.Path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(op, resp.StatusCode, data)
	}
	return &response{status: resp.StatusCode, body: data, cookies: resp.Cookies()}, nil
}

func encode(op string, payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}
	return body, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, op, method, target string, cred *models.Credential, payload, out any) (*response, error) {
	body, err := encode(op, payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, op, method, target, cred, body)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return nil, decodeError(op, resp.status, err)
		}
	}
	return resp, nil
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// pairFrom takes the tokens from the body, falling back to the
// access_token/refresh_token cookies of the cookie transport.
func pairFrom(op string, resp *response, body tokenPair) (models.Credential, error) {
	cred := models.Credential{Access: body.Access, Refresh: body.Refresh}
	for _, ck := range resp.cookies {
		switch ck.Name {
		case common.AccessTokenCookieName:
			if cred.Access == "" {
				cred.Access = ck.Value
			}
		case common.RefreshTokenCookieName:
			if cred.Refresh == "" {
				cred.Refresh = ck.Value
			}
		}
	}
	if cred.Access == "" {
		return models.Credential{}, &APIError{Op: op, Kind: KindUnknown, Status: resp.status, Message: "response carried no access token"}
	}
	return cred, nil
}

// ObtainToken exchanges a username and password for a credential pair. The
// encoded request body is wiped once the request completes.
func (c *HTTPClient) ObtainToken(ctx context.Context, username, password []byte) (models.Credential, error) {
	const op = "obtain token"

	body, err := json.Marshal(struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{string(username), string(password)})
	if err != nil {
		return models.Credential{}, fmt.Errorf("%s: encode request: %w", op, err)
	}
	defer common.WipeByteArray(body)

	resp, err := c.do(ctx, op, http.MethodPost, c.resolve(pathToken), nil, body)
	if err != nil {
		return models.Credential{}, err
	}
	var pair tokenPair
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, &pair); err != nil {
			return models.Credential{}, decodeError(op, resp.status, err)
		}
	}
	return pairFrom(op, resp, pair)
}

// RefreshToken rotates the pair. The refresh token travels in the body and,
// for the cookie transport, as a cookie.
func (c *HTTPClient) RefreshToken(ctx context.Context, cred models.Credential) (models.Credential, error) {
	const op = "refresh token"
	if cred.Refresh == "" {
		return models.Credential{}, &APIError{Op: op, Kind: KindAuth, Message: "no refresh token"}
	}

	var pair tokenPair
	resp, err := c.doJSON(ctx, op, http.MethodPost, c.resolve(pathTokenRefresh), &cred,
		map[string]string{"refresh": cred.Refresh}, &pair)
	if err != nil {
		return models.Credential{}, err
	}
	out, err := pairFrom(op, resp, pair)
	if err != nil {
		return models.Credential{}, err
	}
	if out.Refresh == "" {
		out.Refresh = cred.Refresh
	}
	return out, nil
}

func (c *HTTPClient) Logout(ctx context.Context, cred models.Credential) error {
	_, err := c.do(ctx, "logout", http.MethodPost, c.resolve(pathLogout), &cred, nil)
	return err
}

func (c *HTTPClient) Dashboard(ctx context.Context, cred models.Credential) (models.Profile, error) {
	var p models.Profile
	if _, err := c.doJSON(ctx, "dashboard", http.MethodGet, c.resolve(pathDashboard), &cred, nil, &p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (c *HTTPClient) Sessions(ctx context.Context, cred models.Credential) ([]models.AuthSession, error) {
	var out struct {
		Sessions []models.AuthSession `json:"sessions"`
	}
	if _, err := c.doJSON(ctx, "list sessions", http.MethodGet, c.resolve(pathSessions), &cred, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *HTTPClient) RevokeSession(ctx context.Context, cred models.Credential, id int64) error {
	target := c.resolve(fmt.Sprintf("%s%d/revoke/", pathSessions, id))
	_, err := c.do(ctx, "revoke session", http.MethodPost, target, &cred, nil)
	return err
}

func (c *HTTPClient) collectionURL(coll models.Collection) string {
	return c.resolve(pathUniversity + string(coll) + "/")
}

func (c *HTTPClient) itemURL(coll models.Collection, id int64) string {
	return c.resolve(fmt.Sprintf("%s%s/%d/", pathUniversity, coll, id))
}

func (c *HTTPClient) List(ctx context.Context, cred models.Credential, coll models.Collection) ([]json.RawMessage, error) {
	op := "list " + string(coll)

	items := []json.RawMessage{}
	target := c.collectionURL(coll)
	for page := 0; target != ""; page++ {
		if page == maxPages {
			return nil, &APIError{Op: op, Kind: KindUnknown, Message: fmt.Sprintf("more than %d pages", maxPages)}
		}
		resp, err := c.do(ctx, op, http.MethodGet, target, &cred, nil)
		if err != nil {
			return nil, err
		}
		p, err := NormalizeList(resp.body)
		if err != nil {
			return nil, decodeError(op, resp.status, err)
		}
		items = append(items, p.Items...)

		if target, err = c.nextURL(p.Next); err != nil {
			return nil, &APIError{Op: op, Kind: KindUnknown, Message: err.Error(), cause: err}
		}
	}
	return items, nil
}

// nextURL resolves a pagination link against the API root. Links to
// another host are refused so the credential never leaves the API.
func (c *HTTPClient) nextURL(next string) (string, error) {
	if next == "" {
		return "", nil
	}
	u, err := c.base.Parse(next)
	if err != nil {
		return "", fmt.Errorf("bad next link: %w", err)
	}
	if u.Host != c.base.Host {
		return "", fmt.Errorf("next link %q points outside the api", next)
	}
	return u.String(), nil
}

// write sends a create or update and returns the echoed entity, which may
// be empty.
func (c *HTTPClient) write(ctx context.Context, op, method, target string, cred models.Credential, payload any) (json.RawMessage, error) {
	body, err := encode(op, payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, op, method, target, &cred, body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.body), nil
}

func (c *HTTPClient) Create(ctx context.Context, cred models.Credential, coll models.Collection, payload any) (json.RawMessage, error) {
	return c.write(ctx, "create "+string(coll), http.MethodPost, c.collectionURL(coll), cred, payload)
}

func (c *HTTPClient) Update(ctx context.Context, cred models.Credential, coll models.Collection, id int64, payload any) (json.RawMessage, error) {
	return c.write(ctx, "update "+string(coll), http.MethodPatch, c.itemURL(coll, id), cred, payload)
}

func (c *HTTPClient) Delete(ctx context.Context, cred models.Credential, coll models.Collection, id int64) error {
	_, err := c.do(ctx, "delete "+string(coll), http.MethodDelete, c.itemURL(coll, id), &cred, nil)
	return err
}
