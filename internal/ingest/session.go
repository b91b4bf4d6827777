package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var ErrInvalidCredentials = errors.New("incorrect username or password")

// Drupal renders this hidden input on every page that still shows the login form.
const loginFormSelector = "input[name=form_id][value=user_login_form]"

// Cookie is the on-disk form of a session cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// Session holds an authenticated cookie jar for the portal.
type Session struct {
	cfg  *PortalConfig
	base *url.URL
	jar  *cookiejar.Jar
	http *resty.Client
}

func NewSession(cfg *PortalConfig) (*Session, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetTimeout(cfg.RequestTimeout())
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))

	return &Session{
		cfg:  cfg,
		base: base,
		jar:  jar,
		http: client,
	}, nil
}

// Jar exposes the cookie jar so other collectors can reuse the session.
func (s *Session) Jar() http.CookieJar {
	return s.jar
}

// Login submits the portal's Drupal login form.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: credentials are empty", ErrInvalidCredentials)
	}

	res, err := s.http.R().
		SetContext(ctx).
		Get(s.cfg.LoginPath)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("fetch login page: unexpected status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("parse login page: %w", err)
	}

	formBuildID := doc.Find("input[name=form_build_id]").AttrOr("value", "")
	if formBuildID == "" {
		return fmt.Errorf("could not find form_build_id on login page")
	}

	values := url.Values{
		"name":          {username},
		"pass":          {password},
		"form_build_id": {formBuildID},
		"form_id":       {"user_login_form"},
		"op":            {"Log in"},
	}
	if token := doc.Find("input[name=form_token]").AttrOr("value", ""); token != "" {
		values.Set("form_token", token)
	}

	res, err = s.http.R().
		SetContext(ctx).
		SetBody(values.Encode()).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		Post(s.cfg.LoginPath)
	if err != nil {
		return fmt.Errorf("post login form: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("post login form: unexpected status %d", res.StatusCode())
	}

	if s.showsLoginForm(res) {
		return ErrInvalidCredentials
	}

	log.Printf("[Session] Logged in to %s as %s", s.base.Hostname(), username)
	return nil
}

// LoggedIn reports whether the current cookies reach the search page without
// being bounced back to the login form.
func (s *Session) LoggedIn(ctx context.Context) (bool, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get(s.cfg.SearchPath)
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	if res.StatusCode() == http.StatusForbidden || res.StatusCode() == http.StatusUnauthorized {
		return false, nil
	}
	return !s.showsLoginForm(res), nil
}

func (s *Session) showsLoginForm(res *resty.Response) bool {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		if strings.Contains(strings.ToLower(res.RawResponse.Request.URL.Path), strings.ToLower(s.cfg.LoginPath)) {
			return true
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return false
	}
	return doc.Find(loginFormSelector).Length() > 0
}

// SaveCookies writes the session cookies for the portal host as a JSON array.
func (s *Session) SaveCookies(path string) error {
	var cookies []Cookie
	for _, c := range s.jar.Cookies(s.base) {
		cookies = append(cookies, Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: s.base.Hostname(),
			Path:   "/",
			Secure: s.base.Scheme == "https",
		})
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("save cookies: %w", err)
	}
	log.Printf("[Session] Saved %d cookies to %s", len(cookies), path)
	return nil
}

// LoadCookies restores cookies written by SaveCookies. A missing file is not
// an error; ok reports whether any cookies were loaded.
func (s *Session) LoadCookies(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cookies: %w", err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return false, fmt.Errorf("decode cookies %s: %w", path, err)
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		httpCookies = append(httpCookies, c.toHTTP())
	}
	s.jar.SetCookies(s.base, httpCookies)

	return len(httpCookies) > 0, nil
}

func (c Cookie) toHTTP() *http.Cookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
}

// Ensure reuses saved cookies when they still grant access and logs in
// otherwise, saving the fresh cookies afterwards.
func (s *Session) Ensure(ctx context.Context, cookiePath, username, password string) error {
	if cookiePath != "" {
		loaded, err := s.LoadCookies(cookiePath)
		if err != nil {
			log.Printf("[Session] Ignoring saved cookies: %v", err)
		}
		if loaded {
			ok, err := s.LoggedIn(ctx)
			if err != nil {
				return err
			}
			if ok {
				log.Printf("[Session] Reusing saved cookies from %s", cookiePath)
				return nil
			}
			log.Printf("[Session] Saved cookies expired, logging in again")
		}
	}

	if err := s.Login(ctx, username, password); err != nil {
		return err
	}

	if cookiePath != "" {
		if err := s.SaveCookies(cookiePath); err != nil {
			log.Printf("[Session] %v", err)
		}
	}
	return nil
}
