package ingest

import (
	_ "embed"
	"net/http"
	"net/http/httptest"
	"testing"
)

//go:embed testdata/login_page.html
var loginPageHTML []byte

//go:embed testdata/search_page1.html
var searchPage1HTML []byte

//go:embed testdata/search_page2.html
var searchPage2HTML []byte

//go:embed testdata/detail_full.html
var detailFullHTML []byte

//go:embed testdata/detail_minimal.html
var detailMinimalHTML []byte

const (
	testUsername  = "grants@example.org"
	testPassword  = "correct horse"
	sessionCookie = "SSESS7f3a"
	sessionValue  = "valid-session"
)

// fakePortal mimics the pages of a Drupal grant portal closely enough for the
// session and scraper to run against it.
type fakePortal struct {
	*httptest.Server
	requireLogin bool
	logins       int
}

func newFakePortal(t *testing.T, requireLogin bool) *fakePortal {
	t.Helper()

	p := &fakePortal{requireLogin: requireLogin}
	mux := http.NewServeMux()

	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Write(loginPageHTML)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("form_id") != "user_login_form" ||
			r.PostForm.Get("form_build_id") != "form-Xq7aT2lUv9" ||
			r.PostForm.Get("form_token") != "tok-3fB8kd" ||
			r.PostForm.Get("name") != testUsername ||
			r.PostForm.Get("pass") != testPassword {
			w.Write(loginPageHTML)
			return
		}
		p.logins++
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sessionValue, Path: "/", HttpOnly: true})
		http.Redirect(w, r, "/user/42", http.StatusSeeOther)
	})

	mux.HandleFunc("/user/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>My account</h1></body></html>`))
	})

	mux.HandleFunc("/search/us-federal", func(w http.ResponseWriter, r *http.Request) {
		if p.requireLogin && !hasSession(r) {
			http.Redirect(w, r, "/user/login?destination=/search/us-federal", http.StatusFound)
			return
		}
		if r.URL.Query().Get("page") == "1" {
			w.Write(searchPage2HTML)
			return
		}
		w.Write(searchPage1HTML)
	})

	mux.HandleFunc("/funder/rural-health-outreach", func(w http.ResponseWriter, r *http.Request) {
		w.Write(detailFullHTML)
	})
	mux.HandleFunc("/funder/community-arts", func(w http.ResponseWriter, r *http.Request) {
		w.Write(detailMinimalHTML)
	})
	mux.HandleFunc("/funder/missing-page", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func hasSession(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == sessionValue
}

// portalConfig returns a config pointed at the fake portal with no request delay.
func (p *fakePortal) portalConfig(t *testing.T) *PortalConfig {
	t.Helper()

	cfg, err := LoadPortalConfig()
	if err != nil {
		t.Fatalf("load portal config: %v", err)
	}
	cfg.BaseURL = p.URL
	cfg.Fetch.RateLimitRPS = 0
	cfg.Fetch.TimeoutSeconds = 5
	cfg.MaxPages = 5
	return cfg
}

func (p *fakePortal) searchURL() string {
	return p.URL + "/search/us-federal?keyword=health&opp_number=&cfda="
}
