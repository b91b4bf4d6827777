package ingest

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config/portal.yaml
var portalYAML embed.FS

// DefaultBaseURL is used when neither the config nor the environment name a portal host.
const DefaultBaseURL = "https://grantstation.com"

// FetchConfig defines HTTP fetching configuration for the portal.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, 0 = no delay
}

// PortalConfig describes where the portal lives and how its pages are laid out.
type PortalConfig struct {
	Name       string           `yaml:"name"`
	BaseURL    string           `yaml:"base_url"`
	LoginPath  string           `yaml:"login_path"`
	SearchPath string           `yaml:"search_path"`
	UserAgent  string           `yaml:"user_agent,omitempty"`
	Fetch      FetchConfig      `yaml:"fetch,omitempty"`
	MaxPages   int              `yaml:"max_pages,omitempty"`
	Selectors  SelectorConfig   `yaml:"selectors,omitempty"`
	Pagination PaginationConfig `yaml:"pagination,omitempty"`
	Detail     DetailSelectors  `yaml:"detail,omitempty"`
}

type PaginationConfig struct {
	Next string `yaml:"next,omitempty"` // CSS selector for the next page link
}

type SelectorConfig struct {
	Link     string `yaml:"link,omitempty"`
	LinkAttr string `yaml:"link_attr,omitempty"` // Attribute to extract link from (default: href)
}

// DetailSelectors maps each Opportunity field to the CSS selector that holds it.
// Title is a fallback chain; "selector@attr" reads an attribute instead of text.
type DetailSelectors struct {
	Title                 []string `yaml:"title,omitempty"`
	Description           string   `yaml:"description,omitempty"`
	Agency                string   `yaml:"agency,omitempty"`
	OpportunityNumber     string   `yaml:"opportunity_number,omitempty"`
	PostDate              string   `yaml:"post_date,omitempty"`
	CloseDate             string   `yaml:"close_date,omitempty"`
	EligibleApplicants    string   `yaml:"eligible_applicants,omitempty"`
	AdditionalEligibility string   `yaml:"additional_eligibility,omitempty"`
	CFDANumbers           string   `yaml:"cfda_numbers,omitempty"`
	AdditionalInfoLink    string   `yaml:"additional_info_link,omitempty"`
	GrantsGovLink         string   `yaml:"grants_gov_link,omitempty"`
}

// LoadPortalConfig reads the embedded portal.yaml, expanding environment
// variables, and fills defaults for anything left empty.
func LoadPortalConfig() (*PortalConfig, error) {
	data, err := portalYAML.ReadFile("config/portal.yaml")
	if err != nil {
		return nil, err
	}
	return ParsePortalConfig(data)
}

// ParsePortalConfig decodes a portal definition from YAML.
func ParsePortalConfig(data []byte) (*PortalConfig, error) {
	// Expand environment variables within the YAML content (e.g. ${GRANTSTATION_BASE_URL})
	expanded := os.ExpandEnv(string(data))

	var cfg PortalConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse portal config: %w", err)
	}
	cfg.applyDefaults()

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	return &cfg, nil
}

func (c *PortalConfig) applyDefaults() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.LoginPath == "" {
		c.LoginPath = "/user/login"
	}
	if c.SearchPath == "" {
		c.SearchPath = "/search/us-federal"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = 30
	}
	if c.MaxPages == 0 {
		c.MaxPages = 1
	}
	if c.Selectors.LinkAttr == "" {
		c.Selectors.LinkAttr = "href"
	}
}

// LoginURL returns the absolute URL of the login form.
func (c *PortalConfig) LoginURL() string {
	return c.BaseURL + c.LoginPath
}

// RequestTimeout returns the per-request timeout.
func (c *PortalConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RequestDelay converts the configured rate limit into a delay between requests.
func (c *PortalConfig) RequestDelay() time.Duration {
	if c.Fetch.RateLimitRPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.Fetch.RateLimitRPS)
}

// SearchURL builds the federal search URL for a keyword. Opportunity number
// and CFDA parameters are sent empty like the portal's own search form.
func (c *PortalConfig) SearchURL(keyword string) string {
	q := url.Values{}
	q.Set("keyword", strings.TrimSpace(keyword))
	return c.BaseURL + c.SearchPath + "?" + q.Encode() + "&opp_number=&cfda="
}
