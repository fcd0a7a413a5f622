package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds everything the service needs to reach the upstream work
// management API and serve the dashboard.
type Config struct {
	// ListenPort is the dashboard HTTP port.
	ListenPort string

	// Upstream OAuth2 + API settings.
	UpstreamBaseURL string // e.g. https://work.example.com/api/v1
	AuthorizeURL    string // oauth2/authorize endpoint
	TokenURL        string // oauth2/token endpoint
	ClientID        string
	RedirectURL     string // this service's /auth/callback

	// AppID and PortalID are the two fixed scope parameters attached to every
	// upstream request.
	AppID    string
	PortalID string

	// FormID identifies the upstream form used to create quote tasks.
	FormID string

	// SeriesIDs are the dashboard data-source identifiers used to bulk-list
	// quote tasks via portal/load.
	SeriesIDs []string

	// DataDir holds the credential store database.
	DataDir string

	// FieldMapPath optionally points at a YAML file overriding the built-in
	// candidate-field lists.
	FieldMapPath string

	// CORSOrigins are extra allowed frontend origins.
	CORSOrigins []string
}

// Load reads configuration from the environment. QUOTEDESK_UPSTREAM_URL and
// QUOTEDESK_CLIENT_ID are required; everything else has a workable default.
func Load() (Config, error) {
	cfg := Config{
		ListenPort:      envOr("PORT", "8082"),
		UpstreamBaseURL: strings.TrimRight(os.Getenv("QUOTEDESK_UPSTREAM_URL"), "/"),
		ClientID:        os.Getenv("QUOTEDESK_CLIENT_ID"),
		RedirectURL:     os.Getenv("QUOTEDESK_REDIRECT_URL"),
		AppID:           envOr("QUOTEDESK_APP_ID", "quotes"),
		PortalID:        os.Getenv("QUOTEDESK_PORTAL_ID"),
		FormID:          os.Getenv("QUOTEDESK_FORM_ID"),
		DataDir:         envOr("QUOTEDESK_DATA_DIR", "./data"),
		FieldMapPath:    os.Getenv("QUOTEDESK_FIELD_MAP"),
	}

	if cfg.UpstreamBaseURL == "" {
		return Config{}, fmt.Errorf("QUOTEDESK_UPSTREAM_URL is required")
	}
	if cfg.ClientID == "" {
		return Config{}, fmt.Errorf("QUOTEDESK_CLIENT_ID is required")
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = fmt.Sprintf("http://localhost:%s/auth/callback", cfg.ListenPort)
	}

	cfg.AuthorizeURL = envOr("QUOTEDESK_AUTHORIZE_URL", cfg.UpstreamBaseURL+"/oauth2/authorize")
	cfg.TokenURL = envOr("QUOTEDESK_TOKEN_URL", cfg.UpstreamBaseURL+"/oauth2/token")

	cfg.SeriesIDs = splitCSV(os.Getenv("QUOTEDESK_SERIES_IDS"))
	cfg.CORSOrigins = splitCSV(os.Getenv("CORS_ORIGINS"))

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
