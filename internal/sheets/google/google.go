package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"shelterstats/internal/core"
	ports "shelterstats/internal/sheets"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultRange is the block of the adoptions sheet holding Date, Species and Name.
const DefaultRange = "Dashboard!A:C"

var (
	ErrMissingSpreadsheetID = errors.New("missing spreadsheet id (set GOOGLE_SHEET_ID)")
	ErrMissingCredentials   = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_KEY, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_SERVICE_ACCOUNT_EMAIL with GOOGLE_PRIVATE_KEY)")
)

// Credentials selects one service-account source. The first non-empty one
// wins: inline JSON, then a key file, then email plus private key.
type Credentials struct {
	JSON       string
	File       string
	Email      string
	PrivateKey string
}

// Options configures a Client.
type Options struct {
	SpreadsheetID string
	Range         string
	Credentials   Credentials
	Timeout       time.Duration
}

// Client reads a fixed range of a spreadsheet through the Sheets API.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	readRange     string
}

// Ensure interface conformance
var (
	_ ports.TableReader  = (*Client)(nil)
	_ ports.MatrixReader = (*Client)(nil)
	_ ports.Named        = (*Client)(nil)
)

// New creates a read-only Sheets client authenticated as a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, ErrMissingSpreadsheetID
	}
	cfg, err := opts.Credentials.jwtConfig(ctx)
	if err != nil {
		return nil, err
	}

	// Token requests share the pooled transport with the API calls.
	base := ports.NewHTTPClient(opts.Timeout)
	authCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: cfg.TokenSource(authCtx),
			Base:   base.Transport,
		},
		Timeout: base.Timeout,
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", id,
		"range", rangeOrDefault(opts.Range),
		"service_account", cfg.Email)
	return newWithService(svc, id, opts.Range), nil
}

func newWithService(svc *gsheet.Service, spreadsheetID, readRange string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, readRange: rangeOrDefault(readRange)}
}

func rangeOrDefault(r string) string {
	r = strings.TrimSpace(r)
	if r == "" {
		return DefaultRange
	}
	return r
}

// jwtConfig resolves the configured credential source into a JWT config with
// the read-only spreadsheets scope.
func (c Credentials) jwtConfig(ctx context.Context) (*jwt.Config, error) {
	keyJSON := strings.TrimSpace(c.JSON)
	keyFile := strings.TrimSpace(c.File)

	switch {
	case keyJSON != "":
		slog.DebugContext(ctx, "Using inline service account JSON", "json_length", len(keyJSON))
		return configFromJSON([]byte(keyJSON))
	case keyFile != "":
		slog.DebugContext(ctx, "Reading service account key file", "path", keyFile)
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return configFromJSON(data)
	case strings.TrimSpace(c.Email) != "" && strings.TrimSpace(c.PrivateKey) != "":
		slog.DebugContext(ctx, "Using service account email and private key")
		return &jwt.Config{
			Email:      strings.TrimSpace(c.Email),
			PrivateKey: []byte(normalizePrivateKey(c.PrivateKey)),
			Scopes:     []string{gsheet.SpreadsheetsReadonlyScope},
			TokenURL:   oauthgoogle.JWTTokenURL,
		}, nil
	default:
		return nil, ErrMissingCredentials
	}
}

func configFromJSON(data []byte) (*jwt.Config, error) {
	cfg, err := oauthgoogle.JWTConfigFromJSON(data, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return cfg, nil
}

// normalizePrivateKey turns literal "\n" sequences, as found in env files,
// into real newlines.
func normalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Values returns the configured range as a string matrix, header row first.
func (c *Client) Values(ctx context.Context) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.readRange, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		out = append(out, ports.ToStrings(row))
	}
	return out, nil
}

// ReadTable implements ports.TableReader.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	values, err := c.Values(ctx)
	if err != nil {
		return core.Table{}, err
	}
	return ports.BuildTable(values)
}

func (c *Client) Source() string { return "google-sheets" }
