// Package plaid is a minimal client for the Plaid REST API covering link,
// item, account, transaction and holdings endpoints.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout   = 180 * time.Second // large transaction windows page slowly
	defaultPageSize  = 500
	defaultVersion   = "2020-09-14"
	linkTokenPath    = "/link/token/create"
	exchangePath     = "/item/public_token/exchange"
	itemGetPath      = "/item/get"
	itemRemovePath   = "/item/remove"
	institutionPath  = "/institutions/get_by_id"
	accountsPath     = "/accounts/get"
	transactionsPath = "/transactions/get"
	holdingsPath     = "/investments/holdings/get"
)

var baseURLs = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

var ErrUnknownEnvironment = errors.New("unknown plaid environment")

type Config struct {
	ClientID     string
	Secret       string
	Environment  string
	APIVersion   string
	ClientName   string
	CountryCodes []string
	Language     string
	RedirectURI  string
	Webhook      string
	Products     []string
	PageSize     int

	// BaseURL overrides the environment's host.
	BaseURL    string
	HTTPClient *http.Client
}

// Client handles communication with the Plaid API
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        Config
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		if baseURL, ok = baseURLs[strings.ToLower(cfg.Environment)]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, cfg.Environment)
		}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultVersion
	}
	if cfg.PageSize <= 0 || cfg.PageSize > defaultPageSize {
		cfg.PageSize = defaultPageSize
	}
	if len(cfg.CountryCodes) == 0 {
		cfg.CountryCodes = []string{"US"}
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cfg:        cfg,
	}, nil
}

// post sends body as JSON and decodes a 2xx response into out. Transport
// failures, non-2xx answers and undecodable bodies come back as *ProviderError.
// Marshal and request-construction errors are returned wrapped, and a done
// context returns ctx.Err().
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", c.cfg.ClientID)
	req.Header.Set("PLAID-SECRET", c.cfg.Secret)
	req.Header.Set("Plaid-Version", c.cfg.APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ProviderError{
			ErrorType:    "API_ERROR",
			ErrorCode:    ErrCodeUnreachable,
			ErrorMessage: err.Error(),
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{
			StatusCode:   resp.StatusCode,
			ErrorType:    "API_ERROR",
			ErrorCode:    ErrCodeInvalidResponse,
			ErrorMessage: fmt.Sprintf("failed to read response body: %v", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		if err := json.Unmarshal(data, &eb); err != nil || eb.ErrorCode == "" {
			return &ProviderError{
				StatusCode:   resp.StatusCode,
				ErrorType:    "API_ERROR",
				ErrorCode:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
				ErrorMessage: strings.TrimSpace(string(data)),
			}
		}
		return &ProviderError{
			StatusCode:     resp.StatusCode,
			ErrorCode:      eb.ErrorCode,
			ErrorType:      eb.ErrorType,
			ErrorMessage:   eb.ErrorMessage,
			DisplayMessage: eb.DisplayMessage,
			RequestID:      eb.RequestID,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ProviderError{
			StatusCode:   resp.StatusCode,
			ErrorType:    "API_ERROR",
			ErrorCode:    ErrCodeInvalidResponse,
			ErrorMessage: fmt.Sprintf("failed to unmarshal response: %v", err),
		}
	}
	return nil
}

type linkUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenBody struct {
	ClientName   string   `json:"client_name"`
	Language     string   `json:"language"`
	CountryCodes []string `json:"country_codes"`
	User         linkUser `json:"user"`
	Products     []string `json:"products,omitempty"`
	AccessToken  string   `json:"access_token,omitempty"`
	RedirectURI  string   `json:"redirect_uri,omitempty"`
	Webhook      string   `json:"webhook,omitempty"`
}

// CreateLinkToken starts a Link session. Products are omitted in update mode.
func (c *Client) CreateLinkToken(ctx context.Context, lr LinkTokenRequest) (*LinkToken, error) {
	body := linkTokenBody{
		ClientName:   c.cfg.ClientName,
		Language:     c.cfg.Language,
		CountryCodes: c.cfg.CountryCodes,
		User:         linkUser{ClientUserID: lr.ClientUserID},
		RedirectURI:  c.cfg.RedirectURI,
		Webhook:      c.cfg.Webhook,
	}
	if lr.AccessToken != "" {
		body.AccessToken = lr.AccessToken
	} else {
		body.Products = c.cfg.Products
	}

	var out LinkToken
	if err := c.post(ctx, linkTokenPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	var out Exchange
	if err := c.post(ctx, exchangePath, map[string]string{"public_token": publicToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetItem(ctx context.Context, accessToken string) (*Item, error) {
	var out struct {
		Item Item `json:"item"`
	}
	if err := c.post(ctx, itemGetPath, map[string]string{"access_token": accessToken}, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

func (c *Client) GetInstitutionByID(ctx context.Context, institutionID string) (*Institution, error) {
	body := struct {
		InstitutionID string   `json:"institution_id"`
		CountryCodes  []string `json:"country_codes"`
	}{institutionID, c.cfg.CountryCodes}

	var out struct {
		Institution Institution `json:"institution"`
	}
	if err := c.post(ctx, institutionPath, body, &out); err != nil {
		return nil, err
	}
	return &out.Institution, nil
}

// RemoveItem revokes the access token and deletes the item upstream.
func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	return c.post(ctx, itemRemovePath, map[string]string{"access_token": accessToken}, nil)
}

func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var out struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.post(ctx, accountsPath, map[string]string{"access_token": accessToken}, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

type transactionsOptions struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

type transactionsBody struct {
	AccessToken string              `json:"access_token"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date"`
	Options     transactionsOptions `json:"options"`
}

// GetTransactions pages through /transactions/get until total_transactions
// records have been read or a page comes back empty.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error) {
	body := transactionsBody{
		AccessToken: accessToken,
		StartDate:   start.Format(time.DateOnly),
		EndDate:     end.Format(time.DateOnly),
		Options:     transactionsOptions{Count: c.cfg.PageSize},
	}

	var all []Transaction
	for {
		var page struct {
			Transactions      []Transaction `json:"transactions"`
			TotalTransactions int           `json:"total_transactions"`
		}
		if err := c.post(ctx, transactionsPath, body, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Transactions...)
		if len(page.Transactions) == 0 || len(all) >= page.TotalTransactions {
			return all, nil
		}
		body.Options.Offset = len(all)
	}
}

func (c *Client) GetHoldings(ctx context.Context, accessToken string) (*Holdings, error) {
	var out Holdings
	if err := c.post(ctx, holdingsPath, map[string]string{"access_token": accessToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
