package igdb

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

// Client is the HTTP Executor for the external service. Requests carry the
// Client-ID header and a bearer token obtained with the OAuth2
// client-credentials grant; the oauth2 transport refreshes it on expiry.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client

	observer observability.Observer
	logger   Logger
}

// NewClient validates cfg and builds an authenticated client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("igdb: invalid config: %w", err)
	}

	timeout := time.Duration(cfg.HTTPTimeoutS) * time.Second
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	// The token exchange itself uses this client, so it shares the timeout.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := cc.Client(tokenCtx)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    cfg.BaseURL,
		clientID:   cfg.ClientID,
		httpClient: httpClient,
	}, nil
}

// WithObserver sets the observer notified of every request.
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithLogger sets the logger used for failed requests.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// Execute posts query to the endpoint and decodes the JSON array response.
// Transport failures and non-2xx responses are queryerr.ErrBackend errors.
func (c *Client) Execute(ctx context.Context, endpoint, query string) ([]Record, error) {
	start := time.Now()

	var records []Record
	err := c.postQuery(ctx, c.baseURL+"/"+endpoint, query, &records)
	c.observeOperation("execute", endpoint, "", time.Since(start), err, int64(len(records)))
	if err != nil {
		if c.logger != nil {
			c.logger.Error("external query failed", err, map[string]interface{}{
				"endpoint": endpoint,
				"query":    query,
			})
		}
		return nil, queryerr.Backend("igdb "+endpoint, err)
	}
	return records, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
