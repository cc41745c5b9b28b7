// Package billing is the Stripe side of stripesync. It exposes one
// reconcile.Remote per resource kind (customers, products, subscriptions)
// over a shared, rate limited stripe-go client.
package billing

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"golang.org/x/time/rate"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/logging"
)

// Config configures a Client.
type Config struct {
	SecretKey string
	// Account is sent as the Stripe-Account header when set.
	Account string
	// RateLimit is the number of requests per second. Zero uses the default.
	RateLimit float64
	// URL overrides the API endpoint.
	URL string
	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
	// PaymentToken is the card token used for new customers' default
	// payment method.
	PaymentToken string
}

// DefaultPaymentToken is Stripe's test Mastercard token.
const DefaultPaymentToken = "tok_mastercard"

// Client wraps the stripe-go API client.
type Client struct {
	api     *client.API
	account string
	token   string
	limiter *rate.Limiter
}

// New creates a Client. The API key must be set.
func New(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.NewConfigError("stripe", "secret key is required", nil)
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = constants.DefaultRateLimit
	}
	token := cfg.PaymentToken
	if token == "" {
		token = DefaultPaymentToken
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     leveledLogger{log: logging.Default()},
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	}
	if cfg.URL != "" {
		backendCfg.URL = stripe.String(cfg.URL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &Client{
		api:     client.New(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend}),
		account: cfg.Account,
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(limit), constants.BurstSize),
	}, nil
}

// wait blocks until the limiter admits one request.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return errors.Join(errors.ErrCanceled, ctx.Err())
		}
		return err
	}
	return nil
}

// params prepares the common request parameters.
func (c *Client) params(ctx context.Context, p *stripe.Params) {
	p.Context = ctx
	if c.account != "" {
		p.SetStripeAccount(c.account)
	}
}

func (c *Client) listParams(ctx context.Context, p *stripe.ListParams, limit int) {
	p.Context = ctx
	p.Limit = stripe.Int64(int64(limit))
	p.Single = true
	if c.account != "" {
		p.SetStripeAccount(c.account)
	}
}

// leveledLogger routes stripe-go's own logging through zerolog. Request
// errors are reported by the callers, so stripe-go's error lines go to debug.
type leveledLogger struct {
	log *zerolog.Logger
}

func (l leveledLogger) Debugf(format string, v ...any) {
	l.log.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (l leveledLogger) Infof(format string, v ...any) {
	l.log.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (l leveledLogger) Warnf(format string, v ...any) {
	l.log.Warn().Str("component", "stripe").Msgf(format, v...)
}

func (l leveledLogger) Errorf(format string, v ...any) {
	l.log.Debug().Str("component", "stripe").Msgf(format, v...)
}
