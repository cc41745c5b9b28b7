package billing

import (
	"context"

	"github.com/stripe/stripe-go/v79"

	"github.com/cohabs/stripesync/pkg/logging"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// CustomerPayload is the data a new customer is created from.
type CustomerPayload struct {
	Description string            `json:"description"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	Metadata    map[string]string `json:"metadata"`
}

// Customers is the customer remote.
type Customers struct {
	c *Client
}

// Customers returns the customer remote.
func (c *Client) Customers() *Customers {
	return &Customers{c: c}
}

// Kind implements reconcile.Remote.
func (r *Customers) Kind() string { return "customer" }

// List implements reconcile.Remote.
func (r *Customers) List(ctx context.Context, limit int) ([]reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripe.CustomerListParams{}
	r.c.listParams(ctx, &params.ListParams, limit)

	var out []reconcile.Resource
	iter := r.c.api.Customers.List(params)
	for iter.Next() {
		cus := iter.Customer()
		out = append(out, reconcile.Resource{ID: cus.ID, Deleted: cus.Deleted})
	}
	if err := iter.Err(); err != nil {
		return nil, translate(ctx, err, r.Kind(), "")
	}
	return out, nil
}

// Retrieve implements reconcile.Remote.
func (r *Customers) Retrieve(ctx context.Context, id string) (reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	params := &stripe.CustomerParams{}
	r.c.params(ctx, &params.Params)

	cus, err := r.c.api.Customers.Get(id, params)
	if err != nil {
		return reconcile.Resource{}, translate(ctx, err, r.Kind(), id)
	}
	return reconcile.Resource{ID: cus.ID, Deleted: cus.Deleted}, nil
}

// Create implements reconcile.Remote. Besides the customer it creates a
// card payment method, attaches it and makes it the invoice default. Any
// failing step aborts the creation.
func (r *Customers) Create(ctx context.Context, p CustomerPayload, opts reconcile.CreateOptions) (reconcile.Resource, error) {
	log := logging.FromContext(ctx)

	pm, err := r.newPaymentMethod(ctx, opts)
	if err != nil {
		return reconcile.Resource{}, err
	}

	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	params := CustomerParams(p)
	r.c.params(ctx, &params.Params)
	if opts.IdempotencyKey != "" {
		params.SetIdempotencyKey(opts.IdempotencyKey)
	}
	cus, err := r.c.api.Customers.New(params)
	if err != nil {
		return reconcile.Resource{}, translate(ctx, err, r.Kind(), "")
	}
	log.Debug().Str("customer_id", cus.ID).Str("payment_method_id", pm).Msg("Customer created")

	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	attach := &stripe.PaymentMethodAttachParams{Customer: stripe.String(cus.ID)}
	r.c.params(ctx, &attach.Params)
	if _, err := r.c.api.PaymentMethods.Attach(pm, attach); err != nil {
		return reconcile.Resource{}, translate(ctx, err, "payment_method", pm)
	}

	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	update := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(pm),
		},
	}
	r.c.params(ctx, &update.Params)
	if _, err := r.c.api.Customers.Update(cus.ID, update); err != nil {
		return reconcile.Resource{}, translate(ctx, err, r.Kind(), cus.ID)
	}

	return reconcile.Resource{ID: cus.ID}, nil
}

func (r *Customers) newPaymentMethod(ctx context.Context, opts reconcile.CreateOptions) (string, error) {
	if err := r.c.wait(ctx); err != nil {
		return "", err
	}
	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{Token: stripe.String(r.c.token)},
	}
	r.c.params(ctx, &params.Params)
	if opts.IdempotencyKey != "" {
		params.SetIdempotencyKey(opts.IdempotencyKey + "-payment-method")
	}
	pm, err := r.c.api.PaymentMethods.New(params)
	if err != nil {
		return "", translate(ctx, err, "payment_method", "")
	}
	return pm.ID, nil
}

// CustomerParams builds the creation parameters of p.
func CustomerParams(p CustomerPayload) *stripe.CustomerParams {
	params := &stripe.CustomerParams{
		Description: stripe.String(p.Description),
		Email:       stripe.String(p.Email),
		Name:        stripe.String(p.Name),
		Phone:       stripe.String(p.Phone),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}
