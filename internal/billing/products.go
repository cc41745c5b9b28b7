package billing

import (
	"context"

	"github.com/stripe/stripe-go/v79"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// ProductPayload is the data a new product is created from. The product
// carries a default monthly price.
type ProductPayload struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Active      bool              `json:"active"`
	UnitAmount  int64             `json:"unit_amount"`
	Metadata    map[string]string `json:"metadata"`
}

// Products is the product remote.
type Products struct {
	c *Client
}

// Products returns the product remote.
func (c *Client) Products() *Products {
	return &Products{c: c}
}

// Kind implements reconcile.Remote.
func (r *Products) Kind() string { return "product" }

// List implements reconcile.Remote.
func (r *Products) List(ctx context.Context, limit int) ([]reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripe.ProductListParams{}
	r.c.listParams(ctx, &params.ListParams, limit)

	var out []reconcile.Resource
	iter := r.c.api.Products.List(params)
	for iter.Next() {
		prod := iter.Product()
		out = append(out, reconcile.Resource{ID: prod.ID, Deleted: prod.Deleted})
	}
	if err := iter.Err(); err != nil {
		return nil, translate(ctx, err, r.Kind(), "")
	}
	return out, nil
}

// Retrieve implements reconcile.Remote.
func (r *Products) Retrieve(ctx context.Context, id string) (reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	params := &stripe.ProductParams{}
	r.c.params(ctx, &params.Params)

	prod, err := r.c.api.Products.Get(id, params)
	if err != nil {
		return reconcile.Resource{}, translate(ctx, err, r.Kind(), id)
	}
	return reconcile.Resource{ID: prod.ID, Deleted: prod.Deleted}, nil
}

// Create implements reconcile.Remote.
func (r *Products) Create(ctx context.Context, p ProductPayload, opts reconcile.CreateOptions) (reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	params := ProductParams(p)
	r.c.params(ctx, &params.Params)
	if opts.IdempotencyKey != "" {
		params.SetIdempotencyKey(opts.IdempotencyKey)
	}
	prod, err := r.c.api.Products.New(params)
	if err != nil {
		return reconcile.Resource{}, translate(ctx, err, r.Kind(), "")
	}
	return reconcile.Resource{ID: prod.ID}, nil
}

// ProductParams builds the creation parameters of p.
func ProductParams(p ProductPayload) *stripe.ProductParams {
	params := &stripe.ProductParams{
		Name:   stripe.String(p.Name),
		Active: stripe.Bool(p.Active),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(constants.Currency),
			UnitAmount: stripe.Int64(p.UnitAmount),
			Recurring: &stripe.ProductDefaultPriceDataRecurringParams{
				Interval: stripe.String(constants.BillingInterval),
			},
		},
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}
