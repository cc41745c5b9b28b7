package billing

import (
	"context"

	"github.com/stripe/stripe-go/v79"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// SubscriptionPayload is the data a new subscription is created from: one
// monthly item priced inline against an existing product.
type SubscriptionPayload struct {
	Customer   string            `json:"customer"`
	Product    string            `json:"product"`
	UnitAmount int64             `json:"unit_amount"`
	Metadata   map[string]string `json:"metadata"`
}

// Subscriptions is the subscription remote.
//
// Subscriptions are never deleted, only canceled; a canceled subscription
// counts as deleted. The default listing excludes canceled subscriptions
// too, so both check modes agree.
type Subscriptions struct {
	c *Client
}

// Subscriptions returns the subscription remote.
func (c *Client) Subscriptions() *Subscriptions {
	return &Subscriptions{c: c}
}

// Kind implements reconcile.Remote.
func (r *Subscriptions) Kind() string { return "subscription" }

// List implements reconcile.Remote.
func (r *Subscriptions) List(ctx context.Context, limit int) ([]reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripe.SubscriptionListParams{}
	r.c.listParams(ctx, &params.ListParams, limit)

	var out []reconcile.Resource
	iter := r.c.api.Subscriptions.List(params)
	for iter.Next() {
		out = append(out, subscriptionResource(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, translate(ctx, err, r.Kind(), "")
	}
	return out, nil
}

// Retrieve implements reconcile.Remote.
func (r *Subscriptions) Retrieve(ctx context.Context, id string) (reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	params := &stripe.SubscriptionParams{}
	r.c.params(ctx, &params.Params)

	sub, err := r.c.api.Subscriptions.Get(id, params)
	if err != nil {
		return reconcile.Resource{}, translate(ctx, err, r.Kind(), id)
	}
	return subscriptionResource(sub), nil
}

// Create implements reconcile.Remote.
func (r *Subscriptions) Create(ctx context.Context, p SubscriptionPayload, opts reconcile.CreateOptions) (reconcile.Resource, error) {
	if err := r.c.wait(ctx); err != nil {
		return reconcile.Resource{}, err
	}
	params := SubscriptionParams(p)
	r.c.params(ctx, &params.Params)
	if opts.IdempotencyKey != "" {
		params.SetIdempotencyKey(opts.IdempotencyKey)
	}
	sub, err := r.c.api.Subscriptions.New(params)
	if err != nil {
		return reconcile.Resource{}, translate(ctx, err, r.Kind(), "")
	}
	return subscriptionResource(sub), nil
}

// SubscriptionParams builds the creation parameters of p.
func SubscriptionParams(p SubscriptionPayload) *stripe.SubscriptionParams {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.Customer),
		Items: []*stripe.SubscriptionItemsParams{{
			PriceData: &stripe.SubscriptionItemPriceDataParams{
				Currency:   stripe.String(constants.Currency),
				Product:    stripe.String(p.Product),
				UnitAmount: stripe.Int64(p.UnitAmount),
				Recurring: &stripe.SubscriptionItemPriceDataRecurringParams{
					Interval: stripe.String(constants.BillingInterval),
				},
			},
		}},
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func subscriptionResource(sub *stripe.Subscription) reconcile.Resource {
	return reconcile.Resource{
		ID:      sub.ID,
		Deleted: sub.Status == stripe.SubscriptionStatusCanceled,
	}
}
