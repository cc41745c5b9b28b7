package billing

import (
	"context"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/cohabs/stripesync/pkg/errors"
)

const provider = "stripe"

// translate maps a stripe-go error to the stripesync error taxonomy.
// A missing resource becomes a NotFoundError; every other API failure
// becomes an APIError carrying the provider message.
func translate(ctx context.Context, err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errors.Join(errors.ErrCanceled, err)
	}

	var se *stripe.Error
	if !errors.As(err, &se) {
		return errors.WrapAPI(provider, 0, errors.WrapResource("call", kind, id, err))
	}
	if se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing {
		return &errors.NotFoundError{Resource: kind, ID: id}
	}
	apiErr := errors.NewAPIError(provider, se.HTTPStatusCode, se.Msg)
	apiErr.Code = string(se.Code)
	apiErr.Err = err
	return apiErr
}
