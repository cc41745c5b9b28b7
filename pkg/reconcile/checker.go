package reconcile

import (
	"context"
	"fmt"

	"github.com/cohabs/stripesync/pkg/errors"
)

// CheckMode selects how link validity is established.
type CheckMode string

const (
	// CheckProbe retrieves every linked resource individually.
	CheckProbe CheckMode = "probe"
	// CheckListing compares links against one bounded listing.
	CheckListing CheckMode = "listing"
)

// ParseCheckMode converts a string to a CheckMode.
func ParseCheckMode(s string) (CheckMode, error) {
	switch CheckMode(s) {
	case CheckProbe, "":
		return CheckProbe, nil
	case CheckListing:
		return CheckListing, nil
	default:
		return "", errors.NewValidationError("check_mode", s, "must be one of: probe, listing")
	}
}

// Checker decides whether a remote link is live.
//
// A Checker returns (false, nil) for links whose resource is absent or
// deleted, and a non-nil error only when liveness could not be determined.
type Checker interface {
	Check(ctx context.Context, link string) (bool, error)
}

// Listing is a set-membership Checker built from one listing page.
type Listing struct {
	ids map[string]struct{}
}

// NewListing builds a Listing from resources. Deleted resources are not live.
func NewListing(resources []Resource) *Listing {
	ids := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		if r.Deleted || r.ID == "" {
			continue
		}
		ids[r.ID] = struct{}{}
	}
	return &Listing{ids: ids}
}

// Check implements Checker.
func (l *Listing) Check(_ context.Context, link string) (bool, error) {
	_, ok := l.ids[link]
	return ok, nil
}

// Len returns the number of live resources in the listing.
func (l *Listing) Len() int {
	return len(l.ids)
}

// Probe is a Checker that retrieves each linked resource.
type Probe[P any] struct {
	remote Remote[P]
}

// NewProbe returns a Probe backed by remote.
func NewProbe[P any](remote Remote[P]) *Probe[P] {
	return &Probe[P]{remote: remote}
}

// Check implements Checker.
func (p *Probe[P]) Check(ctx context.Context, link string) (bool, error) {
	res, err := p.remote.Retrieve(ctx, link)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if res.Deleted || res.ID == "" {
		return false, nil
	}
	return true, nil
}

func brokenMessage(resource string) string {
	if resource == "" {
		resource = "Resource"
	}
	return fmt.Sprintf("%s missing or deleted", resource)
}
