package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/cohabs/stripesync/pkg/errors"
)

// Lease is a row of the lease view: the lease joined with its tenant and
// its room's house.
type Lease struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	RoomID               string     `json:"roomId"`
	HouseID              string     `json:"houseId"`
	Name                 string     `json:"name"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	RentAmount           string     `json:"rentAmount"`
	StartDate            *time.Time `json:"startDate,omitempty"`
	EndDate              *time.Time `json:"endDate,omitempty"`
	StripeCustomerID     string     `json:"stripeCustomerId"`
	StripeProductID      string     `json:"stripeProductId"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId"`
}

// RecordID returns the lease id.
func (l Lease) RecordID() string { return l.ID }

// LeaseColumns are the report columns of a lease.
var LeaseColumns = []string{
	"id", "name", "firstName", "lastName", "roomId", "houseId",
	"stripeCustomerId", "stripeProductId", "stripeSubscriptionId",
}

// ReportRow renders the lease for reports.
func (l Lease) ReportRow() []string {
	return []string{
		l.ID, l.Name, l.FirstName, l.LastName, l.RoomID, l.HouseID,
		l.StripeCustomerID, l.StripeProductID, l.StripeSubscriptionID,
	}
}

const leaseView = `
SELECT
	l.id,
	l.userId,
	l.startDate,
	l.endDate,
	l.rentAmount,
	l.name,
	l.stripeSubscriptionId,
	hr.houseId,
	hr.roomId,
	hr.stripeProductId,
	us.stripeCustomerId,
	us.lastName,
	us.firstName
FROM leases l
LEFT JOIN (
	SELECT u.id AS userId, u.lastName, u.firstName, u.stripeCustomerId
	FROM users u
) us ON us.userId = l.userId
LEFT JOIN (
	SELECT h.id AS houseId, r.id AS roomId, r.stripeProductId
	FROM rooms r
	LEFT JOIN houses h ON h.id = r.houseId
) hr ON hr.roomId = l.roomId`

// LeaseRepo reads and links leases.
type LeaseRepo struct {
	db *sql.DB
}

// NewLeaseRepo returns a LeaseRepo.
func NewLeaseRepo(db *sql.DB) *LeaseRepo {
	return &LeaseRepo{db: db}
}

// ListAll returns every lease of the view ordered by id.
func (r *LeaseRepo) ListAll(ctx context.Context) ([]Lease, error) {
	rows, err := r.db.QueryContext(ctx, leaseView+` ORDER BY l.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

// FindByRemoteID returns the lease linked to a subscription id.
func (r *LeaseRepo) FindByRemoteID(ctx context.Context, subscriptionID string) (Lease, error) {
	row := r.db.QueryRowContext(ctx, leaseView+` WHERE l.stripeSubscriptionId = ?`, subscriptionID)
	l, err := scanLease(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Lease{}, errors.NewNotFoundError("leases", subscriptionID)
	}
	if err != nil {
		return Lease{}, errors.WrapResource("find", "leases", subscriptionID, err)
	}
	return l, nil
}

// UpdateLink sets the lease's subscription id.
func (r *LeaseRepo) UpdateLink(ctx context.Context, id, subscriptionID string) error {
	return updateLink(ctx, r.db, `UPDATE leases SET stripeSubscriptionId = ? WHERE id = ?`, "leases", id, subscriptionID)
}

func scanLease(s scanner) (Lease, error) {
	var (
		l                                Lease
		userID, rent, name, subscription sql.NullString
		house, room, product, customer   sql.NullString
		last, first                      sql.NullString
		start, end                       sql.NullTime
	)
	err := s.Scan(&l.ID, &userID, &start, &end, &rent, &name, &subscription,
		&house, &room, &product, &customer, &last, &first)
	if err != nil {
		return Lease{}, err
	}
	l.UserID = str(userID)
	l.RentAmount = str(rent)
	l.Name = str(name)
	l.StripeSubscriptionID = str(subscription)
	l.HouseID = str(house)
	l.RoomID = str(room)
	l.StripeProductID = str(product)
	l.StripeCustomerID = str(customer)
	l.LastName = str(last)
	l.FirstName = str(first)
	if start.Valid {
		l.StartDate = &start.Time
	}
	if end.Valid {
		l.EndDate = &end.Time
	}
	return l, nil
}
