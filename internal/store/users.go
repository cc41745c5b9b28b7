package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"

	"github.com/cohabs/stripesync/pkg/errors"
)

// User is a tenant row.
type User struct {
	ID               string `json:"id"`
	Active           bool   `json:"active"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	PhoneNumber      string `json:"phoneNumber"`
	About            *string `json:"about"`
	StripeCustomerID string `json:"stripeCustomerId"`
}

// RecordID returns the user id.
func (u User) RecordID() string { return u.ID }

// UserColumns are the report columns of a user.
var UserColumns = []string{"active", "id", "firstName", "lastName", "stripeCustomerId"}

// ReportRow renders the user for reports.
func (u User) ReportRow() []string {
	return []string{strconv.FormatBool(u.Active), u.ID, u.FirstName, u.LastName, u.StripeCustomerID}
}

const userColumns = `id, active, firstName, lastName, email, phoneNumber, about, stripeCustomerId`

// UserRepo reads and links users.
type UserRepo struct {
	db         *sql.DB
	activeOnly bool
}

// NewUserRepo returns a UserRepo.
func NewUserRepo(db *sql.DB, activeOnly bool) *UserRepo {
	return &UserRepo{db: db, activeOnly: activeOnly}
}

// ListAll returns users ordered by id.
func (r *UserRepo) ListAll(ctx context.Context) ([]User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	if r.activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindByRemoteID returns the user linked to a customer id.
func (r *UserRepo) FindByRemoteID(ctx context.Context, customerID string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE stripeCustomerId = ?`, customerID)
	u, err := scanUser(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return User{}, errors.NewNotFoundError("users", customerID)
	}
	if err != nil {
		return User{}, errors.WrapResource("find", "users", customerID, err)
	}
	return u, nil
}

// UpdateLink sets the user's customer id.
func (r *UserRepo) UpdateLink(ctx context.Context, id, customerID string) error {
	return updateLink(ctx, r.db, `UPDATE users SET stripeCustomerId = ? WHERE id = ?`, "users", id, customerID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (User, error) {
	var (
		u                                          User
		first, last, email, phone, about, customer sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Active, &first, &last, &email, &phone, &about, &customer); err != nil {
		return User{}, err
	}
	u.FirstName = str(first)
	u.LastName = str(last)
	u.Email = str(email)
	u.PhoneNumber = str(phone)
	if about.Valid {
		u.About = &about.String
	}
	u.StripeCustomerID = str(customer)
	return u, nil
}
