package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"

	"github.com/cohabs/stripesync/pkg/errors"
)

// Room is a rentable room row.
type Room struct {
	ID              string `json:"id"`
	Active          bool   `json:"active"`
	HouseID         string `json:"houseId"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	Rent            string `json:"rent"`
	StripeProductID string `json:"stripeProductId"`
}

// RecordID returns the room id.
func (r Room) RecordID() string { return r.ID }

// RoomColumns are the report columns of a room.
var RoomColumns = []string{"active", "id", "houseId", "stripeProductId"}

// ReportRow renders the room for reports.
func (r Room) ReportRow() []string {
	return []string{strconv.FormatBool(r.Active), r.ID, r.HouseID, r.StripeProductID}
}

const roomColumns = `id, active, houseId, location, description, rent, stripeProductId`

// RoomRepo reads and links rooms.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// ListAll returns every room ordered by id.
func (r *RoomRepo) ListAll(ctx context.Context) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// FindByRemoteID returns the room linked to a product id.
func (r *RoomRepo) FindByRemoteID(ctx context.Context, productID string) (Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE stripeProductId = ?`, productID)
	room, err := scanRoom(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Room{}, errors.NewNotFoundError("rooms", productID)
	}
	if err != nil {
		return Room{}, errors.WrapResource("find", "rooms", productID, err)
	}
	return room, nil
}

// UpdateLink sets the room's product id.
func (r *RoomRepo) UpdateLink(ctx context.Context, id, productID string) error {
	return updateLink(ctx, r.db, `UPDATE rooms SET stripeProductId = ? WHERE id = ?`, "rooms", id, productID)
}

func scanRoom(s scanner) (Room, error) {
	var (
		room                                        Room
		house, location, description, rent, product sql.NullString
	)
	if err := s.Scan(&room.ID, &room.Active, &house, &location, &description, &rent, &product); err != nil {
		return Room{}, err
	}
	room.HouseID = str(house)
	room.Location = str(location)
	room.Description = str(description)
	room.Rent = str(rent)
	room.StripeProductID = str(product)
	return room, nil
}
