// Package repository defines the storage contract for the academy server and
// its MongoDB implementation. Handlers depend on the Store interface so tests
// can substitute an in-memory store.
package repository

import (
	"context"
	"errors"

	"github.com/HabibaSabrina/rongin-academy-server/internal/model"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned when a path identifier is not a valid object id.
var ErrInvalidID = errors.New("invalid id")

// ErrNoSeats is returned when a seat decrement would take the count below zero.
var ErrNoSeats = errors.New("no seats left")

// UpdateResult mirrors the driver's matched/modified counts so handlers can
// report them to clients.
type UpdateResult struct {
	Matched  int64 `json:"matchedCount"`
	Modified int64 `json:"modifiedCount"`
}

// DeleteResult carries the number of documents removed.
type DeleteResult struct {
	Deleted int64 `json:"deletedCount"`
}

type Store interface {
	// users
	ListUsers(ctx context.Context) ([]model.User, error)
	ListUsersByRole(ctx context.Context, role model.Role, limit int64) ([]model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	InsertUser(ctx context.Context, user model.User) (string, error)
	SetUserRole(ctx context.Context, id string, role model.Role) (UpdateResult, error)

	// classes
	ListClasses(ctx context.Context, insEmail string) ([]model.Class, error)
	ListPopularClasses(ctx context.Context, limit int64) ([]model.Class, error)
	FindClassByID(ctx context.Context, id string) (model.Class, error)
	InsertClass(ctx context.Context, class model.Class) (string, error)
	SetClassFeedback(ctx context.Context, id, feedback string) (UpdateResult, error)
	SetClassStatus(ctx context.Context, id string, status model.ClassStatus) (UpdateResult, error)
	SetClassSeat(ctx context.Context, id string, seat int) (UpdateResult, error)
	TakeClassSeat(ctx context.Context, id string) (UpdateResult, error)

	// bookings
	ListBookingsByStudent(ctx context.Context, email string) ([]model.Booking, error)
	FindBookingByID(ctx context.Context, id string) (model.Booking, error)
	FindBooking(ctx context.Context, classID, studentEmail string) (model.Booking, error)
	InsertBooking(ctx context.Context, booking model.Booking) (string, error)
	DeleteBooking(ctx context.Context, id string) (DeleteResult, error)
	SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) (UpdateResult, error)

	// payments
	ListPayments(ctx context.Context, email string) ([]model.Payment, error)
	InsertPayment(ctx context.Context, payment model.Payment) (string, error)
}
