package http

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HabibaSabrina/rongin-academy-server/internal/model"
	"github.com/HabibaSabrina/rongin-academy-server/internal/repository"
)

// memStore is an in-memory repository.Store with the same error and count
// semantics as the mongo implementation.
type memStore struct {
	mu       sync.Mutex
	users    []model.User
	classes  []model.Class
	bookings []model.Booking
	payments []model.Payment
}

func newMemStore() *memStore {
	return &memStore{}
}

// users

func (m *memStore) ListUsers(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.User{}, m.users...), nil
}

func (m *memStore) ListUsersByRole(_ context.Context, role model.Role, limit int64) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) InsertUser(_ context.Context, user model.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = primitive.NewObjectID()
	m.users = append(m.users, user)
	return user.ID.Hex(), nil
}

func (m *memStore) SetUserRole(_ context.Context, id string, role model.Role) (repository.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.UpdateResult{}, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == oid {
			res := repository.UpdateResult{Matched: 1}
			if m.users[i].Role != role {
				m.users[i].Role = role
				res.Modified = 1
			}
			return res, nil
		}
	}
	return repository.UpdateResult{}, nil
}

// classes

func (m *memStore) ListClasses(_ context.Context, insEmail string) ([]model.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Class{}
	for _, c := range m.classes {
		if insEmail == "" || c.InsEmail == insEmail {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) ListPopularClasses(_ context.Context, limit int64) ([]model.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	approved := []model.Class{}
	for _, c := range m.classes {
		if c.Status == model.ClassApproved {
			approved = append(approved, c)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].Enrolled > approved[j].Enrolled
	})
	if limit > 0 && int64(len(approved)) > limit {
		approved = approved[:limit]
	}
	return approved, nil
}

func (m *memStore) FindClassByID(_ context.Context, id string) (model.Class, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Class{}, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.classes {
		if c.ID == oid {
			return c, nil
		}
	}
	return model.Class{}, repository.ErrNotFound
}

func (m *memStore) InsertClass(_ context.Context, class model.Class) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	class.ID = primitive.NewObjectID()
	m.classes = append(m.classes, class)
	return class.ID.Hex(), nil
}

func (m *memStore) SetClassFeedback(_ context.Context, id, feedback string) (repository.UpdateResult, error) {
	return m.updateClass(id, func(c *model.Class) { c.Feedback = feedback })
}

func (m *memStore) SetClassStatus(_ context.Context, id string, status model.ClassStatus) (repository.UpdateResult, error) {
	return m.updateClass(id, func(c *model.Class) { c.Status = status })
}

func (m *memStore) SetClassSeat(_ context.Context, id string, seat int) (repository.UpdateResult, error) {
	return m.updateClass(id, func(c *model.Class) { c.Seat = seat })
}

func (m *memStore) TakeClassSeat(_ context.Context, id string) (repository.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.UpdateResult{}, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.classes {
		if m.classes[i].ID == oid {
			if m.classes[i].Seat <= 0 {
				return repository.UpdateResult{}, repository.ErrNoSeats
			}
			m.classes[i].Seat--
			m.classes[i].Enrolled++
			return repository.UpdateResult{Matched: 1, Modified: 1}, nil
		}
	}
	return repository.UpdateResult{}, repository.ErrNotFound
}

func (m *memStore) updateClass(id string, apply func(*model.Class)) (repository.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.UpdateResult{}, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.classes {
		if m.classes[i].ID == oid {
			before := m.classes[i]
			apply(&m.classes[i])
			res := repository.UpdateResult{Matched: 1}
			if before != m.classes[i] {
				res.Modified = 1
			}
			return res, nil
		}
	}
	return repository.UpdateResult{}, nil
}

// bookings

func (m *memStore) ListBookingsByStudent(_ context.Context, email string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.bookings {
		if b.StudentEmail == email {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) FindBookingByID(_ context.Context, id string) (model.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Booking{}, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == oid {
			return b, nil
		}
	}
	return model.Booking{}, repository.ErrNotFound
}

func (m *memStore) FindBooking(_ context.Context, classID, studentEmail string) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ClassID == classID && b.StudentEmail == studentEmail {
			return b, nil
		}
	}
	return model.Booking{}, repository.ErrNotFound
}

func (m *memStore) InsertBooking(_ context.Context, booking model.Booking) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking.ID = primitive.NewObjectID()
	m.bookings = append(m.bookings, booking)
	return booking.ID.Hex(), nil
}

func (m *memStore) DeleteBooking(_ context.Context, id string) (repository.DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.DeleteResult{}, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.bookings {
		if b.ID == oid {
			m.bookings = append(m.bookings[:i], m.bookings[i+1:]...)
			return repository.DeleteResult{Deleted: 1}, nil
		}
	}
	return repository.DeleteResult{}, nil
}

func (m *memStore) SetBookingStatus(_ context.Context, id string, status model.BookingStatus) (repository.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.UpdateResult{}, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == oid {
			res := repository.UpdateResult{Matched: 1}
			if m.bookings[i].ClsStatus != status {
				m.bookings[i].ClsStatus = status
				res.Modified = 1
			}
			return res, nil
		}
	}
	return repository.UpdateResult{}, nil
}

// payments

func (m *memStore) ListPayments(_ context.Context, email string) ([]model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Payment{}
	for _, p := range m.payments {
		if email == "" || p.Email == email {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *memStore) InsertPayment(_ context.Context, payment model.Payment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment.ID = primitive.NewObjectID()
	m.payments = append(m.payments, payment)
	return payment.ID.Hex(), nil
}
