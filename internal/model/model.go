package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUnset      Role = ""
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleUnset, RoleInstructor, RoleAdmin:
		return Role(value), nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

type ClassStatus string

const (
	ClassPending  ClassStatus = "pending"
	ClassApproved ClassStatus = "approved"
	ClassDenied   ClassStatus = "denied"
)

func ParseClassStatus(value string) (ClassStatus, error) {
	switch ClassStatus(value) {
	case ClassPending, ClassApproved, ClassDenied:
		return ClassStatus(value), nil
	}
	return "", fmt.Errorf("unknown class status %q", value)
}

type BookingStatus string

const (
	BookingSelected BookingStatus = "selected"
	BookingEnrolled BookingStatus = "enrolled"
)

func ParseBookingStatus(value string) (BookingStatus, error) {
	switch BookingStatus(value) {
	case BookingSelected, BookingEnrolled:
		return BookingStatus(value), nil
	}
	return "", fmt.Errorf("unknown booking status %q", value)
}

// User is a directory entry keyed by email. Role stays empty until an
// admin/instructor promotion.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name     string             `bson:"name,omitempty" json:"name,omitempty"`
	Email    string             `bson:"email" json:"email"`
	PhotoURL string             `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Role     Role               `bson:"role,omitempty" json:"role,omitempty"`
}

// Class is an instructor's listing. Seat counts down and Enrolled counts up
// as students complete enrollment.
type Class struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
	InsName  string             `bson:"insName,omitempty" json:"insName,omitempty"`
	InsEmail string             `bson:"insEmail" json:"insEmail"`
	Seat     int                `bson:"seat" json:"seat"`
	Enrolled int                `bson:"enrolled" json:"enrolled"`
	Price    float64            `bson:"price" json:"price"`
	Status   ClassStatus        `bson:"status" json:"status"`
	Feedback string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// Booking links a student to a class, moving from selected to enrolled once
// payment completes.
type Booking struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ClassID      string             `bson:"classId" json:"classId"`
	StudentEmail string             `bson:"studentEmail" json:"studentEmail"`
	ClassName    string             `bson:"className,omitempty" json:"className,omitempty"`
	Image        string             `bson:"image,omitempty" json:"image,omitempty"`
	InsEmail     string             `bson:"insEmail,omitempty" json:"insEmail,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	ClsStatus    BookingStatus      `bson:"clsStatus" json:"clsStatus"`
}

// Payment is immutable once recorded.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email         string             `bson:"email" json:"email"`
	TransactionID string             `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Amount        float64            `bson:"amount" json:"amount"`
	Date          time.Time          `bson:"date" json:"date"`
	BookingID     string             `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	ClassID       string             `bson:"classId,omitempty" json:"classId,omitempty"`
	ClassName     string             `bson:"className,omitempty" json:"className,omitempty"`
}
