package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HabibaSabrina/rongin-academy-server/internal/model"
)

// MongoStore implements Store over the four academy collections.
type MongoStore struct {
	users    *mongo.Collection
	classes  *mongo.Collection
	students *mongo.Collection
	payments *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:    db.Collection("users"),
		classes:  db.Collection("classes"),
		students: db.Collection("students"),
		payments: db.Collection("payments"),
	}
}

// users

func (s *MongoStore) ListUsers(ctx context.Context) ([]model.User, error) {
	return findUsers(ctx, s.users, bson.M{}, nil)
}

func (s *MongoStore) ListUsersByRole(ctx context.Context, role model.Role, limit int64) ([]model.User, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findUsers(ctx, s.users, bson.M{"role": role}, opts)
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrNotFound
	}
	return user, err
}

func (s *MongoStore) InsertUser(ctx context.Context, user model.User) (string, error) {
	return insertOne(ctx, s.users, user)
}

func (s *MongoStore) SetUserRole(ctx context.Context, id string, role model.Role) (UpdateResult, error) {
	return updateByID(ctx, s.users, id, bson.M{"$set": bson.M{"role": role}})
}

// classes

func (s *MongoStore) ListClasses(ctx context.Context, insEmail string) ([]model.Class, error) {
	filter := bson.M{}
	if insEmail != "" {
		filter["insEmail"] = insEmail
	}
	return findClasses(ctx, s.classes, filter, nil)
}

func (s *MongoStore) ListPopularClasses(ctx context.Context, limit int64) ([]model.Class, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "enrolled", Value: -1}}).
		SetLimit(limit)
	return findClasses(ctx, s.classes, bson.M{"status": model.ClassApproved}, opts)
}

func (s *MongoStore) FindClassByID(ctx context.Context, id string) (model.Class, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Class{}, ErrInvalidID
	}
	var class model.Class
	err = s.classes.FindOne(ctx, bson.M{"_id": oid}).Decode(&class)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Class{}, ErrNotFound
	}
	return class, err
}

func (s *MongoStore) InsertClass(ctx context.Context, class model.Class) (string, error) {
	return insertOne(ctx, s.classes, class)
}

func (s *MongoStore) SetClassFeedback(ctx context.Context, id, feedback string) (UpdateResult, error) {
	return updateByID(ctx, s.classes, id, bson.M{"$set": bson.M{"feedback": feedback}})
}

func (s *MongoStore) SetClassStatus(ctx context.Context, id string, status model.ClassStatus) (UpdateResult, error) {
	return updateByID(ctx, s.classes, id, bson.M{"$set": bson.M{"status": status}})
}

func (s *MongoStore) SetClassSeat(ctx context.Context, id string, seat int) (UpdateResult, error) {
	return updateByID(ctx, s.classes, id, bson.M{"$set": bson.M{"seat": seat}})
}

// TakeClassSeat decrements seat and increments enrolled in one document
// update, guarded so the seat count never goes below zero. Returns ErrNoSeats
// when the class exists but is full.
func (s *MongoStore) TakeClassSeat(ctx context.Context, id string) (UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return UpdateResult{}, ErrInvalidID
	}
	res, err := s.classes.UpdateOne(ctx,
		bson.M{"_id": oid, "seat": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"seat": -1, "enrolled": 1}},
	)
	if err != nil {
		return UpdateResult{}, err
	}
	if res.MatchedCount == 0 {
		if _, err := s.FindClassByID(ctx, id); err != nil {
			return UpdateResult{}, err
		}
		return UpdateResult{}, ErrNoSeats
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// bookings

func (s *MongoStore) ListBookingsByStudent(ctx context.Context, email string) ([]model.Booking, error) {
	cursor, err := s.students.Find(ctx, bson.M{"studentEmail": email})
	if err != nil {
		return nil, err
	}
	bookings := []model.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *MongoStore) FindBookingByID(ctx context.Context, id string) (model.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Booking{}, ErrInvalidID
	}
	var booking model.Booking
	err = s.students.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Booking{}, ErrNotFound
	}
	return booking, err
}

func (s *MongoStore) FindBooking(ctx context.Context, classID, studentEmail string) (model.Booking, error) {
	var booking model.Booking
	err := s.students.FindOne(ctx, bson.M{"classId": classID, "studentEmail": studentEmail}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Booking{}, ErrNotFound
	}
	return booking, err
}

func (s *MongoStore) InsertBooking(ctx context.Context, booking model.Booking) (string, error) {
	return insertOne(ctx, s.students, booking)
}

func (s *MongoStore) DeleteBooking(ctx context.Context, id string) (DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return DeleteResult{}, ErrInvalidID
	}
	res, err := s.students.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Deleted: res.DeletedCount}, nil
}

func (s *MongoStore) SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) (UpdateResult, error) {
	return updateByID(ctx, s.students, id, bson.M{"$set": bson.M{"clsStatus": status}})
}

// payments

func (s *MongoStore) ListPayments(ctx context.Context, email string) ([]model.Payment, error) {
	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := s.payments.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	payments := []model.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *MongoStore) InsertPayment(ctx context.Context, payment model.Payment) (string, error) {
	return insertOne(ctx, s.payments, payment)
}

// helpers

func findUsers(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]model.User, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = coll.Find(ctx, filter, opts)
	} else {
		cursor, err = coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	users := []model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func findClasses(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]model.Class, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = coll.Find(ctx, filter, opts)
	} else {
		cursor, err = coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	classes := []model.Class{}
	if err := cursor.All(ctx, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) (string, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return "", nil
}

func updateByID(ctx context.Context, coll *mongo.Collection, id string, update bson.M) (UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return UpdateResult{}, ErrInvalidID
	}
	res, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}
