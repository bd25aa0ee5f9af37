package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/medcare/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserEmail      string             `bson:"userEmail"`
	UserName       string             `bson:"userName,omitempty"`
	Pickup         string             `bson:"pickup,omitempty"`
	Destination    string             `bson:"destination,omitempty"`
	Priority       string             `bson:"priority,omitempty"`
	PatientName    string             `bson:"patientName,omitempty"`
	PatientContact string             `bson:"patientContact,omitempty"`
	AmbulanceType  string             `bson:"ambulanceType,omitempty"`
	AdditionalInfo string             `bson:"additionalInfo,omitempty"`
	DriverID       string             `bson:"driverId,omitempty"`
	Status         string             `bson:"status"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

type MongoBookingRepository struct {
	coll *mongo.Collection
}

func NewMongoBookingRepository(db *mongo.Database, collection string) *MongoBookingRepository {
	return &MongoBookingRepository{coll: db.Collection(collection)}
}

// Connect opens a pooled client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes backing the list queries.
func (r *MongoBookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "driverId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *MongoBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	prepareInsert(booking)
	res, err := r.coll.InsertOne(ctx, fromDomain(booking))
	if err != nil {
		return err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	booking.ID = oid.Hex()
	return nil
}

func (r *MongoBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var doc bookingDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomain(doc), nil
}

func (r *MongoBookingRepository) ListByUser(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{"userEmail": email})
}

func (r *MongoBookingRepository) ListByDriver(ctx context.Context, driverID string, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	return r.find(ctx, driverFilter(driverID, statuses))
}

func (r *MongoBookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *MongoBookingRepository) Update(ctx context.Context, id string, update domain.BookingUpdate) (*domain.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bookingDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDocument(update, storedTime(time.Now())), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomain(doc), nil
}

func (r *MongoBookingRepository) find(ctx context.Context, filter bson.M) ([]domain.Booking, error) {
	cur, err := r.coll.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	bookings := make([]domain.Booking, 0, len(docs))
	for _, d := range docs {
		bookings = append(bookings, *toDomain(d))
	}
	return bookings, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// prepareInsert rounds the timestamps to what BSON stores, so the returned
// booking matches later reads.
func prepareInsert(booking *domain.Booking) {
	booking.CreatedAt = storedTime(booking.CreatedAt)
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = booking.CreatedAt
	}
	booking.UpdatedAt = storedTime(booking.UpdatedAt)
}

// storedTime matches the millisecond precision of BSON datetimes.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func driverFilter(driverID string, statuses []domain.BookingStatus) bson.M {
	return bson.M{
		"driverId": driverID,
		"status":   bson.M{"$in": statusStrings(statuses)},
	}
}

func updateDocument(update domain.BookingUpdate, now time.Time) bson.M {
	set := bson.M{
		"status":    string(update.Status),
		"updatedAt": now,
	}
	if update.DriverID != nil {
		set["driverId"] = *update.DriverID
	}
	return bson.M{"$set": set}
}

func fromDomain(b *domain.Booking) bookingDocument {
	return bookingDocument{
		UserEmail:      b.UserEmail,
		UserName:       b.UserName,
		Pickup:         b.Pickup,
		Destination:    b.Destination,
		Priority:       b.Priority,
		PatientName:    b.PatientName,
		PatientContact: b.PatientContact,
		AmbulanceType:  b.AmbulanceType,
		AdditionalInfo: b.AdditionalInfo,
		DriverID:       b.DriverID,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func toDomain(d bookingDocument) *domain.Booking {
	return &domain.Booking{
		ID:             d.ID.Hex(),
		UserEmail:      d.UserEmail,
		UserName:       d.UserName,
		Pickup:         d.Pickup,
		Destination:    d.Destination,
		Priority:       d.Priority,
		PatientName:    d.PatientName,
		PatientContact: d.PatientContact,
		AmbulanceType:  d.AmbulanceType,
		AdditionalInfo: d.AdditionalInfo,
		DriverID:       d.DriverID,
		Status:         domain.BookingStatus(d.Status),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

var _ BookingRepository = (*MongoBookingRepository)(nil)
