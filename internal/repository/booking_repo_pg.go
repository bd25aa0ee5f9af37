package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/medcare/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id::text, user_email, user_name, pickup, destination, priority, patient_name, patient_contact,
	ambulance_type, additional_info, COALESCE(driver_id, ''), status, created_at, updated_at`

const bookingSchema = `
CREATE TABLE IF NOT EXISTS bookings (
	id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	user_email      text NOT NULL,
	user_name       text NOT NULL DEFAULT '',
	pickup          text NOT NULL DEFAULT '',
	destination     text NOT NULL DEFAULT '',
	priority        text NOT NULL DEFAULT '',
	patient_name    text NOT NULL DEFAULT '',
	patient_contact text NOT NULL DEFAULT '',
	ambulance_type  text NOT NULL DEFAULT '',
	additional_info text NOT NULL DEFAULT '',
	driver_id       text,
	status          text NOT NULL DEFAULT 'pending',
	created_at      timestamptz NOT NULL DEFAULT now(),
	updated_at      timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bookings_user_email_idx ON bookings (user_email, created_at DESC);
CREATE INDEX IF NOT EXISTS bookings_driver_status_idx ON bookings (driver_id, status);
CREATE INDEX IF NOT EXISTS bookings_status_created_idx ON bookings (status, created_at DESC);
`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

// Migrate creates the bookings table and its indexes when missing.
func (r *PGBookingRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, bookingSchema)
	return err
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings
		(user_email, user_name, pickup, destination, priority, patient_name, patient_contact, ambulance_type, additional_info, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id::text, created_at, updated_at`,
		booking.UserEmail, booking.UserName, booking.Pickup, booking.Destination, booking.Priority,
		booking.PatientName, booking.PatientContact, booking.AmbulanceType, booking.AdditionalInfo,
		booking.Status, booking.CreatedAt).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_email=$1 ORDER BY created_at DESC`, email)
}

func (r *PGBookingRepository) ListByDriver(ctx context.Context, driverID string, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE driver_id=$1 AND status = ANY($2) ORDER BY created_at DESC`,
		driverID, statusStrings(statuses))
}

func (r *PGBookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status=$1 ORDER BY created_at DESC`, status)
}

func (r *PGBookingRepository) Update(ctx context.Context, id string, update domain.BookingUpdate) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$1, driver_id=COALESCE($2, driver_id), updated_at=now()
		WHERE id=$3
		RETURNING `+bookingColumns, update.Status, update.DriverID, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserEmail, &b.UserName, &b.Pickup, &b.Destination, &b.Priority,
		&b.PatientName, &b.PatientContact, &b.AmbulanceType, &b.AdditionalInfo, &b.DriverID,
		&b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

var _ BookingRepository = (*PGBookingRepository)(nil)
