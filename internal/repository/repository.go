package repository

import (
	"context"

	"github.com/Domenick1991/medcare/internal/domain"
)

// BookingRepository is implemented by every storage backend. List methods
// return bookings newest first.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, email string) ([]domain.Booking, error)
	ListByDriver(ctx context.Context, driverID string, statuses []domain.BookingStatus) ([]domain.Booking, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
	Update(ctx context.Context, id string, update domain.BookingUpdate) (*domain.Booking, error)
}
