package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/medcare/internal/domain"
	"github.com/Domenick1991/medcare/internal/kafka"
	"github.com/Domenick1991/medcare/internal/logger"
	"github.com/Domenick1991/medcare/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, email string) ([]domain.Booking, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.Booking, error)
	ListPending(ctx context.Context) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Booking, error)
	AcceptBooking(ctx context.Context, id, driverID string) (*domain.Booking, error)
	StartBooking(ctx context.Context, id string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, id string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
}

// Cache must not let SetBooking replace an entry with a newer UpdatedAt.
type Cache interface {
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	SetBooking(ctx context.Context, booking *domain.Booking) error
	DeleteBooking(ctx context.Context, id string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type CreateBookingInput struct {
	UserEmail      string
	UserName       string
	Pickup         string
	Destination    string
	Priority       string
	PatientName    string
	PatientContact string
	AmbulanceType  string
	AdditionalInfo string
}

type BookingService struct {
	bookings    repository.BookingRepository
	cache       Cache
	producer    Producer
	eventsTopic string
	log         *slog.Logger
	now         func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

// WithEvents publishes booking lifecycle events to topic.
func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = topic
	}
}

func WithLogger(log *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(bookings repository.BookingRepository, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		bookings: bookings,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if strings.TrimSpace(input.UserEmail) == "" {
		return nil, domain.NewValidationError("userEmail is required")
	}
	if strings.TrimSpace(input.Pickup) == "" {
		return nil, domain.NewValidationError("pickup is required")
	}

	now := s.now().UTC()
	booking := &domain.Booking{
		UserEmail:      input.UserEmail,
		UserName:       input.UserName,
		Pickup:         input.Pickup,
		Destination:    input.Destination,
		Priority:       input.Priority,
		PatientName:    input.PatientName,
		PatientContact: input.PatientContact,
		AmbulanceType:  input.AmbulanceType,
		AdditionalInfo: input.AdditionalInfo,
		Status:         domain.BookingStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, domain.NewStorageError(err)
	}

	s.log.InfoContext(ctx, "booking created", "booking_id", booking.ID, "user_email", booking.UserEmail)
	s.remember(ctx, booking)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	if s.cache != nil {
		cached, err := s.cache.GetBooking(ctx, id)
		if err != nil {
			s.log.WarnContext(ctx, "cache read failed", "booking_id", id, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	s.remember(ctx, booking)
	return booking, nil
}

func (s *BookingService) ListByUser(ctx context.Context, email string) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, email)
	if err != nil {
		return nil, domain.NewStorageError(err)
	}
	return bookings, nil
}

// ListByDriver returns only the driver's accepted and in-progress bookings.
func (s *BookingService) ListByDriver(ctx context.Context, driverID string) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByDriver(ctx, driverID, domain.ActiveStatuses)
	if err != nil {
		return nil, domain.NewStorageError(err)
	}
	return bookings, nil
}

func (s *BookingService) ListPending(ctx context.Context) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByStatus(ctx, domain.BookingStatusPending)
	if err != nil {
		return nil, domain.NewStorageError(err)
	}
	return bookings, nil
}

// UpdateStatus sets any of the known statuses regardless of the current one.
func (s *BookingService) UpdateStatus(ctx context.Context, id, status string) (*domain.Booking, error) {
	st, err := domain.ParseBookingStatus(status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return s.update(ctx, id, domain.BookingUpdate{Status: st}, kafka.EventBookingStatusUpdated)
}

func (s *BookingService) AcceptBooking(ctx context.Context, id, driverID string) (*domain.Booking, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, domain.NewValidationError("driverId is required")
	}
	return s.update(ctx, id, domain.BookingUpdate{Status: domain.BookingStatusAccepted, DriverID: &driverID}, kafka.EventBookingAccepted)
}

func (s *BookingService) StartBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.update(ctx, id, domain.BookingUpdate{Status: domain.BookingStatusInProgress}, kafka.EventBookingStarted)
}

func (s *BookingService) CompleteBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.update(ctx, id, domain.BookingUpdate{Status: domain.BookingStatusCompleted}, kafka.EventBookingCompleted)
}

func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.update(ctx, id, domain.BookingUpdate{Status: domain.BookingStatusCancelled}, kafka.EventBookingCancelled)
}

func (s *BookingService) update(ctx context.Context, id string, update domain.BookingUpdate, eventType string) (*domain.Booking, error) {
	updated, err := s.bookings.Update(ctx, id, update)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	s.log.InfoContext(ctx, "booking updated", "booking_id", updated.ID, "status", updated.Status, "driver_id", updated.DriverID)
	s.refresh(ctx, updated)
	s.publish(ctx, eventType, updated)
	return updated, nil
}

func (s *BookingService) remember(ctx context.Context, booking *domain.Booking) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetBooking(ctx, booking); err != nil {
		s.log.WarnContext(ctx, "cache write failed", "booking_id", booking.ID, "error", err)
	}
}

// refresh replaces the cached copy after a mutation and evicts it when the
// write fails, so an older snapshot is never left behind.
func (s *BookingService) refresh(ctx context.Context, booking *domain.Booking) {
	if s.cache == nil {
		return
	}
	err := s.cache.SetBooking(ctx, booking)
	if err == nil {
		return
	}
	s.log.WarnContext(ctx, "cache write failed", "booking_id", booking.ID, "error", err)
	if err := s.cache.DeleteBooking(ctx, booking.ID); err != nil {
		s.log.WarnContext(ctx, "cache evict failed", "booking_id", booking.ID, "error", err)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  booking.ID,
		UserEmail:  booking.UserEmail,
		DriverID:   booking.DriverID,
		Status:     string(booking.Status),
		OccurredAt: s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.ID, event); err != nil {
		s.log.WarnContext(ctx, "failed to publish booking event", "type", eventType, "booking_id", booking.ID, "error", err)
	}
}

func mapRepositoryError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewNotFoundError("booking not found")
	}
	return domain.NewStorageError(err)
}

var _ BookingUseCase = (*BookingService)(nil)
