package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// ActiveStatuses are the statuses shown on a driver's dispatch view.
var ActiveStatuses = []BookingStatus{BookingStatusAccepted, BookingStatusInProgress}

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusAccepted || s == BookingStatusInProgress
}

type Booking struct {
	ID             string
	UserEmail      string
	UserName       string
	Pickup         string
	Destination    string
	Priority       string
	PatientName    string
	PatientContact string
	AmbulanceType  string
	AdditionalInfo string
	DriverID       string
	Status         BookingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookingUpdate is a partial update. A nil DriverID leaves the stored value alone.
type BookingUpdate struct {
	Status   BookingStatus
	DriverID *string
}
