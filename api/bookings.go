package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/medcare/internal/domain"
	"github.com/Domenick1991/medcare/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	UserEmail      string `json:"userEmail"`
	UserName       string `json:"userName"`
	Pickup         string `json:"pickup"`
	Destination    string `json:"destination"`
	Priority       string `json:"priority"`
	PatientName    string `json:"patientName"`
	PatientContact string `json:"patientContact"`
	AmbulanceType  string `json:"ambulanceType"`
	AdditionalInfo string `json:"additionalInfo"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type acceptBookingRequest struct {
	DriverID string `json:"driverId"`
}

type bookingResponse struct {
	ID             string `json:"id"`
	UserEmail      string `json:"userEmail"`
	UserName       string `json:"userName,omitempty"`
	Pickup         string `json:"pickup,omitempty"`
	Destination    string `json:"destination,omitempty"`
	Priority       string `json:"priority,omitempty"`
	PatientName    string `json:"patientName,omitempty"`
	PatientContact string `json:"patientContact,omitempty"`
	AmbulanceType  string `json:"ambulanceType,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
	DriverID       string `json:"driverId,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the booking routes. Fixed segments go before /:id.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/status/pending", h.listPending)
	router.GET("/user/:email", h.listByUser)
	router.GET("/driver/:driverId", h.listByDriver)
	router.GET("/:id", h.get)
	router.PUT("/:id/status", h.updateStatus)
	router.PUT("/:id/accept", h.accept)
	router.PUT("/:id/start", h.start)
	router.PUT("/:id/complete", h.complete)
	router.PUT("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := decodeStrict(c, &req); err != nil {
		writeError(c, err)
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserEmail:      req.UserEmail,
		UserName:       req.UserName,
		Pickup:         req.Pickup,
		Destination:    req.Destination,
		Priority:       req.Priority,
		PatientName:    req.PatientName,
		PatientContact: req.PatientContact,
		AmbulanceType:  req.AmbulanceType,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) listPending(c *gin.Context) {
	bookings, err := h.service.ListPending(c.Request.Context())
	h.writeList(c, bookings, err)
}

func (h *BookingHandler) listByUser(c *gin.Context) {
	bookings, err := h.service.ListByUser(c.Request.Context(), c.Param("email"))
	h.writeList(c, bookings, err)
}

func (h *BookingHandler) listByDriver(c *gin.Context) {
	bookings, err := h.service.ListByDriver(c.Request.Context(), c.Param("driverId"))
	h.writeList(c, bookings, err)
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := decodeStrict(c, &req); err != nil {
		writeError(c, err)
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	h.writeOne(c, updated, err)
}

func (h *BookingHandler) accept(c *gin.Context) {
	var req acceptBookingRequest
	if err := decodeStrict(c, &req); err != nil {
		writeError(c, err)
		return
	}
	updated, err := h.service.AcceptBooking(c.Request.Context(), c.Param("id"), req.DriverID)
	h.writeOne(c, updated, err)
}

func (h *BookingHandler) start(c *gin.Context) {
	updated, err := h.service.StartBooking(c.Request.Context(), c.Param("id"))
	h.writeOne(c, updated, err)
}

func (h *BookingHandler) complete(c *gin.Context) {
	updated, err := h.service.CompleteBooking(c.Request.Context(), c.Param("id"))
	h.writeOne(c, updated, err)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	updated, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	h.writeOne(c, updated, err)
}

func (h *BookingHandler) writeOne(c *gin.Context, b *domain.Booking, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) writeList(c *gin.Context, bookings []domain.Booking, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// decodeStrict rejects bodies carrying fields outside the request schema,
// e.g. pickupLocation instead of pickup.
func decodeStrict(c *gin.Context, dst any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		return domain.NewValidationError("invalid request body: " + err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.NewValidationError("invalid request body: unexpected data after JSON object")
	}
	return nil
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
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
		CreatedAt:      b.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339Nano),
	}
}
