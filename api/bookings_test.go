package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/medcare/internal/domain"
	"github.com/Domenick1991/medcare/internal/logger"
	"github.com/Domenick1991/medcare/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) one(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	return m.one(m.Called(ctx, input))
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockBookingUseCase) ListByUser(ctx context.Context, email string) ([]domain.Booking, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListByDriver(ctx context.Context, driverID string) ([]domain.Booking, error) {
	args := m.Called(ctx, driverID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListPending(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) UpdateStatus(ctx context.Context, id, status string) (*domain.Booking, error) {
	return m.one(m.Called(ctx, id, status))
}

func (m *MockBookingUseCase) AcceptBooking(ctx context.Context, id, driverID string) (*domain.Booking, error) {
	return m.one(m.Called(ctx, id, driverID))
}

func (m *MockBookingUseCase) StartBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockBookingUseCase) CompleteBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return m.one(m.Called(ctx, id))
}

const testID = "665f1c2e9b1d4a0012345678"

func newTestRouter(service booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewBookingHandler(service), logger.Discard(), nil)
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"userEmail":"a@x.com","pickup":"Main St","priority":"high"}`
	c.Request = httptest.NewRequest("POST", "/api/bookings", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	input := booking.CreateBookingInput{UserEmail: "a@x.com", Pickup: "Main St", Priority: "high"}
	created := &domain.Booking{
		ID:        testID,
		UserEmail: "a@x.com",
		Pickup:    "Main St",
		Priority:  "high",
		Status:    domain.BookingStatusPending,
		CreatedAt: time.Now(),
	}
	mockService.On("CreateBooking", c.Request.Context(), input).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	response := decodeBody[bookingResponse](t, w)
	assert.Equal(t, testID, response.ID)
	assert.Equal(t, "pending", response.Status)
	assert.Equal(t, "Main St", response.Pickup)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_RejectsUnknownFields(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)

	w := doRequest(t, r, http.MethodPost, "/api/bookings", `{"userEmail":"a@x.com","pickupLocation":"Main St"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody[errorResponse](t, w)
	assert.Equal(t, "validation", resp.Kind)
	assert.Contains(t, resp.Message, "pickupLocation")
	mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_create_EmptyBody(t *testing.T) {
	r := newTestRouter(&MockBookingUseCase{})

	w := doRequest(t, r, http.MethodPost, "/api/bookings", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body is required", decodeBody[errorResponse](t, w).Message)
}

func TestBookingHandler_TrailingDataRejected(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create", http.MethodPost, "/api/bookings", `{"userEmail":"a@x.com","pickup":"Main St"}garbage`},
		{"status", http.MethodPut, "/api/bookings/" + testID + "/status", `{"status":"cancelled"}garbage`},
		{"accept", http.MethodPut, "/api/bookings/" + testID + "/accept", `{"driverId":"d1"} {"driverId":"d2"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			r := newTestRouter(mockService)

			w := doRequest(t, r, tc.method, tc.path, tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation", decodeBody[errorResponse](t, w).Kind)
			assert.Empty(t, mockService.Calls)
		})
	}
}

func TestBookingHandler_TrailingWhitespaceAccepted(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("UpdateStatus", mock.Anything, testID, "cancelled").
		Return(&domain.Booking{ID: testID, Status: domain.BookingStatusCancelled}, nil).Once()

	w := doRequest(t, r, http.MethodPut, "/api/bookings/"+testID+"/status", "{\"status\":\"cancelled\"}\n")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_ValidationError(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("CreateBooking", mock.Anything, booking.CreateBookingInput{Pickup: "Main St"}).
		Return(nil, domain.NewValidationError("userEmail is required"))

	w := doRequest(t, r, http.MethodPost, "/api/bookings", `{"pickup":"Main St"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errorResponse{Kind: "validation", Message: "userEmail is required"}, decodeBody[errorResponse](t, w))
}

func TestBookingHandler_get(t *testing.T) {
	testCases := []struct {
		name       string
		result     *domain.Booking
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "found",
			result:     &domain.Booking{ID: testID, UserEmail: "a@x.com", Status: domain.BookingStatusPending},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			err:        domain.NewNotFoundError("booking not found"),
			wantStatus: http.StatusNotFound,
			wantKind:   "not_found",
		},
		{
			name:       "storage failure",
			err:        domain.NewStorageError(errors.New("the provided hex string is not a valid ObjectID")),
			wantStatus: http.StatusInternalServerError,
			wantKind:   "storage",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			r := newTestRouter(mockService)
			if tc.result != nil {
				mockService.On("GetBooking", mock.Anything, testID).Return(tc.result, nil)
			} else {
				mockService.On("GetBooking", mock.Anything, testID).Return(nil, tc.err)
			}

			w := doRequest(t, r, http.MethodGet, "/api/bookings/"+testID, "")

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantKind != "" {
				resp := decodeBody[errorResponse](t, w)
				assert.Equal(t, tc.wantKind, resp.Kind)
				assert.Equal(t, tc.err.Error(), resp.Message)
			} else {
				assert.Equal(t, testID, decodeBody[bookingResponse](t, w).ID)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestBookingHandler_listPending_NotShadowedByID(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("ListPending", mock.Anything).Return([]domain.Booking{
		{ID: "2", Status: domain.BookingStatusPending},
		{ID: "1", Status: domain.BookingStatusPending},
	}, nil)

	w := doRequest(t, r, http.MethodGet, "/api/bookings/status/pending", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[[]bookingResponse](t, w)
	require.Len(t, resp, 2)
	assert.Equal(t, "2", resp[0].ID)
	mockService.AssertNotCalled(t, "GetBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_listByUser_EmptyIsArray(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("ListByUser", mock.Anything, "a@x.com").Return([]domain.Booking{}, nil)

	w := doRequest(t, r, http.MethodGet, "/api/bookings/user/a@x.com", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestBookingHandler_listByDriver(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("ListByDriver", mock.Anything, "d1").Return([]domain.Booking{
		{ID: testID, DriverID: "d1", Status: domain.BookingStatusInProgress},
	}, nil)

	w := doRequest(t, r, http.MethodGet, "/api/bookings/driver/d1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[[]bookingResponse](t, w)
	require.Len(t, resp, 1)
	assert.Equal(t, "in_progress", resp[0].Status)
	assert.Equal(t, "d1", resp[0].DriverID)
}

func TestBookingHandler_updateStatus(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("UpdateStatus", mock.Anything, testID, "cancelled").
		Return(&domain.Booking{ID: testID, Status: domain.BookingStatusCancelled}, nil)

	w := doRequest(t, r, http.MethodPut, "/api/bookings/"+testID+"/status", `{"status":"cancelled"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeBody[bookingResponse](t, w).Status)
}

func TestBookingHandler_accept_NotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("AcceptBooking", mock.Anything, testID, "d1").Return(nil, domain.NewNotFoundError("booking not found"))

	w := doRequest(t, r, http.MethodPut, "/api/bookings/"+testID+"/accept", `{"driverId":"d1"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errorResponse{Kind: "not_found", Message: "booking not found"}, decodeBody[errorResponse](t, w))
}

func TestBookingHandler_lifecycleRoutes(t *testing.T) {
	testCases := []struct {
		path   string
		method string
		status domain.BookingStatus
	}{
		{"/start", "StartBooking", domain.BookingStatusInProgress},
		{"/complete", "CompleteBooking", domain.BookingStatusCompleted},
		{"/cancel", "CancelBooking", domain.BookingStatusCancelled},
	}

	for _, tc := range testCases {
		t.Run(tc.method, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			r := newTestRouter(mockService)
			mockService.On(tc.method, mock.Anything, testID).Return(&domain.Booking{ID: testID, Status: tc.status}, nil)

			w := doRequest(t, r, http.MethodPut, "/api/bookings/"+testID+tc.path, "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, string(tc.status), decodeBody[bookingResponse](t, w).Status)
			mockService.AssertExpectations(t)
		})
	}
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	r := newTestRouter(&MockBookingUseCase{})

	w := doRequest(t, r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}
