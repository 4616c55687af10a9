package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/carebook-platform/internal/appointments"
	"github.com/carebook/carebook-platform/internal/http/middleware"
	"github.com/carebook/carebook-platform/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *appointments.InMemoryStore) {
	t.Helper()
	store := appointments.NewInMemoryStore()
	svc := NewService(NewInMemoryOrderStore(), store, NewFakeGateway(), nil, testSecret, "INR", nil, nil, logging.New("error"))
	return NewHandler(svc, logging.New("error")), store
}

func createOrderRequest(apptID, patientID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/appointments/"+apptID.String()+"/payment-order", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("appointmentID", apptID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithPatientID(ctx, patientID)
	return req.WithContext(ctx)
}

func TestHandlerCreateOrder(t *testing.T) {
	h, store := newTestHandler(t)
	appt := &appointments.Appointment{
		ID:            uuid.New(),
		DoctorID:      uuid.New(),
		PatientID:     uuid.New(),
		Date:          time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:          "10:00 AM",
		FeeCents:      1500,
		Status:        appointments.StatusUpcoming,
		PaymentStatus: appointments.PaymentNone,
	}
	require.NoError(t, store.Create(context.Background(), appt))

	rec := httptest.NewRecorder()
	h.CreateOrder(rec, createOrderRequest(appt.ID, appt.PatientID))

	require.Equal(t, http.StatusCreated, rec.Code)
	var order Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, int64(1500), order.AmountCents)
}

func TestHandlerCreateOrderForeignPatient(t *testing.T) {
	h, store := newTestHandler(t)
	appt := &appointments.Appointment{
		ID:        uuid.New(),
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:      "10:00 AM",
		Status:    appointments.StatusUpcoming,
	}
	require.NoError(t, store.Create(context.Background(), appt))

	rec := httptest.NewRecorder()
	h.CreateOrder(rec, createOrderRequest(appt.ID, uuid.New()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerCreateOrderUnknownAppointment(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.CreateOrder(rec, createOrderRequest(uuid.New(), uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerVerify(t *testing.T) {
	h, store := newTestHandler(t)
	appt := &appointments.Appointment{
		ID:        uuid.New(),
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:      "10:00 AM",
		FeeCents:  1500,
		Status:    appointments.StatusUpcoming,
	}
	require.NoError(t, store.Create(context.Background(), appt))

	order, err := h.service.CreateOrder(context.Background(), appt.ID, appt.PatientID)
	require.NoError(t, err)

	body, _ := json.Marshal(VerifyRequestBody{
		OrderID:   order.ID,
		PaymentID: "pay_123",
		Signature: Sign(testSecret, order.ID, "pay_123"),
	})
	req := httptest.NewRequest(http.MethodPost, "/payments/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["verified"])
}

func TestHandlerVerifyBadSignature(t *testing.T) {
	h, store := newTestHandler(t)
	appt := &appointments.Appointment{
		ID:        uuid.New(),
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:      "10:00 AM",
		Status:    appointments.StatusUpcoming,
	}
	require.NoError(t, store.Create(context.Background(), appt))

	order, err := h.service.CreateOrder(context.Background(), appt.ID, appt.PatientID)
	require.NoError(t, err)

	body, _ := json.Marshal(VerifyRequestBody{
		OrderID:   order.ID,
		PaymentID: "pay_123",
		Signature: "deadbeef",
	})
	req := httptest.NewRequest(http.MethodPost, "/payments/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerVerifyMissingFields(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/payments/verify", bytes.NewReader([]byte(`{"order_id":"o"}`)))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
