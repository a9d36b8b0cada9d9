// internal/controller/appointment_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/bulkwave/bulkwave-backend/internal/errors"
	"github.com/bulkwave/bulkwave-backend/internal/model"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
	"github.com/bulkwave/bulkwave-backend/internal/service"
)

type AppointmentController struct {
	Appointments repository.AppointmentRepositoryInterface
	Notifier     *service.AppointmentNotifier
	Log          *zap.Logger
}

func (c *AppointmentController) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BusinessName    string    `json:"business_name"`
		CustomerName    string    `json:"customer_name"`
		CustomerPhone   string    `json:"customer_phone"`
		ServiceName     string    `json:"service_name"`
		ScheduledAt     time.Time `json:"scheduled_at"`
		ReminderLeadMin *int      `json:"reminder_lead_min"`
		FollowUpMin     *int      `json:"follow_up_min"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	appointment := &model.Appointment{
		BusinessName:    body.BusinessName,
		CustomerName:    body.CustomerName,
		CustomerPhone:   body.CustomerPhone,
		ServiceName:     body.ServiceName,
		ScheduledAt:     body.ScheduledAt,
		Status:          model.AppointmentStatusBooked,
		ReminderLeadMin: body.ReminderLeadMin,
		FollowUpMin:     body.FollowUpMin,
	}
	if err := c.Appointments.Create(appointment); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Confirmation is synchronous on booking; a failure here is retried by
	// the next poll tick, so the booking itself still succeeds.
	if err := c.Notifier.SendConfirmationIfNeeded(r.Context(), appointment); err != nil {
		c.Log.Warn("confirmation send failed", zap.Int("appointment_id", appointment.ID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointment)
}

// CancelAppointment flips the status and fires the cancellation notice
// synchronously.
func (c *AppointmentController) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := c.Appointments.UpdateStatus(id, model.AppointmentStatusCancelled); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	appointment, err := c.Appointments.GetByID(id)
	if err != nil {
		if _, ok := err.(*appErrors.ErrAppointmentNotFound); ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := c.Notifier.SendCancellationIfNeeded(r.Context(), appointment); err != nil {
		c.Log.Warn("cancellation send failed", zap.Int("appointment_id", id), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointment)
}

// RunTick triggers one notification poll pass outside the timer.
func (c *AppointmentController) RunTick(w http.ResponseWriter, r *http.Request) {
	if err := c.Notifier.ProcessDueNotificationsOnce(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
