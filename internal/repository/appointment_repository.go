package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/bulkwave/bulkwave-backend/internal/errors"
	"github.com/bulkwave/bulkwave-backend/internal/model"
)

type AppointmentRepositoryInterface interface {
	Create(a *model.Appointment) error
	GetByID(id int) (*model.Appointment, error)
	UpdateStatus(id int, status string) error

	// Notification bookkeeping
	ListNotifiable(limit int) ([]*model.Appointment, error)
	MarkNotified(id int, notificationType string, at time.Time) error
	RecordNotificationError(id int, errText string) error
}

type AppointmentRepository struct {
	DB *sql.DB
}

const appointmentColumns = `
    id, business_name, customer_name, customer_phone, service_name, scheduled_at, status,
    reminder_lead_min, follow_up_min,
    confirmation_sent_at, reminder_sent_at, cancellation_sent_at, follow_up_sent_at,
    last_notification_error, created_at, updated_at
`

func (r *AppointmentRepository) Create(a *model.Appointment) error {
	a.CreatedAt = time.Now()
	if a.Status == "" {
		a.Status = model.AppointmentStatusBooked
	}
	query := `
        INSERT INTO appointments
        (business_name, customer_name, customer_phone, service_name, scheduled_at, status, reminder_lead_min, follow_up_min, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		a.BusinessName, a.CustomerName, a.CustomerPhone, a.ServiceName,
		a.ScheduledAt, a.Status, a.ReminderLeadMin, a.FollowUpMin, a.CreatedAt,
	).Scan(&a.ID)
}

func (r *AppointmentRepository) GetByID(id int) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	a, err := scanAppointment(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewAppointmentNotFound(id)
		}
		return nil, err
	}
	return a, nil
}

func (r *AppointmentRepository) UpdateStatus(id int, status string) error {
	query := `UPDATE appointments SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

// ListNotifiable returns appointments that may still owe a notification:
// booked rows missing a confirmation or reminder, and completed rows
// missing a follow-up. Phone-less rows are excluded up front; the window
// arithmetic happens in the engine, the guard timestamps stay the source
// of truth.
func (r *AppointmentRepository) ListNotifiable(limit int) ([]*model.Appointment, error) {
	query := `
        SELECT ` + appointmentColumns + `
        FROM appointments
        WHERE customer_phone <> ''
          AND (
                (status = 'booked' AND (confirmation_sent_at IS NULL OR reminder_sent_at IS NULL))
             OR (status = 'completed' AND follow_up_sent_at IS NULL)
          )
        ORDER BY scheduled_at ASC
        LIMIT $1
    `
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []*model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// MarkNotified sets the guard timestamp for one notification type and
// clears the recorded error.
func (r *AppointmentRepository) MarkNotified(id int, notificationType string, at time.Time) error {
	var column string
	switch notificationType {
	case model.NotificationConfirmation:
		column = "confirmation_sent_at"
	case model.NotificationReminder:
		column = "reminder_sent_at"
	case model.NotificationCancellation:
		column = "cancellation_sent_at"
	case model.NotificationFollowUp:
		column = "follow_up_sent_at"
	default:
		return fmt.Errorf("unknown notification type: %s", notificationType)
	}
	query := fmt.Sprintf(
		`UPDATE appointments SET %s=$1, last_notification_error='', updated_at=NOW() WHERE id=$2`,
		column,
	)
	_, err := r.DB.Exec(query, at, id)
	return err
}

func (r *AppointmentRepository) RecordNotificationError(id int, errText string) error {
	query := `UPDATE appointments SET last_notification_error=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, errText, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.BusinessName, &a.CustomerName, &a.CustomerPhone, &a.ServiceName,
		&a.ScheduledAt, &a.Status, &a.ReminderLeadMin, &a.FollowUpMin,
		&a.ConfirmationSentAt, &a.ReminderSentAt, &a.CancellationSentAt, &a.FollowUpSentAt,
		&a.LastNotificationError, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var _ AppointmentRepositoryInterface = (*AppointmentRepository)(nil)
