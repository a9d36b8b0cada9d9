package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrAppointmentNotFound is a sentinel error
type ErrAppointmentNotFound struct {
	AppointmentID int
}

func (e *ErrAppointmentNotFound) Error() string {
	return fmt.Sprintf("appointment with ID %d not found", e.AppointmentID)
}

func NewAppointmentNotFound(id int) error {
	return &ErrAppointmentNotFound{AppointmentID: id}
}
