package service_test

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bulkwave/bulkwave-backend/internal/model"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger { return zap.NewNop() }

// ---------------- campaigns ----------------

type fakeCampaignRepo struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]*model.Campaign
	links     map[int][]model.CampaignRecipient

	listDueErr        error
	listRecipientsErr error
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{
		campaigns: map[int]*model.Campaign{},
		links:     map[int][]model.CampaignRecipient{},
	}
}

func (f *fakeCampaignRepo) Create(c *model.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusPending
	}
	cp := *c
	f.campaigns[c.ID] = &cp
	return nil
}

func (f *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign with ID %d not found", id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCampaignRepo) UpdateStatus(campaignID int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.campaigns[campaignID]; ok {
		c.Status = status
	}
	return nil
}

func (f *fakeCampaignRepo) ListDue(now time.Time, limit int, includeFailed bool) ([]*model.Campaign, error) {
	if f.listDueErr != nil {
		return nil, f.listDueErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	due := []*model.Campaign{}
	for _, c := range f.campaigns {
		if c.Schedule == nil || c.Schedule.After(now) {
			continue
		}
		if c.Status != model.CampaignStatusPending && !(includeFailed && c.Status == model.CampaignStatusFailed) {
			continue
		}
		cp := *c
		due = append(due, &cp)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Schedule.Before(*due[j].Schedule) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeCampaignRepo) AdvanceSchedule(campaignID int, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.campaigns[campaignID]; ok {
		c.Schedule = &next
		c.Status = model.CampaignStatusPending
	}
	return nil
}

func (f *fakeCampaignRepo) ListRecipients(campaignID int) ([]model.CampaignRecipient, error) {
	if f.listRecipientsErr != nil {
		return nil, f.listRecipientsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CampaignRecipient{}, f.links[campaignID]...), nil
}

func (f *fakeCampaignRepo) ReplaceRecipients(campaignID int, links []model.CampaignRecipient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[campaignID] = append([]model.CampaignRecipient{}, links...)
	return nil
}

// ---------------- dispatch ledger ----------------

type fakeDispatchRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[string]*model.CampaignDispatch

	claimMissing bool // Claim reports neither a row nor an error
}

func newFakeDispatchRepo() *fakeDispatchRepo {
	return &fakeDispatchRepo{rows: map[string]*model.CampaignDispatch{}}
}

func dispatchKey(campaignID int, scheduledFor time.Time) string {
	return fmt.Sprintf("%d|%s", campaignID, scheduledFor.UTC().Format(time.RFC3339Nano))
}

func (f *fakeDispatchRepo) Claim(campaignID int, scheduledFor time.Time) (*model.CampaignDispatch, bool, error) {
	if f.claimMissing {
		return nil, false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := dispatchKey(campaignID, scheduledFor)
	if existing, ok := f.rows[key]; ok {
		cp := *existing
		return &cp, false, nil
	}

	f.nextID++
	d := &model.CampaignDispatch{
		ID:           f.nextID,
		CampaignID:   campaignID,
		ScheduledFor: scheduledFor,
		Status:       model.DispatchStatusPending,
		CreatedAt:    time.Now(),
	}
	f.rows[key] = d
	cp := *d
	return &cp, true, nil
}

func (f *fakeDispatchRepo) GetByKey(campaignID int, scheduledFor time.Time) (*model.CampaignDispatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.rows[dispatchKey(campaignID, scheduledFor)]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDispatchRepo) MarkResult(id int, status string, successCount, failCount, total int, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.rows {
		if d.ID == id {
			now := time.Now()
			d.Status = status
			d.SuccessCount = successCount
			d.FailCount = failCount
			d.Total = total
			d.LastError = lastError
			d.DispatchedAt = &now
			return nil
		}
	}
	return fmt.Errorf("dispatch %d not found", id)
}

func (f *fakeDispatchRepo) ResetStalePending(olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, d := range f.rows {
		if d.Status == model.DispatchStatusPending && d.CreatedAt.Before(olderThan) {
			d.Status = model.DispatchStatusFailed
			n++
		}
	}
	return n, nil
}

func (f *fakeDispatchRepo) all() []*model.CampaignDispatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.CampaignDispatch{}
	for _, d := range f.rows {
		cp := *d
		out = append(out, &cp)
	}
	return out
}

// ---------------- contacts / users ----------------

type fakeContactRepo struct {
	contacts map[int]model.Contact
	groups   map[int][]int // group id -> member contact ids
	groupErr error
}

func (f *fakeContactRepo) GetByIDs(ids []int) ([]model.Contact, error) {
	out := []model.Contact{}
	for _, id := range ids {
		if c, ok := f.contacts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) ListGroupMembers(groupID int) ([]model.Contact, error) {
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	out := []model.Contact{}
	for _, id := range f.groups[groupID] {
		if c, ok := f.contacts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[int]model.User
}

func (f *fakeUserRepo) GetByIDs(ids []int) ([]model.User, error) {
	out := []model.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// ---------------- delivery ledger ----------------

type fakeMessageRepo struct {
	mu        sync.Mutex
	nextID    int
	msgs      []*model.Message
	createErr error
}

func (f *fakeMessageRepo) Create(msg *model.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	cp := *msg
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeMessageRepo) CountByCampaign(campaignID int) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := map[string]int{"pending": 0, "sent": 0, "failed": 0}
	for _, m := range f.msgs {
		if m.CampaignID != nil && *m.CampaignID == campaignID {
			stats[m.Status]++
		}
	}
	return stats, nil
}

func (f *fakeMessageRepo) byStatus(status string) []*model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Message{}
	for _, m := range f.msgs {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMessageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

// ---------------- appointments ----------------

type fakeAppointmentRepo struct {
	mu     sync.Mutex
	nextID int
	appts  map[int]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appts: map[int]*model.Appointment{}}
}

func (f *fakeAppointmentRepo) Create(a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	a.CreatedAt = time.Now()
	if a.Status == "" {
		a.Status = model.AppointmentStatusBooked
	}
	cp := *a
	f.appts[a.ID] = &cp
	return nil
}

func (f *fakeAppointmentRepo) GetByID(id int) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, fmt.Errorf("appointment with ID %d not found", id)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(id int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.appts[id]; ok {
		a.Status = status
	}
	return nil
}

func (f *fakeAppointmentRepo) ListNotifiable(limit int) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*model.Appointment{}
	for _, a := range f.appts {
		if a.CustomerPhone == "" {
			continue
		}
		booked := a.Status == model.AppointmentStatusBooked && (a.ConfirmationSentAt == nil || a.ReminderSentAt == nil)
		completed := a.Status == model.AppointmentStatusCompleted && a.FollowUpSentAt == nil
		if !booked && !completed {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAppointmentRepo) MarkNotified(id int, notificationType string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return fmt.Errorf("appointment with ID %d not found", id)
	}
	t := at
	switch notificationType {
	case model.NotificationConfirmation:
		a.ConfirmationSentAt = &t
	case model.NotificationReminder:
		a.ReminderSentAt = &t
	case model.NotificationCancellation:
		a.CancellationSentAt = &t
	case model.NotificationFollowUp:
		a.FollowUpSentAt = &t
	default:
		return fmt.Errorf("unknown notification type: %s", notificationType)
	}
	a.LastNotificationError = ""
	return nil
}

func (f *fakeAppointmentRepo) RecordNotificationError(id int, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.appts[id]; ok {
		a.LastNotificationError = errText
	}
	return nil
}

// Interface checks
var _ repository.CampaignRepositoryInterface = (*fakeCampaignRepo)(nil)
var _ repository.DispatchRepositoryInterface = (*fakeDispatchRepo)(nil)
var _ repository.ContactRepositoryInterface = (*fakeContactRepo)(nil)
var _ repository.UserRepositoryInterface = (*fakeUserRepo)(nil)
var _ repository.MessageRepositoryInterface = (*fakeMessageRepo)(nil)
var _ repository.AppointmentRepositoryInterface = (*fakeAppointmentRepo)(nil)
