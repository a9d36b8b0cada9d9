package controller_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bulkwave/bulkwave-backend/internal/controller"
	"github.com/bulkwave/bulkwave-backend/internal/events"
	"github.com/bulkwave/bulkwave-backend/internal/gateway"
	"github.com/bulkwave/bulkwave-backend/internal/model"
	"github.com/bulkwave/bulkwave-backend/internal/service"
)

// Minimal in-memory repos for the HTTP layer tests.

type stubCampaignRepo struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]*model.Campaign
	links     map[int][]model.CampaignRecipient
}

func newStubCampaignRepo() *stubCampaignRepo {
	return &stubCampaignRepo{campaigns: map[int]*model.Campaign{}, links: map[int][]model.CampaignRecipient{}}
}

func (s *stubCampaignRepo) Create(c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *stubCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fmt.Errorf("campaign with ID %d not found", id)
}

func (s *stubCampaignRepo) UpdateStatus(id int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[id]; ok {
		c.Status = status
	}
	return nil
}

func (s *stubCampaignRepo) ListDue(now time.Time, limit int, includeFailed bool) ([]*model.Campaign, error) {
	return nil, nil
}

func (s *stubCampaignRepo) AdvanceSchedule(id int, next time.Time) error { return nil }

func (s *stubCampaignRepo) ListRecipients(campaignID int) ([]model.CampaignRecipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CampaignRecipient{}, s.links[campaignID]...), nil
}

func (s *stubCampaignRepo) ReplaceRecipients(campaignID int, links []model.CampaignRecipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[campaignID] = append([]model.CampaignRecipient{}, links...)
	return nil
}

type stubContactRepo struct{ contacts map[int]model.Contact }

func (s *stubContactRepo) GetByIDs(ids []int) ([]model.Contact, error) {
	out := []model.Contact{}
	for _, id := range ids {
		if c, ok := s.contacts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubContactRepo) ListGroupMembers(groupID int) ([]model.Contact, error) {
	return []model.Contact{}, nil
}

type stubUserRepo struct{}

func (stubUserRepo) GetByIDs(ids []int) ([]model.User, error) { return []model.User{}, nil }

type stubDispatchRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[string]*model.CampaignDispatch
}

func dispatchKey(campaignID int, at time.Time) string {
	return fmt.Sprintf("%d|%d", campaignID, at.UnixNano())
}

func (s *stubDispatchRepo) Claim(campaignID int, at time.Time) (*model.CampaignDispatch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = map[string]*model.CampaignDispatch{}
	}
	if d, ok := s.rows[dispatchKey(campaignID, at)]; ok {
		cp := *d
		return &cp, false, nil
	}
	s.nextID++
	d := &model.CampaignDispatch{ID: s.nextID, CampaignID: campaignID, ScheduledFor: at, Status: model.DispatchStatusPending}
	s.rows[dispatchKey(campaignID, at)] = d
	cp := *d
	return &cp, true, nil
}

func (s *stubDispatchRepo) GetByKey(campaignID int, at time.Time) (*model.CampaignDispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.rows[dispatchKey(campaignID, at)]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (s *stubDispatchRepo) MarkResult(id int, status string, success, fail, total int, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.rows {
		if d.ID == id {
			d.Status = status
			d.SuccessCount = success
			d.FailCount = fail
			d.Total = total
			d.LastError = lastError
		}
	}
	return nil
}

func (s *stubDispatchRepo) ResetStalePending(olderThan time.Time) (int64, error) { return 0, nil }

type stubMessageRepo struct {
	mu   sync.Mutex
	msgs []*model.Message
}

func (s *stubMessageRepo) Create(m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = len(s.msgs) + 1
	cp := *m
	s.msgs = append(s.msgs, &cp)
	return nil
}

func (s *stubMessageRepo) CountByCampaign(id int) (map[string]int, error) {
	return map[string]int{}, nil
}

func newTestRouter(campaigns *stubCampaignRepo, contacts *stubContactRepo) (*chi.Mux, *stubMessageRepo) {
	log := zap.NewNop()
	resolver := &service.RecipientResolver{
		Campaigns: campaigns,
		Contacts:  contacts,
		Users:     stubUserRepo{},
		Log:       log,
	}
	messages := &stubMessageRepo{}
	poller := &service.CampaignPoller{
		Campaigns:  campaigns,
		Dispatches: &stubDispatchRepo{},
		Resolver:   resolver,
		Dispatcher: &service.Dispatcher{Gateway: gateway.NewMockGateway(), Messages: messages, Log: log},
		Events:     events.NoopPublisher{},
		BatchSize:  50,
		Log:        log,
	}
	c := &controller.CampaignController{Campaigns: campaigns, Resolver: resolver, Poller: poller, Log: log}

	r := chi.NewRouter()
	r.Post("/campaigns", c.CreateCampaign)
	r.Post("/campaigns/{id}/dispatch", c.DispatchCampaign)
	r.Get("/campaigns/{id}/recipients", c.ResolveRecipients)
	return r, messages
}

func TestCreateCampaignRejectsRecurringWithoutSchedule(t *testing.T) {
	r, _ := newTestRouter(newStubCampaignRepo(), &stubContactRepo{})

	body := `{"name":"x","body":"hi","recurring_active":true,"recurring_interval":"daily"}`
	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCampaignRejectsUntaggedRecipient(t *testing.T) {
	r, _ := newTestRouter(newStubCampaignRepo(), &stubContactRepo{})

	body := `{"name":"x","body":"hi","recipients":[{}]}`
	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCampaignStoresRecipientLinks(t *testing.T) {
	campaigns := newStubCampaignRepo()
	r, _ := newTestRouter(campaigns, &stubContactRepo{})

	body := `{"name":"x","body":"hi","recipients":[{"contact_id":1},{"user_id":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	links, err := campaigns.ListRecipients(1)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, model.RecipientKindContact, links[0].Kind)
	assert.Equal(t, model.RecipientKindUser, links[1].Kind)
}

func TestDispatchEndpointSendsOnce(t *testing.T) {
	campaigns := newStubCampaignRepo()
	contacts := &stubContactRepo{contacts: map[int]model.Contact{
		1: {ID: 1, Phone: "+254711111111", FirstName: "Alice"},
	}}
	sched := time.Now().Add(-time.Minute)
	c := &model.Campaign{Name: "blast", Body: "hi", Status: model.CampaignStatusPending, Schedule: &sched}
	require.NoError(t, campaigns.Create(c))
	require.NoError(t, campaigns.ReplaceRecipients(c.ID, []model.CampaignRecipient{
		{CampaignID: c.ID, Kind: model.RecipientKindContact, RecipientID: 1},
	}))

	r, messages := newTestRouter(campaigns, contacts)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/campaigns/1/dispatch", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	messages.mu.Lock()
	defer messages.mu.Unlock()
	assert.Len(t, messages.msgs, 1, "second dispatch call reports the ledger row instead of re-sending")
}

func TestDispatchEndpointUnknownCampaign(t *testing.T) {
	r, _ := newTestRouter(newStubCampaignRepo(), &stubContactRepo{})

	req := httptest.NewRequest(http.MethodPost, "/campaigns/99/dispatch", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResolveRecipientsEndpoint(t *testing.T) {
	campaigns := newStubCampaignRepo()
	contacts := &stubContactRepo{contacts: map[int]model.Contact{
		1: {ID: 1, Phone: "+254711111111", FirstName: "Alice"},
	}}
	c := &model.Campaign{Name: "blast", Body: "hi", Status: model.CampaignStatusPending}
	require.NoError(t, campaigns.Create(c))
	require.NoError(t, campaigns.ReplaceRecipients(c.ID, []model.CampaignRecipient{
		{CampaignID: c.ID, Kind: model.RecipientKindContact, RecipientID: 1},
	}))

	r, _ := newTestRouter(campaigns, contacts)

	req := httptest.NewRequest(http.MethodGet, "/campaigns/1/recipients", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "+254711111111")
}
