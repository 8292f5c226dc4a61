package conversion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-crm-core/internal/config"
	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/features/scoring"
	"go-crm-core/internal/identity"
	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/internal/store/memory"
	"go-crm-core/pkg/condition"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var now = time.Date(2024, 4, 10, 15, 0, 0, 0, time.UTC)

type seqNumberer struct {
	mu      sync.Mutex
	numbers []string
	calls   int
}

func (n *seqNumberer) Next() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.numbers[min(n.calls, len(n.numbers)-1)]
	n.calls++
	return out
}

type harness struct {
	mem        *memory.Store
	dispatcher *lifecycle.Dispatcher
	svc        ConversionService
}

func newHarness(t *testing.T, numberer TicketNumberer) *harness {
	t.Helper()
	mem := memory.New()
	logger := zaptest.NewLogger(t)
	d := lifecycle.NewDispatcher(mem, scoring.NewScoringServiceWithClock(func() time.Time { return now }),
		config.Default(), logger)
	return &harness{mem: mem, dispatcher: d, svc: NewConversionService(d, numberer, logger)}
}

func ctxAs(actor string) context.Context {
	return identity.WithActor(context.Background(), actor)
}

func (h *harness) create(t *testing.T, recs ...models.Record) {
	t.Helper()
	require.NoError(t, h.dispatcher.Run(ctxAs("seed"), func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		for _, rec := range recs {
			if err := uow.Create(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (h *harness) loadAny(t *testing.T, kind models.Kind, id string) models.Record {
	t.Helper()
	var out models.Record
	require.NoError(t, h.dispatcher.Run(context.Background(), func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		var err error
		out, err = uow.LoadAny(ctx, kind, id)
		return err
	}))
	return out
}

func (h *harness) list(t *testing.T, kind models.Kind, conds ...models.Condition) []models.Record {
	t.Helper()
	var out []models.Record
	require.NoError(t, h.dispatcher.Run(context.Background(), func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		var err error
		out, err = uow.List(ctx, kind, conds...)
		return err
	}))
	return out
}

func newLead() *models.Lead {
	lead := &models.Lead{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@analytical.io",
		Phone:       "+44 20 0000",
		CompanyName: "Analytical Engines",
		Status:      models.LeadStatusQualified,
		Notes:       "met at expo",
	}
	lead.OwnerID = "owner-1"
	return lead
}

func childOf(parent models.Record, child models.Child) models.Record {
	child.SetParent(models.RefOf(parent))
	return child
}

func TestLeadToClientWithDeal(t *testing.T) {
	h := newHarness(t, nil)
	lead := newLead()
	h.create(t, lead)
	h.create(t,
		childOf(lead, &models.Activity{Type: "call", Subject: "Intro call", Status: models.ActivityStatusCompleted}),
		childOf(lead, &models.Engagement{Type: "email_open"}),
	)

	value := 12000.0
	closeBy := now.AddDate(0, 2, 0)
	res, err := h.svc.LeadToClient(ctxAs("u1"), lead.ID, ClientInput{
		CreateDeal:    true,
		DealTitle:     "Engine order",
		DealValue:     &value,
		DealStage:     "proposal",
		ExpectedClose: &closeBy,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Client)
	require.NotNil(t, res.Deal)

	assert.Equal(t, "Analytical Engines", res.Client.Name)
	assert.Equal(t, "ada@analytical.io", res.Client.Email)
	assert.Equal(t, "owner-1", res.Client.OwnerID)
	assert.Equal(t, "u1", res.Client.CreatedBy)
	assert.Equal(t, res.Client.ID, res.Deal.ClientID)
	assert.Equal(t, 12000.0, res.Deal.Value)
	assert.Equal(t, models.DealStatusOpen, res.Deal.Status)

	stored := h.loadAny(t, models.KindLead, lead.ID).(*models.Lead)
	assert.Equal(t, models.LeadStatusConverted, stored.Status)
	assert.Equal(t, res.Client.ID, stored.ConvertedToClientID)
	assert.Equal(t, res.Deal.ID, stored.ConvertedToDealID)
	require.NotNil(t, stored.ConvertedAt)
	assert.True(t, stored.ConvertedAt.Equal(now))

	clientRef := models.RefOf(res.Client)
	assert.Len(t, h.list(t, models.KindActivity, condition.ChildOf(clientRef)...), 1)
	assert.Len(t, h.list(t, models.KindEngagement, condition.ChildOf(clientRef)...), 1)
	assert.Empty(t, h.list(t, models.KindEngagement, condition.ChildOf(models.RefOf(lead))...))
}

func TestLeadToClientRejectsSecondConversion(t *testing.T) {
	h := newHarness(t, nil)
	lead := newLead()
	h.create(t, lead)

	_, err := h.svc.LeadToClient(ctxAs("u1"), lead.ID, ClientInput{})
	require.NoError(t, err)

	before := testutil.ToFloat64(conversionsTotal.WithLabelValues(RouteLeadToClient.String(), "precondition_failed"))
	_, err = h.svc.LeadToClient(ctxAs("u1"), lead.ID, ClientInput{})
	var perr *PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Lead is already converted.", UserMessage(err))
	assert.Equal(t, before+1, testutil.ToFloat64(conversionsTotal.WithLabelValues(RouteLeadToClient.String(), "precondition_failed")))

	assert.Len(t, h.list(t, models.KindClient), 1)
}

func TestLeadToClientRollsBackEveryWrite(t *testing.T) {
	h := newHarness(t, nil)
	lead := newLead()
	h.create(t, lead)

	boom := errors.New("disk full")
	h.mem.SetFault(func(op memory.Op, kind models.Kind) error {
		if op == memory.OpInsert && kind == models.KindDeal {
			return boom
		}
		return nil
	})

	value := 10.0
	_, err := h.svc.LeadToClient(ctxAs("u1"), lead.ID, ClientInput{CreateDeal: true, DealTitle: "x", DealValue: &value, DealStage: "new"})
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Conversion failed. No changes were made.", UserMessage(err))

	h.mem.SetFault(nil)
	stored := h.loadAny(t, models.KindLead, lead.ID).(*models.Lead)
	assert.Equal(t, models.LeadStatusQualified, stored.Status)
	assert.Empty(t, stored.ConvertedToClientID)
	assert.Empty(t, h.list(t, models.KindClient))
}

func TestLeadToClientValidatesDealInput(t *testing.T) {
	h := newHarness(t, nil)
	lead := newLead()
	h.create(t, lead)

	_, err := h.svc.LeadToClient(ctxAs("u1"), lead.ID, ClientInput{CreateDeal: true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, UserMessage(err), "DealTitle")
	assert.Empty(t, h.list(t, models.KindClient))
}

func TestLeadToClientMissingLead(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.LeadToClient(ctxAs("u1"), "nope", ClientInput{})
	var perr *PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDealToProjectMovesHistoryAndWinsDeal(t *testing.T) {
	h := newHarness(t, nil)
	closeBy := now.AddDate(0, 1, 0)
	deal := &models.Deal{Title: "Rollout", Value: 5000, Status: models.DealStatusOpen, ClientID: "c1", ExpectedCloseDate: &closeBy}
	deal.OwnerID = "owner-2"
	h.create(t, deal)
	h.create(t,
		childOf(deal, &models.Activity{Type: "meeting", Subject: "Kickoff", Status: models.ActivityStatusPending}),
		childOf(deal, &models.Engagement{Type: "meeting"}),
	)

	project, err := h.svc.DealToProject(ctxAs("u1"), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rollout", project.Name)
	assert.Equal(t, 5000.0, project.Budget)
	assert.Equal(t, deal.ID, project.DealID)
	assert.Equal(t, models.ProjectStatusPending, project.Status)
	require.NotNil(t, project.EndDate)
	assert.True(t, project.EndDate.Equal(closeBy))

	stored := h.loadAny(t, models.KindDeal, deal.ID).(*models.Deal)
	assert.Equal(t, models.DealStatusWon, stored.Status)
	require.NotNil(t, stored.ActualCloseDate)

	ref := models.RefOf(project)
	assert.Len(t, h.list(t, models.KindActivity, condition.ChildOf(ref)...), 1)
	assert.Len(t, h.list(t, models.KindEngagement, condition.ChildOf(ref)...), 1)

	_, err = h.svc.DealToProject(ctxAs("u1"), deal.ID)
	assert.Equal(t, "Only open deals can be converted to a project.", UserMessage(err))
}

func TestDealToLeadRejectsWonDeal(t *testing.T) {
	h := newHarness(t, nil)
	deal := &models.Deal{Title: "Done", Status: models.DealStatusWon}
	h.create(t, deal)

	_, err := h.svc.DealToLead(ctxAs("u1"), deal.ID)
	var perr *PreconditionError
	assert.ErrorAs(t, err, &perr)
	assert.Empty(t, h.list(t, models.KindLead))
}

func TestDealToLeadUsesContact(t *testing.T) {
	h := newHarness(t, nil)
	client := &models.Client{Name: "Globex", Email: "info@globex.com", Status: models.ClientStatusActive}
	contact := &models.Contact{FirstName: "Hank", LastName: "Scorpio", Phone: "555-0100"}
	h.create(t, client, contact)
	deal := &models.Deal{Title: "Doomsday", Status: models.DealStatusOpen, ClientID: client.ID, ContactID: contact.ID, LostReason: "budget"}
	h.create(t, deal)

	lead, err := h.svc.DealToLead(ctxAs("u1"), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hank", lead.FirstName)
	assert.Equal(t, "info@globex.com", lead.Email)
	assert.Equal(t, "555-0100", lead.Phone)
	assert.Equal(t, "Globex", lead.CompanyName)
	assert.Equal(t, "Converted from Deal: Doomsday. Reason: budget", lead.Notes)

	stored := h.loadAny(t, models.KindDeal, deal.ID).(*models.Deal)
	assert.Equal(t, models.DealStatusLost, stored.Status)
}

func TestClientToLeadRetiresClientAndContacts(t *testing.T) {
	h := newHarness(t, nil)
	client := &models.Client{Name: "Initech", Phone: "555-0199", Status: models.ClientStatusActive}
	h.create(t, client)
	first := &models.Contact{FirstName: "Peter", LastName: "Gibbons", Email: "peter@initech.com", ClientID: client.ID}
	second := &models.Contact{FirstName: "Milton", ClientID: client.ID}
	h.create(t, first, second)

	lead, err := h.svc.ClientToLead(ctxAs("u1"), client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Peter", lead.FirstName)
	assert.Equal(t, "peter@initech.com", lead.Email)
	assert.Equal(t, "555-0199", lead.Phone)
	assert.Equal(t, "Initech", lead.CompanyName)
	assert.Equal(t, models.LeadStatusNew, lead.Status)

	gone := h.loadAny(t, models.KindClient, client.ID)
	assert.True(t, gone.GetMeta().Deleted())
	assert.Equal(t, "u1", gone.GetMeta().DeletedBy)
	assert.Empty(t, h.list(t, models.KindContact))
}

func TestTicketNumberRetriesOnCollision(t *testing.T) {
	numberer := &seqNumberer{numbers: []string{"TIC-AAAAAA", "TIC-AAAAAA", "TIC-BBBBBB"}}
	h := newHarness(t, numberer)
	lead := newLead()
	h.create(t, lead)

	first, err := h.svc.LeadToTicket(ctxAs("u1"), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "TIC-AAAAAA", first.TicketNumber)
	assert.Equal(t, models.TicketStatusOpen, first.Status)
	assert.Equal(t, "u1", first.ReporterID)
	assert.Equal(t, "Inquiry from Lead: Ada Lovelace", first.Subject)

	second, err := h.svc.LeadToTicket(ctxAs("u1"), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "TIC-BBBBBB", second.TicketNumber)
	assert.Equal(t, 3, numberer.calls)
}

func TestTicketNumberGivesUp(t *testing.T) {
	numberer := &seqNumberer{numbers: []string{"TIC-AAAAAA"}}
	h := newHarness(t, numberer)
	partner := &models.Partner{Name: "Acme Resellers", Type: models.PartnerTypeReseller}
	h.create(t, partner)

	_, err := h.svc.PartnerToTicket(ctxAs("u1"), partner.ID)
	require.NoError(t, err)

	_, err = h.svc.PartnerToTicket(ctxAs("u1"), partner.ID)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Len(t, h.list(t, models.KindTicket), 1)
}

func TestRandomTicketNumberFormat(t *testing.T) {
	assert.Regexp(t, `^TIC-[0-9A-F]{6}$`, NewTicketNumberer().Next())
}

func TestTicketToLeadClosesTicket(t *testing.T) {
	h := newHarness(t, nil)
	ticket := &models.Ticket{TicketNumber: "TIC-00C0DE", Subject: "Printer on fire", Description: "smoke", Status: models.TicketStatusOpen, AssignedTo: "agent-7"}
	h.create(t, ticket)

	lead, err := h.svc.TicketToLead(ctxAs("u1"), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Printer on fire", lead.FirstName)
	assert.Equal(t, "(Ticket)", lead.LastName)
	assert.Equal(t, "agent-7", lead.OwnerID)
	assert.Equal(t, "Converted from Ticket #TIC-00C0DE: smoke", lead.Notes)

	stored := h.loadAny(t, models.KindTicket, ticket.ID).(*models.Ticket)
	assert.Equal(t, models.TicketStatusClosed, stored.Status)

	_, err = h.svc.TicketToDeal(ctxAs("u1"), ticket.ID)
	assert.Equal(t, "Ticket TIC-00C0DE is already closed.", UserMessage(err))
}

func TestTicketToContactSplitsSubject(t *testing.T) {
	h := newHarness(t, nil)
	ticket := &models.Ticket{TicketNumber: "TIC-000001", Subject: "Jane Doe password reset", Status: models.TicketStatusOpen}
	h.create(t, ticket)

	contact, err := h.svc.TicketToContact(ctxAs("u1"), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", contact.FirstName)
	assert.Equal(t, "Doe", contact.LastName)
	assert.Equal(t, "Customer from Ticket", contact.JobTitle)
	assert.Equal(t, "u1", contact.OwnerID)
}

func TestEngagementToDealCascadesLeadConversion(t *testing.T) {
	h := newHarness(t, nil)
	lead := newLead()
	h.create(t, lead)
	eng := &models.Engagement{Type: "meeting", Subject: "Demo"}
	h.create(t, childOf(lead, eng))

	deal, err := h.svc.EngagementToDeal(ctxAs("u1"), eng.ID)
	require.NoError(t, err)
	assert.Equal(t, "Opportunity from Engagement: Demo", deal.Title)
	assert.Equal(t, "Analytical Engines", deal.ClientName)

	stored := h.loadAny(t, models.KindLead, lead.ID).(*models.Lead)
	assert.Equal(t, models.LeadStatusConverted, stored.Status)
	assert.Equal(t, stored.ConvertedToClientID, deal.ClientID)

	// a second engagement on the same lead reuses the client
	other := &models.Engagement{Type: "call", ParentType: models.KindLead, ParentID: lead.ID}
	h.create(t, other)
	ticket, err := h.svc.EngagementToTicket(ctxAs("u1"), other.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ClientID, ticket.ClientID)
	assert.Len(t, h.list(t, models.KindClient), 1)
}

func TestEngagementOnDealCannotConvert(t *testing.T) {
	h := newHarness(t, nil)
	deal := &models.Deal{Title: "Rollout", Status: models.DealStatusOpen}
	h.create(t, deal)
	eng, err := h.svc.DealToEngagement(ctxAs("u1"), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", eng.Status)
	assert.Equal(t, models.RefOf(deal), eng.GetParent())

	_, err = h.svc.EngagementToTicket(ctxAs("u1"), eng.ID)
	assert.Equal(t, "Engagements attached to a deal cannot be converted.", UserMessage(err))
	assert.Empty(t, h.list(t, models.KindTicket))
}

func TestPartnerToLeadDeletesPartner(t *testing.T) {
	h := newHarness(t, nil)
	partner := &models.Partner{Name: "Wayne Corp", Email: "bd@wayne.com"}
	h.create(t, partner)

	lead, err := h.svc.PartnerToLead(ctxAs("u1"), partner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wayne Corp", lead.CompanyName)
	assert.Equal(t, "Converted from Partner: No description", lead.Notes)
	assert.True(t, h.loadAny(t, models.KindPartner, partner.ID).GetMeta().Deleted())

	_, err = h.svc.PartnerToLead(ctxAs("u1"), partner.ID)
	var perr *PreconditionError
	assert.ErrorAs(t, err, &perr)
}

func TestConvertDispatchesByRoute(t *testing.T) {
	h := newHarness(t, nil)
	contact := &models.Contact{FirstName: "Ada", Email: "ada@x.io"}
	h.create(t, contact)

	out, err := h.svc.Convert(ctxAs("u1"), RouteContactToTicket, contact.ID, ClientInput{})
	require.NoError(t, err)
	ticket, ok := out.(*models.Ticket)
	require.True(t, ok)
	assert.Equal(t, contact.ID, ticket.ContactID)

	_, err = h.svc.Convert(ctxAs("u1"), Route{From: models.KindTask, To: models.KindLead}, "x", ClientInput{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseRoute(t *testing.T) {
	r, ok := ParseRoute("deal", "project")
	assert.True(t, ok)
	assert.Equal(t, RouteDealToProject, r)
	assert.Equal(t, "deal_to_project", r.String())

	_, ok = ParseRoute("project", "deal")
	assert.False(t, ok)
	assert.Len(t, Routes, 19)
}

func TestUserMessageHidesStoreErrors(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "Conversion failed. No changes were made.",
		UserMessage(&PersistenceError{Op: "lead_to_client", Err: errors.New("pq: relation does not exist")}))
	assert.Equal(t, "The lead was changed by someone else. Reload it and try again.",
		UserMessage(classify(RouteLeadToClient, store.ErrConflict)))
}
