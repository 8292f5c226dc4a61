package conversion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ConversionService turns one record into another. Every conversion runs
// in a single transaction: either all of its writes land or none do.
type ConversionService interface {
	LeadToClient(ctx context.Context, leadID string, in ClientInput) (*LeadConversion, error)
	LeadToPartner(ctx context.Context, leadID string) (*models.Partner, error)
	LeadToTicket(ctx context.Context, leadID string) (*models.Ticket, error)
	ContactToLead(ctx context.Context, contactID string) (*models.Lead, error)
	ContactToTicket(ctx context.Context, contactID string) (*models.Ticket, error)
	ClientToLead(ctx context.Context, clientID string) (*models.Lead, error)
	ClientToPartner(ctx context.Context, clientID string) (*models.Partner, error)
	ClientToTicket(ctx context.Context, clientID string) (*models.Ticket, error)
	DealToProject(ctx context.Context, dealID string) (*models.Project, error)
	DealToLead(ctx context.Context, dealID string) (*models.Lead, error)
	DealToTicket(ctx context.Context, dealID string) (*models.Ticket, error)
	DealToEngagement(ctx context.Context, dealID string) (*models.Engagement, error)
	TicketToLead(ctx context.Context, ticketID string) (*models.Lead, error)
	TicketToDeal(ctx context.Context, ticketID string) (*models.Deal, error)
	TicketToContact(ctx context.Context, ticketID string) (*models.Contact, error)
	PartnerToLead(ctx context.Context, partnerID string) (*models.Lead, error)
	PartnerToTicket(ctx context.Context, partnerID string) (*models.Ticket, error)
	EngagementToDeal(ctx context.Context, engagementID string) (*models.Deal, error)
	EngagementToTicket(ctx context.Context, engagementID string) (*models.Ticket, error)

	// Convert dispatches on route. in is only read by lead to client.
	Convert(ctx context.Context, route Route, id string, in ClientInput) (any, error)
}

type ConversionServiceImpl struct {
	dispatcher *lifecycle.Dispatcher
	numberer   TicketNumberer
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewConversionService(dispatcher *lifecycle.Dispatcher, numberer TicketNumberer, logger *zap.Logger) ConversionService {
	if numberer == nil {
		numberer = NewTicketNumberer()
	}
	return &ConversionServiceImpl{
		dispatcher: dispatcher,
		numberer:   numberer,
		validate:   validator.New(),
		logger:     logger,
	}
}

// run executes fn in one unit of work and classifies whatever comes back.
func run[T any](s *ConversionServiceImpl, ctx context.Context, route Route, id string, fn func(ctx context.Context, uow *lifecycle.UnitOfWork) (T, error)) (T, error) {
	var out T
	err := s.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		var err error
		out, err = fn(ctx, uow)
		return err
	})
	if err != nil {
		err = classify(route, err)
		conversionsTotal.WithLabelValues(route.String(), outcome(err)).Inc()
		s.logger.Warn("Conversion rolled back",
			zap.String("route", route.String()),
			zap.String("source_id", id),
			zap.Error(err))
		var zero T
		return zero, err
	}
	conversionsTotal.WithLabelValues(route.String(), "succeeded").Inc()
	s.logger.Info("Conversion committed", zap.String("route", route.String()), zap.String("source_id", id))
	return out, nil
}

func classify(route Route, err error) error {
	var perr *PreconditionError
	var verr *ValidationError
	switch {
	case errors.As(err, &perr), errors.As(err, &verr):
		return err
	case errors.Is(err, store.ErrConflict):
		return &PreconditionError{
			Reason: fmt.Sprintf("The %s was changed by someone else. Reload it and try again.", route.From),
			Err:    err,
		}
	default:
		return &PersistenceError{Op: route.String(), Err: err}
	}
}

func outcome(err error) string {
	var perr *PreconditionError
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.As(err, &perr):
		return "precondition_failed"
	default:
		return "failed"
	}
}

// load fetches the live source record; a missing one is a precondition
// failure rather than a store error.
func load[T models.Record](ctx context.Context, uow *lifecycle.UnitOfWork, kind models.Kind, id string) (T, error) {
	var zero T
	rec, err := uow.Load(ctx, kind, id)
	if errors.Is(err, store.ErrNotFound) {
		return zero, &PreconditionError{Reason: fmt.Sprintf("The %s %q does not exist.", kind, id), Err: err}
	}
	if err != nil {
		return zero, err
	}
	typed, ok := rec.(T)
	if !ok {
		return zero, fmt.Errorf("%s/%s decoded as %T", kind, id, rec)
	}
	return typed, nil
}

// lookup fetches a related record that may legitimately be absent.
func lookup[T models.Record](ctx context.Context, uow *lifecycle.UnitOfWork, kind models.Kind, id string) (T, bool, error) {
	var zero T
	if id == "" {
		return zero, false, nil
	}
	rec, err := uow.Load(ctx, kind, id)
	if errors.Is(err, store.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	typed, ok := rec.(T)
	return typed, ok, nil
}

// moveHistory hands activities and engagements over to the new record.
func moveHistory(ctx context.Context, uow *lifecycle.UnitOfWork, from, to models.Record) error {
	for _, kind := range []models.Kind{models.KindActivity, models.KindEngagement} {
		if !models.Supports(to.Kind(), capabilityFor(kind)) {
			continue
		}
		if _, err := uow.Reassign(ctx, kind, models.RefOf(from), models.RefOf(to)); err != nil {
			return fmt.Errorf("reassign %s: %w", kind, err)
		}
	}
	return nil
}

func capabilityFor(kind models.Kind) models.Capability {
	if kind == models.KindEngagement {
		return models.CapEngagements
	}
	return models.CapActivities
}

func (s *ConversionServiceImpl) openTicket(ctx context.Context, uow *lifecycle.UnitOfWork, t *models.Ticket) error {
	number, err := uniqueTicketNumber(ctx, uow, s.numberer)
	if err != nil {
		return err
	}
	t.TicketNumber = number
	t.Status = models.TicketStatusOpen
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Category == "" {
		t.Category = "general"
	}
	t.ReporterID = uow.Actor()
	return uow.Create(ctx, t)
}

func (s *ConversionServiceImpl) now() time.Time { return s.dispatcher.Scoring().Now() }

// Lead

func (s *ConversionServiceImpl) LeadToClient(ctx context.Context, leadID string, in ClientInput) (*LeadConversion, error) {
	if err := s.validate.Struct(in); err != nil {
		conversionsTotal.WithLabelValues(RouteLeadToClient.String(), "invalid").Inc()
		return nil, &ValidationError{Err: err}
	}
	return run(s, ctx, RouteLeadToClient, leadID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*LeadConversion, error) {
		lead, err := load[*models.Lead](ctx, uow, models.KindLead, leadID)
		if err != nil {
			return nil, err
		}
		return s.leadToClient(ctx, uow, lead, in)
	})
}

func (s *ConversionServiceImpl) leadToClient(ctx context.Context, uow *lifecycle.UnitOfWork, lead *models.Lead, in ClientInput) (*LeadConversion, error) {
	if lead.Status == models.LeadStatusConverted {
		return nil, precondition("Lead is already converted.")
	}

	client := &models.Client{
		Name:    firstNonEmpty(lead.CompanyName, lead.FullName(), lead.Email),
		Email:   lead.Email,
		Phone:   firstNonEmpty(lead.Phone, lead.Mobile),
		Status:  models.ClientStatusActive,
		Address: lead.Address,
		Notes:   lead.Notes,
	}
	client.OwnerID = lead.OwnerID
	if err := uow.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	result := &LeadConversion{Client: client}

	if in.CreateDeal {
		deal := &models.Deal{
			Title:             in.DealTitle,
			Stage:             in.DealStage,
			ExpectedCloseDate: in.ExpectedClose,
			ClientID:          client.ID,
			ClientName:        client.Name,
			Status:            models.DealStatusOpen,
		}
		if in.DealValue != nil {
			deal.Value = *in.DealValue
		}
		deal.OwnerID = lead.OwnerID
		if err := uow.Create(ctx, deal); err != nil {
			return nil, fmt.Errorf("create deal: %w", err)
		}
		result.Deal = deal
		lead.ConvertedToDealID = deal.ID
	}

	now := s.now()
	lead.Status = models.LeadStatusConverted
	lead.ConvertedToClientID = client.ID
	lead.ConvertedAt = &now
	if err := uow.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("mark lead converted: %w", err)
	}
	if err := moveHistory(ctx, uow, lead, client); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ConversionServiceImpl) LeadToPartner(ctx context.Context, leadID string) (*models.Partner, error) {
	return run(s, ctx, RouteLeadToPartner, leadID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Partner, error) {
		lead, err := load[*models.Lead](ctx, uow, models.KindLead, leadID)
		if err != nil {
			return nil, err
		}
		if lead.Status == models.LeadStatusConverted {
			return nil, precondition("Lead is already converted.")
		}

		partner := &models.Partner{
			Name:        firstNonEmpty(lead.CompanyName, lead.FullName(), lead.Email),
			Type:        models.PartnerTypeReseller,
			Status:      models.PartnerStatusActive,
			Email:       lead.Email,
			Phone:       firstNonEmpty(lead.Phone, lead.Mobile),
			Description: "Converted from Lead: " + orDefault(lead.Notes, "No notes"),
		}
		partner.OwnerID = lead.OwnerID
		if err := uow.Create(ctx, partner); err != nil {
			return nil, fmt.Errorf("create partner: %w", err)
		}

		now := s.now()
		lead.Status = models.LeadStatusConverted
		lead.ConvertedAt = &now
		if err := uow.Update(ctx, lead); err != nil {
			return nil, fmt.Errorf("mark lead converted: %w", err)
		}
		return partner, nil
	})
}

func (s *ConversionServiceImpl) LeadToTicket(ctx context.Context, leadID string) (*models.Ticket, error) {
	return run(s, ctx, RouteLeadToTicket, leadID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Ticket, error) {
		lead, err := load[*models.Lead](ctx, uow, models.KindLead, leadID)
		if err != nil {
			return nil, err
		}
		ticket := &models.Ticket{
			Subject: "Inquiry from Lead: " + firstNonEmpty(lead.FullName(), lead.CompanyName, lead.Email),
			Description: fmt.Sprintf("Lead: %s\nCompany: %s\nEmail: %s\nPhone: %s\nNotes: %s",
				lead.FullName(), orNA(lead.CompanyName), orNA(lead.Email), orNA(lead.Phone), orNA(lead.Notes)),
			AssignedTo: lead.OwnerID,
		}
		ticket.OwnerID = lead.OwnerID
		if err := s.openTicket(ctx, uow, ticket); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		return ticket, nil
	})
}

// Contact

func (s *ConversionServiceImpl) ContactToLead(ctx context.Context, contactID string) (*models.Lead, error) {
	return run(s, ctx, RouteContactToLead, contactID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Lead, error) {
		contact, err := load[*models.Contact](ctx, uow, models.KindContact, contactID)
		if err != nil {
			return nil, err
		}
		client, _, err := lookup[*models.Client](ctx, uow, models.KindClient, contact.ClientID)
		if err != nil {
			return nil, err
		}

		lead := &models.Lead{
			FirstName: contact.FirstName,
			LastName:  contact.LastName,
			Email:     contact.Email,
			Phone:     contact.Phone,
			Mobile:    contact.Mobile,
			JobTitle:  contact.JobTitle,
			Status:    models.LeadStatusNew,
			Address:   contact.Address,
			Notes:     contact.Notes,
		}
		if client != nil {
			lead.CompanyName = client.Name
		}
		lead.OwnerID = contact.OwnerID
		if err := uow.Create(ctx, lead); err != nil {
			return nil, fmt.Errorf("create lead: %w", err)
		}
		if err := moveHistory(ctx, uow, contact, lead); err != nil {
			return nil, err
		}
		if err := uow.Delete(ctx, contact); err != nil {
			return nil, fmt.Errorf("delete contact: %w", err)
		}
		return lead, nil
	})
}

func (s *ConversionServiceImpl) ContactToTicket(ctx context.Context, contactID string) (*models.Ticket, error) {
	return run(s, ctx, RouteContactToTicket, contactID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Ticket, error) {
		contact, err := load[*models.Contact](ctx, uow, models.KindContact, contactID)
		if err != nil {
			return nil, err
		}
		ticket := &models.Ticket{
			Subject: "Support Request from Contact: " + firstNonEmpty(contact.FullName(), contact.Email),
			Description: fmt.Sprintf("Contact: %s\nEmail: %s\nPhone: %s\nNotes: %s",
				contact.FullName(), orNA(contact.Email), orNA(contact.Phone), orNA(contact.Notes)),
			ClientID:   contact.ClientID,
			ContactID:  contact.ID,
			AssignedTo: contact.OwnerID,
		}
		ticket.OwnerID = contact.OwnerID
		if err := s.openTicket(ctx, uow, ticket); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		return ticket, nil
	})
}

// Client

func clientContacts(ctx context.Context, uow *lifecycle.UnitOfWork, clientID string) ([]*models.Contact, error) {
	recs, err := uow.List(ctx, models.KindContact, condition.Eq("client_id", clientID))
	if err != nil {
		return nil, err
	}
	contacts := make([]*models.Contact, 0, len(recs))
	for _, rec := range recs {
		contacts = append(contacts, rec.(*models.Contact))
	}
	return contacts, nil
}

// retireClient soft-deletes a client together with its contacts.
func retireClient(ctx context.Context, uow *lifecycle.UnitOfWork, client *models.Client, contacts []*models.Contact) error {
	for _, contact := range contacts {
		if err := uow.Delete(ctx, contact); err != nil {
			return fmt.Errorf("delete contact %s: %w", contact.ID, err)
		}
	}
	if err := uow.Delete(ctx, client); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

func (s *ConversionServiceImpl) ClientToLead(ctx context.Context, clientID string) (*models.Lead, error) {
	return run(s, ctx, RouteClientToLead, clientID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Lead, error) {
		client, err := load[*models.Client](ctx, uow, models.KindClient, clientID)
		if err != nil {
			return nil, err
		}
		contacts, err := clientContacts(ctx, uow, client.ID)
		if err != nil {
			return nil, err
		}

		lead := &models.Lead{
			FirstName:   client.Name,
			Phone:       client.Phone,
			CompanyName: client.Name,
			Status:      models.LeadStatusNew,
			Address:     client.Address,
			Notes:       client.Notes,
		}
		if len(contacts) > 0 {
			primary := contacts[0]
			lead.FirstName = primary.FirstName
			lead.LastName = primary.LastName
			lead.Email = primary.Email
			lead.JobTitle = primary.JobTitle
		}
		if lead.Email == "" {
			lead.Email = client.Email
		}
		lead.OwnerID = client.OwnerID
		if err := uow.Create(ctx, lead); err != nil {
			return nil, fmt.Errorf("create lead: %w", err)
		}
		if err := moveHistory(ctx, uow, client, lead); err != nil {
			return nil, err
		}
		if err := retireClient(ctx, uow, client, contacts); err != nil {
			return nil, err
		}
		return lead, nil
	})
}

func (s *ConversionServiceImpl) ClientToPartner(ctx context.Context, clientID string) (*models.Partner, error) {
	return run(s, ctx, RouteClientToPartner, clientID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Partner, error) {
		client, err := load[*models.Client](ctx, uow, models.KindClient, clientID)
		if err != nil {
			return nil, err
		}
		contacts, err := clientContacts(ctx, uow, client.ID)
		if err != nil {
			return nil, err
		}

		partner := &models.Partner{
			Name:        client.Name,
			Type:        models.PartnerTypeReseller,
			Status:      models.PartnerStatusActive,
			Email:       client.Email,
			Phone:       client.Phone,
			Website:     client.Website,
			Description: "Converted from Client: " + orDefault(client.Notes, "No notes"),
		}
		partner.OwnerID = client.OwnerID
		if err := uow.Create(ctx, partner); err != nil {
			return nil, fmt.Errorf("create partner: %w", err)
		}
		if err := retireClient(ctx, uow, client, contacts); err != nil {
			return nil, err
		}
		return partner, nil
	})
}

func (s *ConversionServiceImpl) ClientToTicket(ctx context.Context, clientID string) (*models.Ticket, error) {
	return run(s, ctx, RouteClientToTicket, clientID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Ticket, error) {
		client, err := load[*models.Client](ctx, uow, models.KindClient, clientID)
		if err != nil {
			return nil, err
		}
		contacts, err := clientContacts(ctx, uow, client.ID)
		if err != nil {
			return nil, err
		}

		primaryName := "N/A"
		ticket := &models.Ticket{
			Subject:    "Support Request from Client: " + client.Name,
			ClientID:   client.ID,
			AssignedTo: client.OwnerID,
		}
		if len(contacts) > 0 {
			primaryName = orNA(contacts[0].FullName())
			ticket.ContactID = contacts[0].ID
		}
		ticket.Description = fmt.Sprintf("Client Name: %s\nPrimary Contact: %s\nNotes: %s",
			client.Name, primaryName, orNA(client.Notes))
		ticket.OwnerID = client.OwnerID
		if err := s.openTicket(ctx, uow, ticket); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		return ticket, nil
	})
}

// Deal

func (s *ConversionServiceImpl) DealToProject(ctx context.Context, dealID string) (*models.Project, error) {
	return run(s, ctx, RouteDealToProject, dealID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Project, error) {
		deal, err := load[*models.Deal](ctx, uow, models.KindDeal, dealID)
		if err != nil {
			return nil, err
		}
		if deal.Status != models.DealStatusOpen {
			return nil, precondition("Only open deals can be converted to a project.")
		}

		now := s.now()
		end := now.AddDate(0, 3, 0)
		if deal.ExpectedCloseDate != nil {
			end = *deal.ExpectedCloseDate
		}
		project := &models.Project{
			Name:        deal.Title,
			Description: deal.Description,
			Status:      models.ProjectStatusPending,
			Priority:    models.PriorityMedium,
			StartDate:   &now,
			EndDate:     &end,
			Budget:      deal.Value,
			ClientID:    deal.ClientID,
			DealID:      deal.ID,
		}
		project.OwnerID = deal.OwnerID
		if err := uow.Create(ctx, project); err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}

		deal.Status = models.DealStatusWon
		deal.ActualCloseDate = &now
		if err := uow.Update(ctx, deal); err != nil {
			return nil, fmt.Errorf("mark deal won: %w", err)
		}
		if err := moveHistory(ctx, uow, deal, project); err != nil {
			return nil, err
		}
		return project, nil
	})
}

func (s *ConversionServiceImpl) DealToLead(ctx context.Context, dealID string) (*models.Lead, error) {
	return run(s, ctx, RouteDealToLead, dealID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Lead, error) {
		deal, err := load[*models.Deal](ctx, uow, models.KindDeal, dealID)
		if err != nil {
			return nil, err
		}
		if deal.Status == models.DealStatusWon {
			return nil, precondition("A won deal cannot be converted back to a lead.")
		}
		contact, hasContact, err := lookup[*models.Contact](ctx, uow, models.KindContact, deal.ContactID)
		if err != nil {
			return nil, err
		}
		client, hasClient, err := lookup[*models.Client](ctx, uow, models.KindClient, deal.ClientID)
		if err != nil {
			return nil, err
		}

		lead := &models.Lead{
			FirstName:   deal.Title,
			LastName:    "(Deal)",
			CompanyName: deal.ClientName,
			Status:      models.LeadStatusNew,
			Notes:       fmt.Sprintf("Converted from Deal: %s. Reason: %s", deal.Title, orNA(deal.LostReason)),
		}
		if hasClient {
			lead.Email = client.Email
			lead.Phone = client.Phone
			lead.CompanyName = client.Name
		}
		if hasContact {
			lead.FirstName = contact.FirstName
			lead.LastName = contact.LastName
			lead.Email = firstNonEmpty(contact.Email, lead.Email)
			lead.Phone = firstNonEmpty(contact.Phone, lead.Phone)
		}
		lead.OwnerID = deal.OwnerID
		if err := uow.Create(ctx, lead); err != nil {
			return nil, fmt.Errorf("create lead: %w", err)
		}

		deal.Status = models.DealStatusLost
		if err := uow.Update(ctx, deal); err != nil {
			return nil, fmt.Errorf("mark deal lost: %w", err)
		}
		if err := moveHistory(ctx, uow, deal, lead); err != nil {
			return nil, err
		}
		return lead, nil
	})
}

func (s *ConversionServiceImpl) DealToTicket(ctx context.Context, dealID string) (*models.Ticket, error) {
	return run(s, ctx, RouteDealToTicket, dealID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Ticket, error) {
		deal, err := load[*models.Deal](ctx, uow, models.KindDeal, dealID)
		if err != nil {
			return nil, err
		}
		ticket := &models.Ticket{
			Subject:     "Support regarding deal: " + deal.Title,
			Description: "Ticket created from deal. Original description: " + orDefault(deal.Description, "None"),
			ClientID:    deal.ClientID,
			ContactID:   deal.ContactID,
			AssignedTo:  deal.OwnerID,
		}
		ticket.OwnerID = deal.OwnerID
		if err := s.openTicket(ctx, uow, ticket); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		return ticket, nil
	})
}

func (s *ConversionServiceImpl) DealToEngagement(ctx context.Context, dealID string) (*models.Engagement, error) {
	return run(s, ctx, RouteDealToEngagement, dealID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Engagement, error) {
		deal, err := load[*models.Deal](ctx, uow, models.KindDeal, dealID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		engagement := &models.Engagement{
			Type:           "meeting",
			Subject:        "Engagement for Deal: " + deal.Title,
			Description:    deal.Description,
			EngagementDate: &now,
			Status:         "scheduled",
		}
		engagement.SetParent(models.RefOf(deal))
		engagement.OwnerID = deal.OwnerID
		if err := uow.Create(ctx, engagement); err != nil {
			return nil, fmt.Errorf("create engagement: %w", err)
		}
		return engagement, nil
	})
}

// Ticket

type ticketParties struct {
	contact *models.Contact
	client  *models.Client
}

func (p ticketParties) email() string {
	if p.contact != nil && p.contact.Email != "" {
		return p.contact.Email
	}
	if p.client != nil {
		return p.client.Email
	}
	return ""
}

func (p ticketParties) phone() string {
	if p.contact != nil && p.contact.Phone != "" {
		return p.contact.Phone
	}
	if p.client != nil {
		return p.client.Phone
	}
	return ""
}

func (p ticketParties) clientName() string {
	if p.client != nil {
		return p.client.Name
	}
	return ""
}

// openTicketSource loads a ticket that is still open for conversion
// together with its contact and client.
func openTicketSource(ctx context.Context, uow *lifecycle.UnitOfWork, ticketID string) (*models.Ticket, ticketParties, error) {
	var parties ticketParties
	ticket, err := load[*models.Ticket](ctx, uow, models.KindTicket, ticketID)
	if err != nil {
		return nil, parties, err
	}
	if ticket.Status == models.TicketStatusClosed {
		return nil, parties, precondition("Ticket %s is already closed.", ticket.TicketNumber)
	}
	if parties.contact, _, err = lookup[*models.Contact](ctx, uow, models.KindContact, ticket.ContactID); err != nil {
		return nil, parties, err
	}
	if parties.client, _, err = lookup[*models.Client](ctx, uow, models.KindClient, ticket.ClientID); err != nil {
		return nil, parties, err
	}
	return ticket, parties, nil
}

func closeTicket(ctx context.Context, uow *lifecycle.UnitOfWork, ticket *models.Ticket) error {
	ticket.Status = models.TicketStatusClosed
	if err := uow.Update(ctx, ticket); err != nil {
		return fmt.Errorf("close ticket: %w", err)
	}
	return nil
}

func (s *ConversionServiceImpl) TicketToLead(ctx context.Context, ticketID string) (*models.Lead, error) {
	return run(s, ctx, RouteTicketToLead, ticketID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Lead, error) {
		ticket, parties, err := openTicketSource(ctx, uow, ticketID)
		if err != nil {
			return nil, err
		}

		lead := &models.Lead{
			FirstName:   ticket.Subject,
			LastName:    "(Ticket)",
			Email:       parties.email(),
			Phone:       parties.phone(),
			CompanyName: parties.clientName(),
			Status:      models.LeadStatusNew,
			Notes:       fmt.Sprintf("Converted from Ticket #%s: %s", ticket.TicketNumber, ticket.Description),
		}
		if parties.contact != nil {
			lead.FirstName = parties.contact.FirstName
			lead.LastName = parties.contact.LastName
		}
		lead.OwnerID = firstNonEmpty(ticket.AssignedTo, uow.Actor())
		if err := uow.Create(ctx, lead); err != nil {
			return nil, fmt.Errorf("create lead: %w", err)
		}
		if err := closeTicket(ctx, uow, ticket); err != nil {
			return nil, err
		}
		return lead, nil
	})
}

func (s *ConversionServiceImpl) TicketToDeal(ctx context.Context, ticketID string) (*models.Deal, error) {
	return run(s, ctx, RouteTicketToDeal, ticketID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Deal, error) {
		ticket, parties, err := openTicketSource(ctx, uow, ticketID)
		if err != nil {
			return nil, err
		}

		closeBy := s.now().AddDate(0, 1, 0)
		deal := &models.Deal{
			Title:             "Opportunity from Ticket #" + ticket.TicketNumber,
			Description:       ticket.Description,
			Status:            models.DealStatusOpen,
			ClientID:          ticket.ClientID,
			ContactID:         ticket.ContactID,
			ClientName:        parties.clientName(),
			ExpectedCloseDate: &closeBy,
		}
		if parties.contact != nil {
			deal.ContactName = parties.contact.FullName()
		}
		deal.OwnerID = firstNonEmpty(ticket.AssignedTo, uow.Actor())
		if err := uow.Create(ctx, deal); err != nil {
			return nil, fmt.Errorf("create deal: %w", err)
		}
		if err := closeTicket(ctx, uow, ticket); err != nil {
			return nil, err
		}
		return deal, nil
	})
}

func (s *ConversionServiceImpl) TicketToContact(ctx context.Context, ticketID string) (*models.Contact, error) {
	return run(s, ctx, RouteTicketToContact, ticketID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Contact, error) {
		ticket, parties, err := openTicketSource(ctx, uow, ticketID)
		if err != nil {
			return nil, err
		}

		words := strings.Fields(ticket.Subject)
		first, last := "Ticket", "(Ticket)"
		if len(words) > 0 {
			first = words[0]
		}
		if len(words) > 1 {
			last = words[1]
		}
		contact := &models.Contact{
			FirstName: first,
			LastName:  last,
			Email:     parties.email(),
			Phone:     parties.phone(),
			JobTitle:  "Customer from Ticket",
			ClientID:  ticket.ClientID,
			Status:    models.ContactStatusActive,
			Notes:     fmt.Sprintf("Created from Ticket #%s", ticket.TicketNumber),
		}
		contact.OwnerID = firstNonEmpty(ticket.AssignedTo, uow.Actor())
		if err := uow.Create(ctx, contact); err != nil {
			return nil, fmt.Errorf("create contact: %w", err)
		}
		if err := closeTicket(ctx, uow, ticket); err != nil {
			return nil, err
		}
		return contact, nil
	})
}

// Partner

func (s *ConversionServiceImpl) PartnerToLead(ctx context.Context, partnerID string) (*models.Lead, error) {
	return run(s, ctx, RoutePartnerToLead, partnerID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Lead, error) {
		partner, err := load[*models.Partner](ctx, uow, models.KindPartner, partnerID)
		if err != nil {
			return nil, err
		}
		lead := &models.Lead{
			FirstName:   partner.Name,
			CompanyName: partner.Name,
			Email:       partner.Email,
			Phone:       partner.Phone,
			Status:      models.LeadStatusNew,
			Notes:       "Converted from Partner: " + orDefault(partner.Description, "No description"),
		}
		lead.OwnerID = partner.OwnerID
		if err := uow.Create(ctx, lead); err != nil {
			return nil, fmt.Errorf("create lead: %w", err)
		}
		if err := uow.Delete(ctx, partner); err != nil {
			return nil, fmt.Errorf("delete partner: %w", err)
		}
		return lead, nil
	})
}

func (s *ConversionServiceImpl) PartnerToTicket(ctx context.Context, partnerID string) (*models.Ticket, error) {
	return run(s, ctx, RoutePartnerToTicket, partnerID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Ticket, error) {
		partner, err := load[*models.Partner](ctx, uow, models.KindPartner, partnerID)
		if err != nil {
			return nil, err
		}
		ticket := &models.Ticket{
			Subject: "Support request from partner: " + partner.Name,
			Description: fmt.Sprintf("Partner: %s\nType: %s\nEmail: %s\nDescription: %s",
				partner.Name, partner.Type, orNA(partner.Email), orNA(partner.Description)),
			AssignedTo: firstNonEmpty(partner.AccountManagerID, partner.OwnerID),
		}
		ticket.OwnerID = partner.OwnerID
		if err := s.openTicket(ctx, uow, ticket); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		return ticket, nil
	})
}

// Engagement

// engagementParty resolves the client and contact an engagement is about.
// A lead parent is converted to a client first, inside the same unit of
// work.
func (s *ConversionServiceImpl) engagementParty(ctx context.Context, uow *lifecycle.UnitOfWork, eng *models.Engagement) (clientID, contactID string, err error) {
	parent := eng.GetParent()
	switch parent.Kind {
	case models.KindClient:
		client, err := load[*models.Client](ctx, uow, models.KindClient, parent.ID)
		if err != nil {
			return "", "", err
		}
		return client.ID, "", nil
	case models.KindContact:
		contact, err := load[*models.Contact](ctx, uow, models.KindContact, parent.ID)
		if err != nil {
			return "", "", err
		}
		return contact.ClientID, contact.ID, nil
	case models.KindLead:
		lead, err := load[*models.Lead](ctx, uow, models.KindLead, parent.ID)
		if err != nil {
			return "", "", err
		}
		if lead.Status == models.LeadStatusConverted {
			if lead.ConvertedToClientID == "" {
				return "", "", precondition("The engagement's lead was converted without a client.")
			}
			return lead.ConvertedToClientID, "", nil
		}
		converted, err := s.leadToClient(ctx, uow, lead, ClientInput{})
		if err != nil {
			return "", "", err
		}
		conversionsTotal.WithLabelValues(RouteLeadToClient.String(), "cascaded").Inc()
		return converted.Client.ID, "", nil
	default:
		return "", "", precondition("Engagements attached to a %s cannot be converted.", parent.Kind)
	}
}

func engagementLabel(eng *models.Engagement) string {
	return firstNonEmpty(eng.Subject, eng.Type, eng.ID)
}

func (s *ConversionServiceImpl) EngagementToDeal(ctx context.Context, engagementID string) (*models.Deal, error) {
	return run(s, ctx, RouteEngagementToDeal, engagementID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Deal, error) {
		eng, err := load[*models.Engagement](ctx, uow, models.KindEngagement, engagementID)
		if err != nil {
			return nil, err
		}
		clientID, contactID, err := s.engagementParty(ctx, uow, eng)
		if err != nil {
			return nil, err
		}

		deal := &models.Deal{
			Title:       "Opportunity from Engagement: " + engagementLabel(eng),
			Description: eng.Description,
			Status:      models.DealStatusOpen,
			ClientID:    clientID,
			ContactID:   contactID,
		}
		if client, ok, err := lookup[*models.Client](ctx, uow, models.KindClient, clientID); err != nil {
			return nil, err
		} else if ok {
			deal.ClientName = client.Name
		}
		deal.OwnerID = firstNonEmpty(eng.OwnerID, uow.Actor())
		if err := uow.Create(ctx, deal); err != nil {
			return nil, fmt.Errorf("create deal: %w", err)
		}
		return deal, nil
	})
}

func (s *ConversionServiceImpl) EngagementToTicket(ctx context.Context, engagementID string) (*models.Ticket, error) {
	return run(s, ctx, RouteEngagementToTicket, engagementID, func(ctx context.Context, uow *lifecycle.UnitOfWork) (*models.Ticket, error) {
		eng, err := load[*models.Engagement](ctx, uow, models.KindEngagement, engagementID)
		if err != nil {
			return nil, err
		}
		clientID, contactID, err := s.engagementParty(ctx, uow, eng)
		if err != nil {
			return nil, err
		}

		ticket := &models.Ticket{
			Subject:     "Follow-up from Engagement: " + engagementLabel(eng),
			Description: orDefault(eng.Description, "No description"),
			ClientID:    clientID,
			ContactID:   contactID,
			AssignedTo:  eng.OwnerID,
		}
		ticket.OwnerID = eng.OwnerID
		if err := s.openTicket(ctx, uow, ticket); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		return ticket, nil
	})
}

func (s *ConversionServiceImpl) Convert(ctx context.Context, route Route, id string, in ClientInput) (any, error) {
	switch route {
	case RouteLeadToClient:
		return s.LeadToClient(ctx, id, in)
	case RouteLeadToPartner:
		return s.LeadToPartner(ctx, id)
	case RouteLeadToTicket:
		return s.LeadToTicket(ctx, id)
	case RouteContactToLead:
		return s.ContactToLead(ctx, id)
	case RouteContactToTicket:
		return s.ContactToTicket(ctx, id)
	case RouteClientToLead:
		return s.ClientToLead(ctx, id)
	case RouteClientToPartner:
		return s.ClientToPartner(ctx, id)
	case RouteClientToTicket:
		return s.ClientToTicket(ctx, id)
	case RouteDealToProject:
		return s.DealToProject(ctx, id)
	case RouteDealToLead:
		return s.DealToLead(ctx, id)
	case RouteDealToTicket:
		return s.DealToTicket(ctx, id)
	case RouteDealToEngagement:
		return s.DealToEngagement(ctx, id)
	case RouteTicketToLead:
		return s.TicketToLead(ctx, id)
	case RouteTicketToDeal:
		return s.TicketToDeal(ctx, id)
	case RouteTicketToContact:
		return s.TicketToContact(ctx, id)
	case RoutePartnerToLead:
		return s.PartnerToLead(ctx, id)
	case RoutePartnerToTicket:
		return s.PartnerToTicket(ctx, id)
	case RouteEngagementToDeal:
		return s.EngagementToDeal(ctx, id)
	case RouteEngagementToTicket:
		return s.EngagementToTicket(ctx, id)
	}
	return nil, &ValidationError{Err: fmt.Errorf("unsupported conversion %s", route)}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func orNA(s string) string { return orDefault(s, "N/A") }
