package conversion

import (
	"fmt"
	"time"

	"go-crm-core/internal/models"
)

// Route names a conversion, e.g. lead -> client.
type Route struct {
	From models.Kind
	To   models.Kind
}

func (r Route) String() string { return fmt.Sprintf("%s_to_%s", r.From, r.To) }

var (
	RouteLeadToClient       = Route{models.KindLead, models.KindClient}
	RouteLeadToPartner      = Route{models.KindLead, models.KindPartner}
	RouteLeadToTicket       = Route{models.KindLead, models.KindTicket}
	RouteContactToLead      = Route{models.KindContact, models.KindLead}
	RouteContactToTicket    = Route{models.KindContact, models.KindTicket}
	RouteClientToLead       = Route{models.KindClient, models.KindLead}
	RouteClientToPartner    = Route{models.KindClient, models.KindPartner}
	RouteClientToTicket     = Route{models.KindClient, models.KindTicket}
	RouteDealToProject      = Route{models.KindDeal, models.KindProject}
	RouteDealToLead         = Route{models.KindDeal, models.KindLead}
	RouteDealToTicket       = Route{models.KindDeal, models.KindTicket}
	RouteDealToEngagement   = Route{models.KindDeal, models.KindEngagement}
	RouteTicketToLead       = Route{models.KindTicket, models.KindLead}
	RouteTicketToDeal       = Route{models.KindTicket, models.KindDeal}
	RouteTicketToContact    = Route{models.KindTicket, models.KindContact}
	RoutePartnerToLead      = Route{models.KindPartner, models.KindLead}
	RoutePartnerToTicket    = Route{models.KindPartner, models.KindTicket}
	RouteEngagementToDeal   = Route{models.KindEngagement, models.KindDeal}
	RouteEngagementToTicket = Route{models.KindEngagement, models.KindTicket}
)

// ParseRoute resolves the path segments of a conversion request.
func ParseRoute(from, to string) (Route, bool) {
	r := Route{From: models.Kind(from), To: models.Kind(to)}
	for _, known := range Routes {
		if known == r {
			return r, true
		}
	}
	return Route{}, false
}

// Routes lists every supported conversion.
var Routes = []Route{
	RouteLeadToClient, RouteLeadToPartner, RouteLeadToTicket,
	RouteContactToLead, RouteContactToTicket,
	RouteClientToLead, RouteClientToPartner, RouteClientToTicket,
	RouteDealToProject, RouteDealToLead, RouteDealToTicket, RouteDealToEngagement,
	RouteTicketToLead, RouteTicketToDeal, RouteTicketToContact,
	RoutePartnerToLead, RoutePartnerToTicket,
	RouteEngagementToDeal, RouteEngagementToTicket,
}

// ClientInput parameterises Lead -> Client. The deal fields are required
// only when CreateDeal is set.
type ClientInput struct {
	CreateDeal    bool       `json:"create_deal"`
	DealTitle     string     `json:"deal_title" validate:"required_if=CreateDeal true,max=255"`
	DealValue     *float64   `json:"deal_value" validate:"required_if=CreateDeal true,omitempty,min=0"`
	DealStage     string     `json:"deal_stage" validate:"required_if=CreateDeal true,max=100"`
	ExpectedClose *time.Time `json:"expected_close_date"`
}

// LeadConversion is the outcome of Lead -> Client. Deal is nil unless one
// was requested.
type LeadConversion struct {
	Client *models.Client `json:"client"`
	Deal   *models.Deal   `json:"deal,omitempty"`
}
