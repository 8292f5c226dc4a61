package workflow

import (
	"context"

	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/models"

	"go.uber.org/zap"
)

// RegisterHandler makes svc the receiver of committed lifecycle events.
func RegisterHandler(dispatcher *lifecycle.Dispatcher, svc WorkflowService) {
	dispatcher.SetHandler(svc)
}

// DefaultRules are the starter automations installed by `crmctl seed-workflows`.
func DefaultRules() []*models.Workflow {
	return []*models.Workflow{
		{
			Name:      "High Potential Lead Alert",
			EventType: "lead.updated",
			Conditions: []models.Condition{
				{Field: "score", Operator: ">=", Value: 70},
				{Field: "status", Operator: "!=", Value: string(models.LeadStatusConverted)},
			},
			Actions: []models.Action{
				{Type: string(ActionCreateTask), Params: map[string]any{
					"title":       "Urgent: High Potential Lead Follow-up",
					"priority":    "high",
					"sla_minutes": 60,
				}},
				{Type: string(ActionUpdateField), Params: map[string]any{
					"field": "status",
					"value": string(models.LeadStatusQualified),
				}},
			},
			IsActive: true,
		},
		{
			Name:       "Auto-Log Welcome Email",
			EventType:  "lead.created",
			Conditions: []models.Condition{{Field: "email", Operator: "!=", Value: nil}},
			Actions: []models.Action{
				{Type: string(ActionLogCommunication), Params: map[string]any{
					"type":      "email",
					"direction": "outbound",
					"subject":   "Welcome to our platform",
					"content":   "Automated welcome email sent via workflow engine.",
				}},
			},
			IsActive: true,
		},
		{
			Name:      "High Value Deal Escalation",
			EventType: "deal.updated",
			Conditions: []models.Condition{
				{Field: "value", Operator: ">", Value: 10000},
				{Field: "status", Operator: "=", Value: string(models.DealStatusOpen)},
			},
			Actions: []models.Action{
				{Type: string(ActionCreateTask), Params: map[string]any{
					"title":       "Manager Review Required: High Value Deal",
					"priority":    "high",
					"sla_minutes": 120,
				}},
			},
			IsActive: true,
		},
	}
}

// SeedDefaults installs DefaultRules whose names are not taken yet and
// returns how many were created.
func SeedDefaults(ctx context.Context, svc WorkflowService, logger *zap.Logger) (int, error) {
	existing, err := svc.ListRules(ctx, "")
	if err != nil {
		return 0, err
	}
	taken := make(map[string]bool, len(existing))
	for _, rule := range existing {
		taken[rule.Name] = true
	}

	created := 0
	for _, rule := range DefaultRules() {
		if taken[rule.Name] {
			logger.Info("workflow already present", zap.String("name", rule.Name))
			continue
		}
		if err := svc.CreateRule(ctx, rule); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
