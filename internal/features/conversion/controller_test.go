package conversion

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go-crm-core/internal/config"
	"go-crm-core/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, h *harness) *fiber.App {
	t.Helper()
	cfg := config.Default()
	cfg.SkipAuth = true
	app := fiber.New()
	NewConversionApi(NewConversionController(h.svc), cfg).Setup(app)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "agent-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestConvertEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	lead := newLead()
	h.create(t, lead)
	app := newApp(t, h)

	status, body := post(t, app, "/api/conversions/lead/"+lead.ID+"/client",
		`{"create_deal":true,"deal_title":"Starter","deal_value":500,"deal_stage":"new"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "lead_to_client", body["route"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "agent-1", result["client"].(map[string]any)["created_by"])
	assert.Equal(t, "Starter", result["deal"].(map[string]any)["title"])

	status, body = post(t, app, "/api/conversions/lead/"+lead.ID+"/client", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "Lead is already converted.", body["error"])

	stored := h.loadAny(t, models.KindLead, lead.ID).(*models.Lead)
	assert.Equal(t, models.LeadStatusConverted, stored.Status)
}

func TestConvertEndpointRejectsBadInput(t *testing.T) {
	h := newHarness(t, nil)
	lead := newLead()
	h.create(t, lead)
	app := newApp(t, h)

	status, body := post(t, app, "/api/conversions/lead/"+lead.ID+"/client", `{"create_deal":true}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "Invalid conversion request")

	status, _ = post(t, app, "/api/conversions/project/p1/deal", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
