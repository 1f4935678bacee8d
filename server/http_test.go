package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plancraft/plancraft/catalog"
	"github.com/plancraft/plancraft/endpoint"
	"github.com/plancraft/plancraft/pricing"
	"github.com/plancraft/plancraft/store"
	"github.com/plancraft/plancraft/transform"
	"github.com/plancraft/plancraft/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T, st store.Store) *gin.Engine {
	t.Helper()
	l := slog.New(slog.NewTextHandler(io.Discard, nil))

	defs := &catalog.Catalog{
		ID: "signup",
		Steps: []catalog.StepDefinition{
			{
				ID:      "account",
				Ordinal: 1,
				Fields: []catalog.FieldDefinition{
					{ID: "holder_name", Required: true},
				},
			},
			{
				ID:      "base_plan",
				Ordinal: 2,
				Next:    `"done"`,
				Fields: []catalog.FieldDefinition{
					{ID: "tier_standard", Component: &catalog.ComponentSpec{
						ID: "tier-standard", Kind: "recurring", UnitPrice: decimal.RequireFromString("20.00"),
					}},
				},
			},
		},
	}

	validator := validation.NewEngine(endpoint.NewRegistry(), nil, transform.NewTransformer(), l)
	sessions := NewSessions(Deps{
		Catalog:   defs,
		Validator: validator,
		Pricer:    pricing.NewCalculator("USD"),
		Store:     st,
		Logger:    l,
	})

	g := gin.New()
	New(sessions, l).Register(g)
	return g
}

func doJSON(t *testing.T, g *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func createSession(t *testing.T, g *gin.Engine) string {
	t.Helper()
	w, body := doJSON(t, g, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := body["sessionId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCreateAndGetSession(t *testing.T) {
	g := testRouter(t, store.NewMemoryStore())

	id := createSession(t, g)

	w, body := doJSON(t, g, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "NotStarted", body["currentStepId"])
	assert.Equal(t, false, body["completed"])
}

func TestGetSession_Unknown(t *testing.T) {
	g := testRouter(t, store.NewMemoryStore())

	w, body := doJSON(t, g, http.MethodGet, "/sessions/does-not-exist", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session not found", body["message"])
}

func TestSessionFlow(t *testing.T) {
	g := testRouter(t, store.NewMemoryStore())
	id := createSession(t, g)

	// first advance enters the first step
	w, body := doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projection := body["projection"].(map[string]any)
	assert.Equal(t, "account", projection["currentStepId"])

	// advancing with the required field empty is a 422, not an error
	w, body = doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, false, result["valid"])
	assert.Equal(t, "required", result["reasonCode"])
	projection = body["projection"].(map[string]any)
	assert.Equal(t, "account", projection["currentStepId"])

	// fill the field and move on
	w, _ = doJSON(t, g, http.MethodPost, "/sessions/"+id+"/fields", map[string]any{
		"stepId": "account", "fieldId": "holder_name", "value": "Ada",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projection = body["projection"].(map[string]any)
	assert.Equal(t, "base_plan", projection["currentStepId"])

	// selecting the tier shows up in the price
	w, body = doJSON(t, g, http.MethodPost, "/sessions/"+id+"/fields", map[string]any{
		"stepId": "base_plan", "fieldId": "tier_standard", "value": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	projection = body["projection"].(map[string]any)
	price := projection["price"].(map[string]any)
	assert.Equal(t, "20", price["recurringTotal"])

	// back returns to the account step
	w, body = doJSON(t, g, http.MethodPost, "/sessions/"+id+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "account", body["currentStepId"])
}

func TestUpdateField_BadRequests(t *testing.T) {
	g := testRouter(t, store.NewMemoryStore())
	id := createSession(t, g)

	w, body := doJSON(t, g, http.MethodPost, "/sessions/"+id+"/fields", map[string]any{
		"fieldId": "holder_name", "value": "Ada",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "wrong request body format", body["message"])

	w, _ = doJSON(t, g, http.MethodPost, "/sessions/"+id+"/fields", map[string]any{
		"stepId": "no_such_step", "fieldId": "holder_name", "value": "Ada",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBack_BeforeStartConflicts(t *testing.T) {
	g := testRouter(t, store.NewMemoryStore())
	id := createSession(t, g)

	w, _ := doJSON(t, g, http.MethodPost, "/sessions/"+id+"/back", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdvance_CompletedSessionConflicts(t *testing.T) {
	g := testRouter(t, store.NewMemoryStore())
	id := createSession(t, g)

	doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	doJSON(t, g, http.MethodPost, "/sessions/"+id+"/fields", map[string]any{
		"stepId": "account", "fieldId": "holder_name", "value": "Ada",
	})
	doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	w, body := doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projection := body["projection"].(map[string]any)
	require.Equal(t, true, projection["completed"])

	w, _ = doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReset(t *testing.T) {
	g := testRouter(t, store.NewMemoryStore())
	id := createSession(t, g)

	doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	w, body := doJSON(t, g, http.MethodPost, "/sessions/"+id+"/reset", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "NotStarted", body["currentStepId"])
}

func TestSessionResumedFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	g := testRouter(t, st)
	id := createSession(t, g)
	doJSON(t, g, http.MethodPost, "/sessions/"+id+"/advance", nil)
	doJSON(t, g, http.MethodPost, "/sessions/"+id+"/fields", map[string]any{
		"stepId": "account", "fieldId": "holder_name", "value": "Ada",
	})

	// a fresh process with the same store picks the session back up
	g2 := testRouter(t, st)
	w, body := doJSON(t, g2, http.MethodGet, "/sessions/"+id, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "account", body["currentStepId"])
	fields := body["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "Ada", fields[0].(map[string]any)["value"])
}
