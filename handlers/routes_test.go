package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vpay-gamification/events"
	"vpay-gamification/services"
	"vpay-gamification/testutil"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	engine, err := services.NewEngine(testutil.OpenTestDB(t), services.EngineOptions{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	app := fiber.New()
	SetupRoutes(app, engine, events.NewHub())
	return app
}

func do(t *testing.T, app *fiber.App, method, path, userID, roles, body string) (int, map[string]any, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if roles != "" {
		req.Header.Set("X-User-Roles", roles)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	if status, body, _ := do(t, app, http.MethodGet, "/health", "", "", ""); status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", status, body)
	}
}

func TestSecuredRoutesRequireUser(t *testing.T) {
	app := newTestApp(t)
	if status, _, _ := do(t, app, http.MethodGet, "/s/user/level", "", "", ""); status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestRecordActivityAndReadProgress(t *testing.T) {
	app := newTestApp(t)

	status, body, _ := do(t, app, http.MethodPost, "/s/activities", "u1", "", `{"activity_type":"login"}`)
	if status != http.StatusCreated || body["success"] != true {
		t.Fatalf("record = %d %v", status, body)
	}

	status, body, _ = do(t, app, http.MethodGet, "/s/user/points", "u1", "", "")
	if status != http.StatusOK || body["reward_points"] != float64(10) {
		t.Fatalf("points = %d %v", status, body)
	}

	status, _, raw := do(t, app, http.MethodGet, "/s/streaks", "u1", "", "")
	if status != http.StatusOK || !strings.Contains(string(raw), `"streak_type":"LOGIN"`) {
		t.Fatalf("streaks = %d %s", status, raw)
	}

	status, _, raw = do(t, app, http.MethodGet, "/s/activities?limit=5", "u1", "", "")
	if status != http.StatusOK || !strings.Contains(string(raw), `"activity_type":"LOGIN"`) {
		t.Fatalf("activities = %d %s", status, raw)
	}
}

func TestRecordActivityValidation(t *testing.T) {
	app := newTestApp(t)

	if status, _, _ := do(t, app, http.MethodPost, "/s/activities", "u1", "", `{"activity_type":""}`); status != http.StatusBadRequest {
		t.Fatalf("empty type: status = %d, want 400", status)
	}
	if status, _, _ := do(t, app, http.MethodPost, "/s/activities", "u1", "", `{not json`); status != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d, want 400", status)
	}
	if status, _, _ := do(t, app, http.MethodPost, "/s/streaks/napping", "u1", "", ""); status != http.StatusBadRequest {
		t.Fatalf("bad streak type: status = %d, want 400", status)
	}
}

func TestQuestRoutes(t *testing.T) {
	app := newTestApp(t)

	status, _, raw := do(t, app, http.MethodGet, "/s/quests", "u1", "", "")
	if status != http.StatusOK {
		t.Fatalf("quests = %d %s", status, raw)
	}
	var quests []map[string]any
	if err := json.Unmarshal(raw, &quests); err != nil {
		t.Fatalf("decode quests: %v", err)
	}
	if len(quests) != 3 {
		t.Fatalf("quests = %d, want 3", len(quests))
	}

	id, _ := quests[0]["id"].(string)
	if status, _, _ := do(t, app, http.MethodPost, "/s/quests/"+id+"/abandon", "u2", "", ""); status != http.StatusNotFound {
		t.Fatalf("abandon other user's quest: status = %d, want 404", status)
	}
	if status, _, _ := do(t, app, http.MethodPost, "/s/quests/"+id+"/abandon", "u1", "", ""); status != http.StatusOK {
		t.Fatalf("abandon: status = %d, want 200", status)
	}
	if status, _, _ := do(t, app, http.MethodPost, "/s/quests/"+id+"/abandon", "u1", "", ""); status != http.StatusConflict {
		t.Fatalf("abandon twice: status = %d, want 409", status)
	}
}

func TestAdminRoutesRequireRole(t *testing.T) {
	app := newTestApp(t)
	body := `{"user_id":"u9","xp":250,"idempotency_key":"grant-1"}`

	if status, _, _ := do(t, app, http.MethodPost, "/s/admin/xp/grant", "ops", "", body); status != http.StatusForbidden {
		t.Fatalf("no role: status = %d, want 403", status)
	}
	status, resp, _ := do(t, app, http.MethodPost, "/s/admin/xp/grant", "ops", "support, admin", body)
	if status != http.StatusOK || resp["new_level"] != float64(3) || resp["leveled_up"] != true {
		t.Fatalf("grant = %d %v", status, resp)
	}

	status, resp, _ = do(t, app, http.MethodGet, "/s/user/level", "u9", "", "")
	if status != http.StatusOK || resp["level"] != float64(3) || resp["total_xp"] != float64(250) {
		t.Fatalf("level = %d %v", status, resp)
	}
}

func TestLeaderboardAndRecommendationRoutes(t *testing.T) {
	app := newTestApp(t)

	if status, _, _ := do(t, app, http.MethodGet, "/s/leaderboards/nope", "u1", "", ""); status != http.StatusNotFound {
		t.Fatalf("unknown board: status = %d, want 404", status)
	}
	if status, _, _ := do(t, app, http.MethodGet, "/s/leaderboards/top-earners", "u1", "", ""); status != http.StatusOK {
		t.Fatalf("board: status = %d, want 200", status)
	}

	status, _, raw := do(t, app, http.MethodPost, "/s/recommendations", "u1", "", "")
	if status != http.StatusCreated || strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("recommendations = %d %s, want empty list", status, raw)
	}
	if status, _, _ := do(t, app, http.MethodPost, "/s/recommendations/missing/claim", "u1", "", ""); status != http.StatusNotFound {
		t.Fatalf("claim missing: status = %d, want 404", status)
	}
	status, body, _ := do(t, app, http.MethodGet, "/s/spending/analysis?days=7", "u1", "", "")
	if status != http.StatusOK || body["window_days"] != float64(7) {
		t.Fatalf("analysis = %d %v", status, body)
	}
}
