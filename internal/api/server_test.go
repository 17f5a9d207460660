package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dialsched/internal/database"
	"github.com/dialsched/internal/executor"
	"github.com/dialsched/internal/models"
	"github.com/dialsched/internal/schedule"

	"github.com/gin-gonic/gin"
)

var server *Server

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "dialsched-api-test")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := database.Initialize(filepath.Join(dir, "test.db")); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	db := database.GetDB()
	server = NewServer(schedule.NewManager(db), executor.NewLedger(db))

	code := m.Run()

	database.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

// adminToken registers (first user becomes admin) or logs in the shared
// admin account.
func adminToken(t *testing.T) string {
	t.Helper()
	creds := map[string]string{"username": "admin", "password": "hunter22"}

	doJSON(t, http.MethodPost, "/api/v1/auth/register", "", creds)

	w := doJSON(t, http.MethodPost, "/api/v1/auth/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.Token
}

func TestAuthRequired(t *testing.T) {
	w := doJSON(t, http.MethodGet, "/api/v1/schedules", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request got status %d, want 401", w.Code)
	}
}

func TestScheduleLifecycle(t *testing.T) {
	token := adminToken(t)

	body := map[string]interface{}{
		"schedule_type": "campaign",
		"target_id":     "31",
		"target_name":   "Winback Wave 2",
		"action":        "activate",
		"scheduled_at":  time.Date(2024, time.March, 1, 9, 0, 0, 0, time.Local).Format(time.RFC3339),
		"recurring":     "none",
	}

	w := doJSON(t, http.MethodPost, "/api/v1/schedules", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create got status %d: %s", w.Code, w.Body.String())
	}
	var created models.Schedule
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created schedule: %v", err)
	}

	w = doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/schedules/%d", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get got status %d", w.Code)
	}

	w = doJSON(t, http.MethodGet, "/api/v1/occurrences?start=2024-03-01&end=2024-03-31", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("occurrences got status %d: %s", w.Code, w.Body.String())
	}
	var occurrences []schedule.ScheduleOccurrences
	if err := json.Unmarshal(w.Body.Bytes(), &occurrences); err != nil {
		t.Fatalf("failed to decode occurrences: %v", err)
	}
	found := false
	for _, o := range occurrences {
		if o.Schedule.ID == created.ID {
			found = true
			if len(o.Dates) != 1 {
				t.Errorf("one-shot has %d dates in March, want 1", len(o.Dates))
			}
		}
	}
	if !found {
		t.Error("created schedule missing from calendar projection")
	}

	created.TargetName = "Winback Wave 3"
	w = doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/schedules/%d", created.ID), token, created)
	if w.Code != http.StatusOK {
		t.Fatalf("update got status %d: %s", w.Code, w.Body.String())
	}
	var updated models.Schedule
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode updated schedule: %v", err)
	}
	if updated.TargetName != "Winback Wave 3" {
		t.Errorf("target name after update = %q, want Winback Wave 3", updated.TargetName)
	}

	w = doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/schedules/%d/executions", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("executions got status %d", w.Code)
	}

	w = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/v1/schedules/%d", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete got status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/schedules/%d", created.ID), token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted schedule get got status %d, want 404", w.Code)
	}
}

func TestCreateScheduleValidationSurfacesAs400(t *testing.T) {
	token := adminToken(t)

	body := map[string]interface{}{
		"schedule_type": "campaign",
		"target_id":     "", // missing target
		"action":        "activate",
		"scheduled_at":  time.Now().Format(time.RFC3339),
		"recurring":     "none",
	}
	w := doJSON(t, http.MethodPost, "/api/v1/schedules", token, body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid create got status %d, want 400", w.Code)
	}
}

func TestOccurrencesRejectsBadRange(t *testing.T) {
	token := adminToken(t)

	w := doJSON(t, http.MethodGet, "/api/v1/occurrences?start=2024-03-31&end=2024-03-01", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("inverted range got status %d, want 400", w.Code)
	}

	w = doJSON(t, http.MethodGet, "/api/v1/occurrences?start=03/01/2024&end=2024-03-31", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed date got status %d, want 400", w.Code)
	}
}
