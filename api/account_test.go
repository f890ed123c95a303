package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/billionterry20-eng/shu3/config"
	"github.com/billionterry20-eng/shu3/db"
	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/scheduler"
	"github.com/billionterry20-eng/shu3/storage"
)

func setupTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := db.Init(dbPath); err != nil {
		t.Fatalf("Failed to init test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	cfg := &config.Config{
		DefaultAPIURL:     "http://127.0.0.1:1/unused",
		DefaultAuthToken:  "default-token",
		DefaultSteps:      89888,
		DefaultSubmitTime: "00:05",
		RequestTimeout:    5,
	}
	as := storage.NewSQLiteAccountStorage(db.DB)
	ls := storage.NewSQLiteSubmitLogStorage(db.DB)
	exec := scheduler.NewSubmitExecutor(as, ls, cfg)
	sch := scheduler.NewScheduler(as, ls, exec)
	InitAccountAPI(as, ls, sch, exec, cfg)

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.GET("/accounts", GetAccounts)
		api.POST("/accounts", CreateAccount)
		api.GET("/accounts/:id", GetAccount)
		api.PUT("/accounts/:id", UpdateAccount)
		api.DELETE("/accounts/:id", DeleteAccount)
		api.POST("/accounts/:id/toggle", ToggleAccount)
		api.POST("/accounts/:id/submit", SubmitAccount)
		api.GET("/logs", GetSubmitLogs)
		api.DELETE("/logs", ClearSubmitLogs)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestCreateAccountDefaults(t *testing.T) {
	r := setupTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone": "13800000000",
		"pwd":   "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	if !resp.Success {
		t.Fatalf("success = false: %s", w.Body.String())
	}
	var acct models.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}
	if acct.ID == 0 {
		t.Error("account ID not assigned")
	}
	if acct.Name != "未命名账号" {
		t.Errorf("Name = %q, want default", acct.Name)
	}
	if acct.StepNum != 89888 || acct.SubmitTime != "00:05" {
		t.Errorf("defaults not applied: step=%d time=%s", acct.StepNum, acct.SubmitTime)
	}
	if !acct.Enabled {
		t.Error("Enabled should default to true")
	}
	if acct.PwdMasked != "s*******3" {
		t.Errorf("PwdMasked = %q, want s*******3", acct.PwdMasked)
	}
	if stepScheduler.JobCount() != 1 {
		t.Errorf("JobCount = %d, want 1 after create", stepScheduler.JobCount())
	}
}

func TestCreateAccountMissingPhone(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{"pwd": "secret"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateAccountInvalidTime(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone":      "13800000000",
		"pwd":        "secret",
		"submitTime": "24:00",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if stepScheduler.JobCount() != 0 {
		t.Errorf("invalid account must not be scheduled, JobCount = %d", stepScheduler.JobCount())
	}
}

func TestUpdateAccountPartial(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone": "13800000000",
		"pwd":   "secret123",
	})
	resp := decodeResponse(t, w)
	var acct models.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}

	w = doJSON(t, r, http.MethodPut, "/api/accounts/"+strconv.Itoa(acct.ID), gin.H{
		"submitTime": "07:30",
		"pwd":        "",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	got, err := accountStorage.GetByID(acct.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SubmitTime != "07:30" {
		t.Errorf("SubmitTime = %q, want 07:30", got.SubmitTime)
	}
	if got.Pwd != "secret123" {
		t.Errorf("empty pwd in update must keep old password, got %q", got.Pwd)
	}
	if got.Phone != "13800000000" {
		t.Errorf("untouched field changed: %q", got.Phone)
	}
}

func TestUpdateAccountClearsOptionalFields(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone":     "13800000000",
		"pwd":       "secret123",
		"authToken": "token-a",
		"apiUrl":    "http://a.example.com",
	})
	resp := decodeResponse(t, w)
	var acct models.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}

	w = doJSON(t, r, http.MethodPut, "/api/accounts/"+strconv.Itoa(acct.ID), gin.H{
		"authToken": "",
		"apiUrl":    "",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	got, err := accountStorage.GetByID(acct.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AuthToken != "" || got.APIURL != "" {
		t.Errorf("explicit empty must clear overrides, got token=%q url=%q", got.AuthToken, got.APIURL)
	}
}

func TestUpdateAccountEmptyPhoneRejected(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone": "13800000000",
		"pwd":   "secret123",
	})
	resp := decodeResponse(t, w)
	var acct models.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}

	w = doJSON(t, r, http.MethodPut, "/api/accounts/"+strconv.Itoa(acct.ID), gin.H{"phone": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty phone", w.Code)
	}
	got, err := accountStorage.GetByID(acct.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Phone != "13800000000" {
		t.Errorf("rejected update must not persist, phone = %q", got.Phone)
	}
}

func TestToggleAccount(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone": "13800000000",
		"pwd":   "secret123",
	})
	resp := decodeResponse(t, w)
	var acct models.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}
	if stepScheduler.JobCount() != 1 {
		t.Fatalf("JobCount = %d, want 1", stepScheduler.JobCount())
	}

	w = doJSON(t, r, http.MethodPost, "/api/accounts/"+strconv.Itoa(acct.ID)+"/toggle", gin.H{"enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stepScheduler.JobCount() != 0 {
		t.Errorf("JobCount = %d, want 0 after disable", stepScheduler.JobCount())
	}

	w = doJSON(t, r, http.MethodPost, "/api/accounts/"+strconv.Itoa(acct.ID)+"/toggle", gin.H{"enabled": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stepScheduler.JobCount() != 1 {
		t.Errorf("JobCount = %d, want 1 after re-enable", stepScheduler.JobCount())
	}
}

func TestDeleteAccount(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone": "13800000000",
		"pwd":   "secret123",
	})
	resp := decodeResponse(t, w)
	var acct models.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/accounts/"+strconv.Itoa(acct.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stepScheduler.JobCount() != 0 {
		t.Errorf("JobCount = %d, want 0 after delete", stepScheduler.JobCount())
	}
	w = doJSON(t, r, http.MethodGet, "/api/accounts/"+strconv.Itoa(acct.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 after delete", w.Code)
	}
}

func TestSubmitAccountNow(t *testing.T) {
	r := setupTestAPI(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"code":200,"msg":"ok"}`))
	}))
	defer server.Close()

	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone":  "13800000000",
		"pwd":    "secret123",
		"apiUrl": server.URL,
	})
	resp := decodeResponse(t, w)
	var acct models.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, "/api/accounts/"+strconv.Itoa(acct.ID)+"/submit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp = decodeResponse(t, w)
	if !resp.Success {
		t.Errorf("submit success = false: %s", w.Body.String())
	}

	rows, err := submitLogStorage.GetRecent(10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 log row, got %d (err %v)", len(rows), err)
	}
	if rows[0].RunType != models.RunTypeManual {
		t.Errorf("run_type = %q, want manual", rows[0].RunType)
	}
}

func TestSubmitAccountMissing(t *testing.T) {
	r := setupTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/api/accounts/9999/submit", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	r := setupTestAPI(t)

	// 调度器未启动，即使已装入触发器 job_count 也报 0
	w := doJSON(t, r, http.MethodPost, "/api/accounts", gin.H{
		"phone": "13800000000",
		"pwd":   "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body["ok"] != true {
		t.Errorf("ok = %v, want true", body["ok"])
	}
	if body["scheduler_running"] != false {
		t.Errorf("scheduler_running = %v, want false before Start", body["scheduler_running"])
	}
	if body["job_count"] != float64(0) {
		t.Errorf("job_count = %v, want 0 while scheduler stopped", body["job_count"])
	}
}

func TestClearSubmitLogs(t *testing.T) {
	r := setupTestAPI(t)
	entry := &models.SubmitLog{AccountID: 1, RunType: models.RunTypeAuto, Status: models.StatusFailed}
	if err := submitLogStorage.Create(entry); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	w := doJSON(t, r, http.MethodDelete, "/api/logs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	rows, _ := submitLogStorage.GetRecent(10)
	if len(rows) != 0 {
		t.Errorf("logs not cleared, %d rows remain", len(rows))
	}
}

