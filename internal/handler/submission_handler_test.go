package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"formgateway/internal/model"
	"formgateway/internal/recordstore"
	"formgateway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/useinsider/go-pkg/inslogger"
)

// Mock dependencies
type MockIntakeService struct {
	mock.Mock
}

func (m *MockIntakeService) Submit(ctx context.Context, submission model.Submission) (model.Record, error) {
	args := m.Called(ctx, submission)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *MockIntakeService) List(ctx context.Context) ([]model.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]model.Record)
	return records, args.Error(1)
}

func (m *MockIntakeService) GetByEmail(ctx context.Context, email string) (model.Record, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *MockIntakeService) Update(ctx context.Context, id string, fields model.Fields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

// Helper functions for test setup
func setupRouter(svc service.IntakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := inslogger.NewLogger(inslogger.Debug)
	return NewRouter(NewSubmissionHandler(svc, logger), logger, RouterOptions{})
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestHealth_DoesNotTouchStore(t *testing.T) {
	mockService := new(MockIntakeService)
	router := setupRouter(mockService)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Server is running", decode(t, resp)["status"])
	}
	assert.Empty(t, mockService.Calls)
}

func TestMiddleware_CORSAndRequestID(t *testing.T) {
	router := setupRouter(new(MockIntakeService))

	req, _ := http.NewRequest(http.MethodOptions, "/api/submit-form", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req, _ = http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, "req-42", resp.Header().Get("X-Request-ID"))
}

func TestSubmitForm_Success(t *testing.T) {
	createdOn := time.Date(2024, 3, 11, 10, 42, 0, 0, time.UTC)
	mockService := new(MockIntakeService)
	mockService.On("Submit", mock.Anything, model.Submission{Name: "Ann", Email: "ann@x.com", Phone: "555"}).
		Return(model.Record{ID: "rec1", Fields: model.Fields{Name: "Ann", Email: "ann@x.com", Phone: "555"}, CreatedOn: createdOn}, nil)

	resp := postJSON(t, setupRouter(mockService), "/api/submit-form", map[string]string{
		"name": "Ann", "email": "ann@x.com", "phone": "555",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Form submitted successfully", body["message"])
	item := body["item"].(map[string]any)
	assert.Equal(t, "rec1", item["id"])
	assert.Equal(t, "2024-03-11T10:42:00Z", item["createdOn"])
	mockService.AssertExpectations(t)
}

func TestSubmitForm_URLEncoded(t *testing.T) {
	mockService := new(MockIntakeService)
	mockService.On("Submit", mock.Anything, model.Submission{Name: "Ann", Email: "ann@x.com", Message: "hello there"}).
		Return(model.Record{ID: "rec1"}, nil)

	form := url.Values{"name": {"Ann"}, "email": {"ann@x.com"}, "message": {"hello there"}}
	req, _ := http.NewRequest(http.MethodPost, "/api/submit-form", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	setupRouter(mockService).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockService.AssertExpectations(t)
}

func TestSubmitForm_InvalidRequest(t *testing.T) {
	mockService := new(MockIntakeService)

	req, _ := http.NewRequest(http.MethodPost, "/api/submit-form", bytes.NewBuffer([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	setupRouter(mockService).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid request payload", body["error"])
	mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSubmitForm_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", &service.ValidationError{Message: "Name and Email required"}, http.StatusOK, "Name and Email required"},
		{"duplicate", service.ErrEmailExists, http.StatusOK, "Email already exists"},
		{"store", fmt.Errorf("%w: %w", service.ErrSubmissionFailed, errors.New("webflow token expired")), http.StatusBadGateway, "Submission failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockIntakeService)
			mockService.On("Submit", mock.Anything, mock.Anything).Return(model.Record{}, tt.err)

			resp := postJSON(t, setupRouter(mockService), "/api/submit-form", map[string]string{"name": "Ann"})

			assert.Equal(t, tt.wantStatus, resp.Code)
			body := decode(t, resp)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
			assert.NotContains(t, resp.Body.String(), "token")
		})
	}
}

func TestGetSubmissions(t *testing.T) {
	mockService := new(MockIntakeService)
	mockService.On("List", mock.Anything).Return([]model.Record{
		{ID: "1", Fields: model.Fields{Name: "Ann", Email: "ann@x.com"}},
		{ID: "2", Fields: model.Fields{Name: "Bob", Email: "bob@x.com", Phone: "1", Message: "m"}},
		{ID: "3", Fields: model.Fields{Name: "Cy", Email: "cy@x.com"}},
	}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/get-submissions", nil)
	resp := httptest.NewRecorder()
	setupRouter(mockService).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["total"])

	data := body["data"].([]any)
	require.Len(t, data, 3)
	for _, d := range data {
		item := d.(map[string]any)
		assert.Contains(t, item, "id")
		assert.Contains(t, item, "createdOn")
		fieldData := item["fieldData"].(map[string]any)
		assert.Len(t, fieldData, 4)
		for _, key := range []string{"name", "email", "phone", "message"} {
			assert.Contains(t, fieldData, key)
		}
	}
}

func TestGetSubmissions_Empty(t *testing.T) {
	mockService := new(MockIntakeService)
	mockService.On("List", mock.Anything).Return([]model.Record{}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/get-submissions", nil)
	resp := httptest.NewRecorder()
	setupRouter(mockService).ServeHTTP(resp, req)

	body := decode(t, resp)
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, []any{}, body["data"])
}

func TestGetSubmissions_Error(t *testing.T) {
	mockService := new(MockIntakeService)
	mockService.On("List", mock.Anything).Return(nil, fmt.Errorf("%w: %w", service.ErrFetchFailed, errors.New("database error")))

	req, _ := http.NewRequest(http.MethodGet, "/api/get-submissions", nil)
	resp := httptest.NewRecorder()
	setupRouter(mockService).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, "Failed to fetch submissions", body["error"])
	assert.NotContains(t, resp.Body.String(), "database error")
}

func TestGetByEmail(t *testing.T) {
	mockService := new(MockIntakeService)
	mockService.On("GetByEmail", mock.Anything, "ann@x.com").
		Return(model.Record{ID: "rec1", Fields: model.Fields{Name: "Ann", Email: "ann@x.com", Phone: "555", Message: "hi"}}, nil)
	mockService.On("GetByEmail", mock.Anything, "nobody@x.com").Return(model.Record{}, service.ErrEmailNotFound)
	mockService.On("GetByEmail", mock.Anything, "").Return(model.Record{}, &service.ValidationError{Message: "Email required"})
	router := setupRouter(mockService)

	resp := postJSON(t, router, "/api/get-by-email", map[string]string{"email": "ann@x.com"})
	assert.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{
		"id": "rec1", "name": "Ann", "email": "ann@x.com", "phone": "555", "message": "hi",
	}, body["data"])

	resp = postJSON(t, router, "/api/get-by-email", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Email not found", decode(t, resp)["error"])

	resp = postJSON(t, router, "/api/get-by-email", map[string]string{})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Email required", decode(t, resp)["error"])
}

func TestUpdateRecord(t *testing.T) {
	fields := model.Fields{Name: "Ann", Email: "ann@x.com"}
	mockService := new(MockIntakeService)
	mockService.On("Update", mock.Anything, "rec1", fields).Return(nil)
	mockService.On("Update", mock.Anything, "", fields).Return(&service.ValidationError{Message: "Record ID missing"})
	mockService.On("Update", mock.Anything, "gone", fields).Return(service.ErrRecordNotFound)
	mockService.On("Update", mock.Anything, "rec2", fields).Return(fmt.Errorf("%w: %w", service.ErrUpdateFailed, errors.New("boom")))
	router := setupRouter(mockService)

	tests := []struct {
		id         string
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{"rec1", http.StatusOK, "message", "Record updated"},
		{"", http.StatusOK, "error", "Record ID missing"},
		{"gone", http.StatusOK, "error", "Record not found"},
		{"rec2", http.StatusBadGateway, "error", "Update failed"},
	}

	for _, tt := range tests {
		resp := postJSON(t, router, "/api/update-record", map[string]string{"id": tt.id, "name": "Ann", "email": "ann@x.com"})
		assert.Equal(t, tt.wantStatus, resp.Code, tt.id)
		assert.Equal(t, tt.wantValue, decode(t, resp)[tt.wantKey], tt.id)
	}
	mockService.AssertExpectations(t)
}

// fakeWebflow is an in-memory Webflow collection.
type fakeWebflow struct {
	items     []map[string]any
	listFails bool
	creates   int
}

func (f *fakeWebflow) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if f.listFails {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items":      f.items,
			"pagination": map[string]int{"limit": 100, "offset": 0, "total": len(f.items)},
		})
	case http.MethodPost:
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.creates++
		item := map[string]any{
			"id":        fmt.Sprintf("item%d", f.creates),
			"createdOn": time.Now().UTC().Format(time.RFC3339),
			"fieldData": payload["fieldData"],
		}
		f.items = append(f.items, item)
		_ = json.NewEncoder(w).Encode(item)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestSubmitForm_EndToEnd(t *testing.T) {
	fake := &fakeWebflow{}
	server := httptest.NewServer(fake)
	defer server.Close()

	logger := inslogger.NewLogger(inslogger.Debug)
	store := recordstore.NewWebflowStore(recordstore.WebflowOptions{
		BaseURL:      server.URL,
		Token:        "token",
		CollectionID: "col1",
		HTTPClient:   server.Client(),
	})
	gin.SetMode(gin.TestMode)
	router := NewRouter(NewSubmissionHandler(service.NewIntakeService(store, nil, logger), logger), logger, RouterOptions{})

	resp := postJSON(t, router, "/api/submit-form", map[string]string{"email": "ann@x.com"})
	assert.Equal(t, "Name and Email required", decode(t, resp)["error"])
	assert.Equal(t, 0, fake.creates)

	resp = postJSON(t, router, "/api/submit-form", map[string]string{"name": "Ann", "email": "ann@x.com"})
	assert.Equal(t, true, decode(t, resp)["success"])
	assert.Equal(t, 1, fake.creates)

	resp = postJSON(t, router, "/api/submit-form", map[string]string{"name": "Ann2", "email": "ANN@X.COM"})
	assert.Equal(t, "Email already exists", decode(t, resp)["error"])
	assert.Equal(t, 1, fake.creates)

	fake.listFails = true
	resp = postJSON(t, router, "/api/submit-form", map[string]string{"name": "Bob", "email": "bob@x.com"})
	assert.Equal(t, true, decode(t, resp)["success"])
	assert.Equal(t, 2, fake.creates)

	fake.listFails = false
	req, _ := http.NewRequest(http.MethodGet, "/api/get-submissions", nil)
	listResp := httptest.NewRecorder()
	router.ServeHTTP(listResp, req)
	body := decode(t, listResp)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["data"], 2)
}
