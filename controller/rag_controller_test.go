package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/devfolio/portfolio-rag/models"
)

// mockRAGService lets each test script the service behavior.
type mockRAGService struct {
	chatResp     *models.RAGResponse
	simpleAnswer string
	simpleErr    error
	addOK        bool
	addedDocs    []models.Document
	deleteOK     bool
	deletedID    string
	clearOK      bool
	stats        *models.StatsResponse
	simpleCalled bool
	historySeen  []models.ChatTurn
	messageSeen  string
}

func (m *mockRAGService) Initialize(context.Context) bool { return true }

func (m *mockRAGService) AddDocuments(_ context.Context, docs []models.Document) bool {
	m.addedDocs = docs
	return m.addOK
}

func (m *mockRAGService) ChatWithContext(_ context.Context, message string, history []models.ChatTurn) *models.RAGResponse {
	m.messageSeen = message
	m.historySeen = history
	return m.chatResp
}

func (m *mockRAGService) SimpleCompletion(context.Context, string) (string, error) {
	m.simpleCalled = true
	return m.simpleAnswer, m.simpleErr
}

func (m *mockRAGService) GetStats(context.Context) *models.StatsResponse { return m.stats }

func (m *mockRAGService) ClearKnowledgeBase(context.Context) bool { return m.clearOK }

func (m *mockRAGService) DeleteDocument(_ context.Context, documentID string) bool {
	m.deletedID = documentID
	return m.deleteOK
}

func newTestRouter(svc *mockRAGService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := NewRAGController(svc)
	router := gin.New()
	api := router.Group("/api/v1")
	{
		api.POST("/chat", c.Chat)
		api.POST("/documents", c.IngestDocuments)
		api.DELETE("/documents/:id", c.DeleteDocument)
		api.GET("/knowledge-base/stats", c.GetStats)
		api.POST("/knowledge-base/clear", c.ClearKnowledgeBase)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatReturnsServiceResponse(t *testing.T) {
	svc := &mockRAGService{chatResp: &models.RAGResponse{
		Response:    "Mika works on ML systems.",
		ModelUsed:   "gpt-4o-mini",
		SourcesUsed: 1,
		Sources:     []models.Source{{ID: "bio_chunk_0", Score: 0.9}},
	}}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/api/v1/chat",
		`{"message":"What does Mika do?","chat_history":[{"role":"user","content":"hi"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.RAGResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Response != "Mika works on ML systems." || resp.SourcesUsed != 1 {
		t.Errorf("response = %+v", resp)
	}
	if svc.messageSeen != "What does Mika do?" || len(svc.historySeen) != 1 {
		t.Errorf("service saw message=%q history=%d", svc.messageSeen, len(svc.historySeen))
	}
	if svc.simpleCalled {
		t.Error("fallback completion ran on a healthy response")
	}
}

func TestChatFallsBackToSimpleCompletion(t *testing.T) {
	svc := &mockRAGService{
		chatResp: &models.RAGResponse{
			Response:  "I apologize, something broke.",
			ModelUsed: "gpt-4o-mini",
			Sources:   []models.Source{},
			Error:     "RAG chat failed: index down",
		},
		simpleAnswer: "Plain answer without context.",
	}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/api/v1/chat", `{"message":"hello"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.RAGResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Response != "Plain answer without context." {
		t.Errorf("Response = %q, want the fallback answer", resp.Response)
	}
	if resp.Error != "" {
		t.Errorf("fallback success must clear the error field, got %q", resp.Error)
	}
	if resp.SourcesUsed != 0 || len(resp.Sources) != 0 {
		t.Errorf("fallback must report no sources, got %d", resp.SourcesUsed)
	}
}

func TestChatKeepsDegradedResponseWhenFallbackFails(t *testing.T) {
	svc := &mockRAGService{
		chatResp: &models.RAGResponse{
			Response: "apology",
			Sources:  []models.Source{},
			Error:    "RAG chat failed: index down",
		},
		simpleErr: errors.New("model down too"),
	}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/api/v1/chat", `{"message":"hello"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("degraded chat must still be 200, got %d", w.Code)
	}
	var resp models.RAGResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Response != "apology" || resp.Error == "" {
		t.Errorf("expected the degraded response back, got %+v", resp)
	}
}

func TestChatRejectsMissingMessage(t *testing.T) {
	router := newTestRouter(&mockRAGService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/chat", `{"chat_history":[]}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestIngestDocuments(t *testing.T) {
	svc := &mockRAGService{addOK: true}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/api/v1/documents",
		`{"documents":[{"id":"bio","text":"A biography.","metadata":{"type":"bio"}}]}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if len(svc.addedDocs) != 1 || svc.addedDocs[0].ID != "bio" {
		t.Errorf("service received %+v", svc.addedDocs)
	}
}

func TestIngestDocumentsFailure(t *testing.T) {
	router := newTestRouter(&mockRAGService{addOK: false})

	w := doJSON(t, router, http.MethodPost, "/api/v1/documents",
		`{"documents":[{"id":"bio","text":"text"}]}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestIngestDocumentsRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(&mockRAGService{addOK: true})

	for _, body := range []string{`{}`, `{"documents":[{"id":"bio"}]}`, `not json`} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/documents", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestDeleteDocument(t *testing.T) {
	svc := &mockRAGService{deleteOK: true}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/documents/bio", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if svc.deletedID != "bio" {
		t.Errorf("service asked to delete %q", svc.deletedID)
	}
}

func TestGetStats(t *testing.T) {
	svc := &mockRAGService{stats: &models.StatsResponse{TotalDocuments: 7, ChatModel: "gpt-4o-mini"}}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/api/v1/knowledge-base/stats", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var stats models.StatsResponse
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.TotalDocuments != 7 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGetStatsWithErrorStillOK(t *testing.T) {
	svc := &mockRAGService{stats: &models.StatsResponse{Error: "index unavailable"}}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/api/v1/knowledge-base/stats", "")

	if w.Code != http.StatusOK {
		t.Fatalf("stats must be 200 even when degraded, got %d", w.Code)
	}
	var stats models.StatsResponse
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Error != "index unavailable" {
		t.Errorf("Error = %q", stats.Error)
	}
}

func TestClearKnowledgeBase(t *testing.T) {
	router := newTestRouter(&mockRAGService{clearOK: true})
	if w := doJSON(t, router, http.MethodPost, "/api/v1/knowledge-base/clear", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	router = newTestRouter(&mockRAGService{clearOK: false})
	if w := doJSON(t, router, http.MethodPost, "/api/v1/knowledge-base/clear", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
