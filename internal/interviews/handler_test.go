package interviews

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"pathpilot-backend/internal/llm/llmtest"
	"pathpilot-backend/internal/shared/server/middleware"
)

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerInterviewFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(llmtest.Reply(questionsJSON, evalJSON(80), evalJSON(60)))
	router := gin.New()
	router.Use(middleware.FixedUser(1, "dev"))
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))

	resp := doJSON(router, http.MethodPost, "/api/v1/interviews/generate-questions", CreateRequest{JobTitle: "Engineer", QuestionCount: 2})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created InterviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != "ready" || len(created.Questions) != 2 || created.Progress.Remaining != 2 {
		t.Fatalf("unexpected interview %+v", created)
	}

	for i, q := range created.Questions {
		resp := doJSON(router, http.MethodPost, "/api/v1/interviews/"+created.ID+"/evaluate-answer", AnswerRequest{QuestionID: q.ID, AnswerText: "answer"})
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
		}
		var eval EvaluationResponse
		_ = json.NewDecoder(resp.Body).Decode(&eval)
		last := i == len(created.Questions)-1
		if eval.IsCompleted != last {
			t.Fatalf("answer %d: expected completed=%v", i, last)
		}
		if last && (eval.TotalScore == nil || *eval.TotalScore != 70) {
			t.Fatalf("expected total 70, got %v", eval.TotalScore)
		}
	}

	progress := doJSON(router, http.MethodGet, "/api/v1/interviews/"+created.ID+"/progress", nil)
	var p Progress
	_ = json.NewDecoder(progress.Body).Decode(&p)
	if p.ProgressPercent != 100 || p.Remaining != 0 {
		t.Fatalf("unexpected progress %+v", p)
	}

	conflict := doJSON(router, http.MethodPost, "/api/v1/interviews/"+created.ID+"/evaluate-answer", AnswerRequest{QuestionID: 1, AnswerText: "again"})
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409 on completed interview, got %d", conflict.Code)
	}

	missing := doJSON(router, http.MethodPost, "/api/v1/interviews/"+created.ID+"/evaluate-answer", AnswerRequest{QuestionID: 1})
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on empty answer, got %d", missing.Code)
	}
}
