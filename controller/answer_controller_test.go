package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github/itish2003/caseqa/models"
	"github/itish2003/caseqa/services"
)

const testTemplate = "Answer from the attached record: {}"

// --- Fakes ---

type recordingService struct {
	mu       sync.Mutex
	requests []models.AnswerRequest
	result   models.AnswerResult
}

func (s *recordingService) Answer(_ context.Context, req models.AnswerRequest) models.AnswerResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result
}

func (s *recordingService) last(t *testing.T) models.AnswerRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

type mapLocator map[int64]string

func (m mapLocator) Locate(_ context.Context, caseID int64) (string, error) {
	uri, ok := m[caseID]
	if !ok {
		return "", &services.LookupError{CaseID: caseID, Err: services.ErrDocumentNotFound}
	}
	return uri, nil
}

// echoGenerator answers with the document URI it was given, so concurrent
// callers can tell their replies apart.
type echoGenerator struct {
	err error
}

func (g echoGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	uri := contents[0].Parts[1].FileData.FileURI
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "Answer for " + uri}}}},
		},
	}, nil
}

// --- Helpers ---

func newTestRouter(svc services.AnswerService, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewAnswerController(svc, log), log)
}

func postAnswer(t *testing.T, router http.Handler, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp models.FulfillmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp.FirstText()
}

// --- Tests ---

func TestAnswer_EnvelopeShape(t *testing.T) {
	svc := &recordingService{result: models.AnswerResult{Text: "The case is active."}}
	router := newTestRouter(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"Status?","process_number":42}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.JSONEq(t,
		`{"fulfillment_response":{"messages":[{"text":{"text":["The case is active."]}}]}}`,
		w.Body.String(),
	)
}

func TestAnswer_DefaultsForUnusableBody(t *testing.T) {
	bodies := map[string]string{
		"empty":      "",
		"whitespace": "   ",
		"not json":   "process 42 please",
		"json array": `["Status?"]`,
		"json null":  "null",
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			svc := &recordingService{result: models.AnswerResult{Text: "ok"}}
			router := newTestRouter(svc, zap.New(core))

			w, text := postAnswer(t, router, body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ok", text)
			assert.Equal(t, models.AnswerRequest{
				Question:      models.DefaultQuestion,
				ProcessNumber: models.DefaultProcessNumber,
			}, svc.last(t))
			assert.NotEmpty(t, logs.FilterLevelExact(zapcore.WarnLevel).All())
		})
	}
}

func TestAnswer_FieldsDefaultIndependently(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.AnswerRequest
	}{
		{
			name: "question only",
			body: `{"text":"Who is the judge?"}`,
			want: models.AnswerRequest{Question: "Who is the judge?", ProcessNumber: models.DefaultProcessNumber},
		},
		{
			name: "process number only",
			body: `{"process_number":77}`,
			want: models.AnswerRequest{Question: models.DefaultQuestion, ProcessNumber: 77},
		},
		{
			name: "both",
			body: `{"text":"Next hearing?","process_number":5}`,
			want: models.AnswerRequest{Question: "Next hearing?", ProcessNumber: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &recordingService{result: models.AnswerResult{Text: "ok"}}
			router := newTestRouter(svc, zap.NewNop())

			postAnswer(t, router, tt.body)

			assert.Equal(t, tt.want, svc.last(t))
		})
	}
}

func TestAnswer_EndToEnd(t *testing.T) {
	locator := mapLocator{42: "gs://bucket/doc123.pdf"}

	t.Run("document found", func(t *testing.T) {
		svc := services.NewAnswerService(locator, echoGenerator{}, "m", testTemplate, zap.NewNop())
		router := newTestRouter(svc, zap.NewNop())

		w, text := postAnswer(t, router, `{"text":"Status?","process_number":42}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Answer for gs://bucket/doc123.pdf", text)
	})

	t.Run("document not found", func(t *testing.T) {
		svc := services.NewAnswerService(locator, echoGenerator{}, "m", testTemplate, zap.NewNop())
		router := newTestRouter(svc, zap.NewNop())

		w, text := postAnswer(t, router, `{"text":"Status?","process_number":404}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, models.FallbackAnswer, text)
	})

	t.Run("model failure", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		log := zap.New(core)
		gen := echoGenerator{err: errors.New("rpc error: code = DeadlineExceeded")}
		svc := services.NewAnswerService(locator, gen, "m", testTemplate, log)
		router := newTestRouter(svc, log)

		w, text := postAnswer(t, router, `{"text":"Status?","process_number":42}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, models.FallbackAnswer, text)

		entries := logs.FilterMessage("An error occurred during LLM interaction").All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].ContextMap()["error"], "DeadlineExceeded")
	})
}

func TestAnswer_ConcurrentRequestsKeepTheirOwnReply(t *testing.T) {
	const workers = 64

	locator := mapLocator{}
	for i := int64(1); i <= workers; i++ {
		locator[i] = fmt.Sprintf("gs://bucket/case-%d.pdf", i)
	}
	svc := services.NewAnswerService(locator, echoGenerator{}, "m", testTemplate, zap.NewNop())
	router := newTestRouter(svc, zap.NewNop())

	var wg sync.WaitGroup
	got := make([]string, workers+1)
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"text":"Status?","process_number":%d}`, id)
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			var resp models.FulfillmentResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err == nil {
				got[id] = resp.FirstText()
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i <= workers; i++ {
		assert.Equal(t, fmt.Sprintf("Answer for gs://bucket/case-%d.pdf", i), got[i])
	}
}

func TestRecovery_ReturnsFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery(zap.NewNop()))
	router.POST("/", func(*gin.Context) { panic("boom") })

	w, text := postAnswer(t, router, `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, models.FallbackAnswer, text)
}

func TestRoot_OtherMethodsNotAllowed(t *testing.T) {
	svc := &recordingService{result: models.AnswerResult{Text: "ok"}}
	router := newTestRouter(svc, zap.NewNop())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
	assert.Empty(t, svc.requests)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&recordingService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestRequestID_EchoesCallerValue(t *testing.T) {
	router := newTestRouter(&recordingService{result: models.AnswerResult{Text: "ok"}}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
