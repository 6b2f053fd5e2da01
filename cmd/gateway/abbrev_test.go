package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docqa/internal/abbrev"
	"docqa/internal/queue"
	"docqa/internal/store"
)

func TestAbbrevSubmitHandler(t *testing.T) {
	jobID := uuid.New()
	docA := uuid.New()
	docB := uuid.New()

	t.Run("two articles accepted", func(t *testing.T) {
		mockStore := new(store.MockStore)
		mockQueue := new(queue.MockQueue)

		mockStore.On("CreateDocument", mock.Anything, "a.txt", "text/plain", "alpha article").
			Return(store.Document{ID: docA, Filename: "a.txt"}, nil).Once()
		mockStore.On("CreateDocument", mock.Anything, "b.txt", "text/plain", "beta article").
			Return(store.Document{ID: docB, Filename: "b.txt"}, nil).Once()
		created := []store.AbbrevArticle{
			{ID: uuid.New(), JobID: jobID, DocumentID: docA, Filename: "a.txt", Status: store.ArticlePending},
			{ID: uuid.New(), JobID: jobID, DocumentID: docB, Filename: "b.txt", Status: store.ArticlePending},
		}
		mockStore.On("CreateAbbrevJob", mock.Anything, mock.AnythingOfType("[]store.AbbrevArticle")).
			Return(store.AbbrevJob{ID: jobID, Status: store.JobProcessing, ArticleCount: 2}, created, nil).Once()
		mockQueue.On("Enqueue", mock.Anything, mock.AnythingOfType("queue.Task")).Return(nil).Twice()

		deps := newTestDeps(mockStore, mockQueue, nil)
		req := createMultipartRequest(t, "/api/abbreviations", nil,
			formFile{field: "files", filename: "a.txt", content: []byte("alpha article")},
			formFile{field: "files", filename: "b.txt", content: []byte("beta article")})
		w := httptest.NewRecorder()
		abbrevSubmitHandler(deps)(w, req)

		if w.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d. Body: %s", w.Code, w.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body["job_id"] != jobID.String() {
			t.Errorf("unexpected job_id %v", body["job_id"])
		}
		if body["articles"] != float64(2) {
			t.Errorf("expected 2 articles, got %v", body["articles"])
		}
		mockStore.AssertExpectations(t)
		mockQueue.AssertExpectations(t)
	})

	t.Run("no files", func(t *testing.T) {
		deps := newTestDeps(new(store.MockStore), new(queue.MockQueue), nil)
		req := createMultipartRequest(t, "/api/abbreviations", map[string]string{"note": "nothing attached"})
		w := httptest.NewRecorder()
		abbrevSubmitHandler(deps)(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unsupported article type rejects whole request", func(t *testing.T) {
		mockStore := new(store.MockStore)
		deps := newTestDeps(mockStore, new(queue.MockQueue), nil)
		req := createMultipartRequest(t, "/api/abbreviations", nil,
			formFile{field: "files", filename: "a.txt", content: []byte("fine")},
			formFile{field: "files", filename: "b.exe", content: []byte{1}})
		w := httptest.NewRecorder()
		abbrevSubmitHandler(deps)(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		mockStore.AssertNotCalled(t, "CreateAbbrevJob", mock.Anything, mock.Anything)
	})

	t.Run("enqueue failure marks article failed", func(t *testing.T) {
		articleID := uuid.New()
		mockStore := new(store.MockStore)
		mockQueue := new(queue.MockQueue)

		mockStore.On("CreateDocument", mock.Anything, "a.txt", "text/plain", "alpha").
			Return(store.Document{ID: docA}, nil).Once()
		created := []store.AbbrevArticle{
			{ID: articleID, JobID: jobID, DocumentID: docA, Filename: "a.txt", Status: store.ArticlePending},
		}
		mockStore.On("CreateAbbrevJob", mock.Anything, mock.Anything).
			Return(store.AbbrevJob{ID: jobID, Status: store.JobProcessing, ArticleCount: 1}, created, nil).Once()
		mockQueue.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down")).Times(3)
		mockStore.On("FinishArticle", mock.Anything, articleID, store.ArticleFailed, []abbrev.Entry(nil)).Return(nil).Once()

		deps := newTestDeps(mockStore, mockQueue, nil)
		req := createMultipartRequest(t, "/api/abbreviations", nil,
			formFile{field: "files", filename: "a.txt", content: []byte("alpha")})
		w := httptest.NewRecorder()
		abbrevSubmitHandler(deps)(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
		mockStore.AssertExpectations(t)
		mockQueue.AssertExpectations(t)
	})
}

func TestAbbrevStatusHandler(t *testing.T) {
	jobID := uuid.New()

	t.Run("ready job with entries", func(t *testing.T) {
		mockStore := new(store.MockStore)
		mockStore.On("GetAbbrevJob", mock.Anything, jobID).
			Return(store.AbbrevJob{ID: jobID, Status: store.JobReady, ArticleCount: 1}, nil).Once()
		mockStore.On("ListAbbrevIndex", mock.Anything, jobID).
			Return([]store.ArticleIndex{
				{
					Article: store.AbbrevArticle{Filename: "paper.txt", Status: store.ArticleDone},
					Entries: []abbrev.Entry{
						{Abbr: "API", Expansion: "Application Programming Interface"},
						{Abbr: "CPU", Expansion: "Central Processing Unit"},
					},
				},
			}, nil).Once()

		deps := newTestDeps(mockStore, new(queue.MockQueue), nil)
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/abbreviations/"+jobID.String(), nil), "id", jobID.String())
		w := httptest.NewRecorder()
		abbrevStatusHandler(deps)(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d. Body: %s", w.Code, w.Body.String())
		}
		var body struct {
			JobID    string `json:"job_id"`
			Status   string `json:"status"`
			Articles []struct {
				Filename string `json:"filename"`
				Status   string `json:"status"`
				Entries  []struct {
					Abbr      string `json:"abbr"`
					Expansion string `json:"expansion"`
				} `json:"entries"`
			} `json:"articles"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Status != "ready" {
			t.Errorf("expected status ready, got %s", body.Status)
		}
		if len(body.Articles) != 1 || len(body.Articles[0].Entries) != 2 {
			t.Fatalf("unexpected articles shape: %+v", body.Articles)
		}
		if body.Articles[0].Entries[0].Abbr != "API" {
			t.Errorf("unexpected first entry %+v", body.Articles[0].Entries[0])
		}
		mockStore.AssertExpectations(t)
	})

	t.Run("pending article has empty entries list", func(t *testing.T) {
		mockStore := new(store.MockStore)
		mockStore.On("GetAbbrevJob", mock.Anything, jobID).
			Return(store.AbbrevJob{ID: jobID, Status: store.JobProcessing, ArticleCount: 1}, nil).Once()
		mockStore.On("ListAbbrevIndex", mock.Anything, jobID).
			Return([]store.ArticleIndex{
				{Article: store.AbbrevArticle{Filename: "slow.txt", Status: store.ArticlePending}},
			}, nil).Once()

		deps := newTestDeps(mockStore, new(queue.MockQueue), nil)
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/abbreviations/"+jobID.String(), nil), "id", jobID.String())
		w := httptest.NewRecorder()
		abbrevStatusHandler(deps)(w, req)

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		articles, _ := body["articles"].([]any)
		if len(articles) != 1 {
			t.Fatalf("expected 1 article, got %d", len(articles))
		}
		entries, ok := articles[0].(map[string]any)["entries"].([]any)
		if !ok || len(entries) != 0 {
			t.Errorf("expected empty entries array, got %v", articles[0])
		}
	})

	t.Run("job not found", func(t *testing.T) {
		mockStore := new(store.MockStore)
		mockStore.On("GetAbbrevJob", mock.Anything, jobID).
			Return(store.AbbrevJob{}, store.ErrJobNotFound).Once()

		deps := newTestDeps(mockStore, new(queue.MockQueue), nil)
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/abbreviations/"+jobID.String(), nil), "id", jobID.String())
		w := httptest.NewRecorder()
		abbrevStatusHandler(deps)(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid job id", func(t *testing.T) {
		deps := newTestDeps(new(store.MockStore), new(queue.MockQueue), nil)
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/abbreviations/nope", nil), "id", "nope")
		w := httptest.NewRecorder()
		abbrevStatusHandler(deps)(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}
