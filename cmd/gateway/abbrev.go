package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"docqa/internal/app"
	"docqa/internal/extract"
	"docqa/internal/httputil"
	"docqa/internal/queue"
	"docqa/internal/store"
)

// abbrevTaskPayload is the wire format for abbreviation extraction tasks.
type abbrevTaskPayload struct {
	JobID      uuid.UUID `json:"job_id"`
	ArticleID  uuid.UUID `json:"article_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
}

// abbrevSubmitHandler accepts one or more article files, persists them and
// enqueues an extraction task per article.
func abbrevSubmitHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(deps.Config.MaxUploadSize); err != nil {
			httputil.Fail(deps.Log, w, "invalid multipart form", err, http.StatusBadRequest)
			return
		}
		var headers []*multipart.FileHeader
		if r.MultipartForm != nil {
			for _, fhs := range r.MultipartForm.File {
				headers = append(headers, fhs...)
			}
		}
		if len(headers) == 0 {
			httputil.Fail(deps.Log, w, "at least one article file is required", nil, http.StatusBadRequest)
			return
		}

		// Extract and persist every article before creating the job, so a
		// bad file rejects the whole request instead of a half-built job.
		var articles []store.AbbrevArticle
		for _, h := range headers {
			if h.Size > deps.Config.MaxUploadSize {
				httputil.Fail(deps.Log, w, fmt.Sprintf("%s: file too large (max %d bytes)", h.Filename, deps.Config.MaxUploadSize), nil, http.StatusBadRequest)
				return
			}
			if !extract.Supported(h.Filename) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("%s: %s", h.Filename, extract.ErrUnsupportedType), nil, http.StatusBadRequest)
				return
			}
			file, err := h.Open()
			if err != nil {
				httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusBadRequest)
				return
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusBadRequest)
				return
			}
			text, err := extract.Text(h.Filename, content)
			if err != nil {
				failDocument(deps, w, err)
				return
			}
			doc, err := deps.Store.CreateDocument(ctx, h.Filename, extract.ContentTypeFor(h.Filename), text)
			if err != nil {
				httputil.Fail(deps.Log, w, "failed to persist article", err, http.StatusInternalServerError)
				return
			}
			articles = append(articles, store.AbbrevArticle{
				DocumentID: doc.ID,
				Filename:   h.Filename,
			})
		}

		job, created, err := deps.Store.CreateAbbrevJob(ctx, articles)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create abbreviation job", err, http.StatusInternalServerError)
			return
		}

		for _, a := range created {
			body, err := json.Marshal(abbrevTaskPayload{
				JobID:      job.ID,
				ArticleID:  a.ID,
				DocumentID: a.DocumentID,
				Filename:   a.Filename,
			})
			if err != nil {
				failJob(deps, ctx, w, "failed to marshal task", err, a.ID)
				return
			}
			task := queue.Task{Type: queue.TaskTypeAbbrev, Payload: body}
			if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
				failJob(deps, ctx, w, "failed to enqueue article; please retry", err, a.ID)
				return
			}
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"job_id":   job.ID.String(),
			"status":   job.Status,
			"articles": len(created),
		})
	}
}

// failJob marks the article failed (which fails the job) before reporting the
// error, so a stuck job is never left looking in-progress.
func failJob(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, articleID uuid.UUID) {
	if ferr := deps.Store.FinishArticle(ctx, articleID, store.ArticleFailed, nil); ferr != nil {
		deps.Log.Error("failed to mark article failed", "article_id", articleID, "err", ferr)
	}
	httputil.Fail(deps.Log, w, message, err, http.StatusInternalServerError)
}

// abbrevStatusHandler returns job progress and, once articles complete, the
// per-article abbreviation index.
func abbrevStatusHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		jobID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		job, err := deps.Store.GetAbbrevJob(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrJobNotFound) {
				httputil.Fail(deps.Log, w, "abbreviation job not found", err, http.StatusNotFound)
				return
			}
			httputil.Fail(deps.Log, w, "failed to load job", err, http.StatusInternalServerError)
			return
		}
		index, err := deps.Store.ListAbbrevIndex(r.Context(), jobID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load index", err, http.StatusInternalServerError)
			return
		}

		type articleResult struct {
			Filename string          `json:"filename"`
			Status   string          `json:"status"`
			Entries  []abbrevEntryJS `json:"entries"`
		}
		results := make([]articleResult, 0, len(index))
		for _, idx := range index {
			ar := articleResult{
				Filename: idx.Article.Filename,
				Status:   string(idx.Article.Status),
				Entries:  []abbrevEntryJS{},
			}
			for _, e := range idx.Entries {
				ar.Entries = append(ar.Entries, abbrevEntryJS{Abbr: e.Abbr, Expansion: e.Expansion})
			}
			results = append(results, ar)
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"job_id":   job.ID.String(),
			"status":   job.Status,
			"articles": results,
		})
	}
}

type abbrevEntryJS struct {
	Abbr      string `json:"abbr"`
	Expansion string `json:"expansion"`
}
