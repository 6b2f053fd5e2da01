package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"docqa/internal/app"
	"docqa/internal/cache"
	"docqa/internal/extract"
	"docqa/internal/httputil"
	"docqa/internal/llm"
	"docqa/internal/prompt"
	"docqa/internal/store"
)

type askRequest struct {
	Question        string `validate:"required,max=2000"`
	Provider        string `validate:"omitempty,oneof=ollama gemini openai"`
	DocumentID      string `validate:"omitempty,uuid4"`
	MaxContextChars int    `validate:"omitempty,min=0,max=100000"`
}

// askHandler answers a question, optionally grounded in an uploaded or
// previously stored document.
func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > deps.Config.MaxUploadSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("request too large (max %d bytes)", deps.Config.MaxUploadSize), nil, http.StatusBadRequest)
			return
		}
		if err := r.ParseMultipartForm(deps.Config.MaxUploadSize); err != nil {
			httputil.Fail(deps.Log, w, "invalid multipart form", err, http.StatusBadRequest)
			return
		}

		req := askRequest{
			Question:   strings.TrimSpace(r.FormValue("question")),
			Provider:   r.FormValue("provider"),
			DocumentID: r.FormValue("document_id"),
		}
		if v := r.FormValue("max_context_chars"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				httputil.Fail(deps.Log, w, "max_context_chars must be an integer", err, http.StatusBadRequest)
				return
			}
			req.MaxContextChars = n
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		doc, hasDoc, err := resolveDocument(ctx, deps, r, req.DocumentID)
		if err != nil {
			failDocument(deps, w, err)
			return
		}

		providerName := deps.LLM.ProviderName(req.Provider)
		client, err := deps.LLM.Get(req.Provider)
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		contextChars := deps.Config.ClampContextChars(req.MaxContextChars)

		docKey := ""
		if hasDoc {
			docKey = doc.ID.String()
		}
		cacheKey := cache.Key(req.Question, docKey, providerName, contextChars)
		if cached, err := deps.Cache.GetAnswer(ctx, cacheKey); err == nil && cached != nil {
			deps.Log.Info("answer cache hit", "provider", providerName)
			writeAnswer(w, cached.Answer, cached.Provider, cached.Model, doc, hasDoc, true)
			return
		}

		p := prompt.QA(req.Question, doc.Text, contextChars)
		answer, err := client.Generate(ctx, p)
		if err != nil {
			if errors.Is(err, llm.ErrOverloaded) {
				httputil.Fail(deps.Log, w, "the model is temporarily overloaded; please wait a bit and try again", err, http.StatusServiceUnavailable)
				return
			}
			httputil.Fail(deps.Log, w, "failed to generate answer", err, http.StatusBadGateway)
			return
		}

		saved := store.Answer{
			DocumentID: doc.ID,
			Question:   req.Question,
			Answer:     answer,
			Provider:   providerName,
			Model:      client.Model(),
		}
		if _, err := deps.Store.SaveAnswer(ctx, saved); err != nil {
			deps.Log.Warn("failed to persist answer", "err", err)
		}

		ttl := time.Duration(deps.Config.CacheTTL) * time.Second
		if err := deps.Cache.SetAnswer(ctx, cacheKey, &cache.AnswerResult{
			Answer:   answer,
			Provider: providerName,
			Model:    client.Model(),
		}, ttl); err != nil {
			deps.Log.Warn("failed to cache answer", "err", err)
		}

		writeAnswer(w, answer, providerName, client.Model(), doc, hasDoc, false)
	}
}

// resolveDocument loads the question's context document from either an inline
// file upload or a document_id reference. Inline uploads are persisted so
// follow-up questions can reference them.
func resolveDocument(ctx context.Context, deps app.Deps, r *http.Request, documentID string) (store.Document, bool, error) {
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		return storeUpload(ctx, deps, file, header)
	}
	if !errors.Is(err, http.ErrMissingFile) {
		return store.Document{}, false, fmt.Errorf("failed to read file: %w", err)
	}

	if documentID == "" {
		return store.Document{}, false, nil
	}
	id, err := uuid.Parse(documentID)
	if err != nil {
		return store.Document{}, false, fmt.Errorf("invalid document id: %w", err)
	}
	doc, err := deps.Store.GetDocument(ctx, id)
	if err != nil {
		return store.Document{}, false, err
	}
	return doc, true, nil
}

func storeUpload(ctx context.Context, deps app.Deps, file multipart.File, header *multipart.FileHeader) (store.Document, bool, error) {
	if header.Size > deps.Config.MaxUploadSize {
		return store.Document{}, false, fmt.Errorf("file too large (max %d bytes): %w", deps.Config.MaxUploadSize, errFileTooLarge)
	}
	if !extract.Supported(header.Filename) {
		return store.Document{}, false, extract.ErrUnsupportedType
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return store.Document{}, false, fmt.Errorf("failed to read file: %w", err)
	}
	text, err := extract.Text(header.Filename, content)
	if err != nil {
		return store.Document{}, false, err
	}
	doc, err := deps.Store.CreateDocument(ctx, header.Filename, extract.ContentTypeFor(header.Filename), text)
	if err != nil {
		return store.Document{}, false, fmt.Errorf("failed to persist document: %w", err)
	}
	return doc, true, nil
}

var errFileTooLarge = errors.New("file too large")

// failDocument maps document resolution errors to HTTP statuses.
func failDocument(deps app.Deps, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		httputil.Fail(deps.Log, w, extract.ErrUnsupportedType.Error(), err, http.StatusBadRequest)
	case errors.Is(err, extract.ErrMalformedFile):
		httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
	case errors.Is(err, errFileTooLarge):
		httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
	case errors.Is(err, store.ErrDocumentNotFound):
		httputil.Fail(deps.Log, w, "document not found", err, http.StatusNotFound)
	default:
		httputil.Fail(deps.Log, w, "failed to process document", err, http.StatusInternalServerError)
	}
}

func writeAnswer(w http.ResponseWriter, answer, provider, model string, doc store.Document, hasDoc, cached bool) {
	body := map[string]any{
		"answer":   answer,
		"provider": provider,
		"model":    model,
		"cached":   cached,
	}
	if hasDoc {
		body["document_id"] = doc.ID.String()
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

// uploadHandler stores a document so it can be referenced by later questions.
func uploadHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > deps.Config.MaxUploadSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", deps.Config.MaxUploadSize), nil, http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		doc, _, err := storeUpload(ctx, deps, file, header)
		if err != nil {
			failDocument(deps, w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusCreated, map[string]any{
			"document_id": doc.ID.String(),
			"filename":    doc.Filename,
			"status":      doc.Status,
		})
	}
}

// documentHandler returns document metadata plus a text preview.
func documentHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		docID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid document id", err, http.StatusBadRequest)
			return
		}
		doc, err := deps.Store.GetDocument(r.Context(), docID)
		if err != nil {
			failDocument(deps, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"document_id":  doc.ID.String(),
			"filename":     doc.Filename,
			"content_type": doc.ContentType,
			"status":       doc.Status,
			"preview":      prompt.Truncate(doc.Text, deps.Config.PreviewChars),
			"created_at":   doc.CreatedAt,
		})
	}
}

// modelsHandler lists models available across the configured providers.
func modelsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"default_provider": deps.LLM.DefaultName(),
			"models":           deps.LLM.Models(r.Context()),
		})
	}
}
