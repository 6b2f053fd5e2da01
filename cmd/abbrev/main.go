package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docqa/internal/abbrev"
	"docqa/internal/app"
	"docqa/internal/chunker"
	"docqa/internal/httputil"
	"docqa/internal/llm"
	"docqa/internal/prompt"
	"docqa/internal/queue"
	"docqa/internal/store"
)

// abbrevTaskPayload mirrors the gateway's task wire format.
type abbrevTaskPayload struct {
	JobID      string `json:"job_id"`
	ArticleID  string `json:"article_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

const (
	windowWords   = 1500
	windowOverlap = 150
	maxAttempts   = 5
)

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("abbreviation worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeAbbrev, func(ctx context.Context, task queue.Task) error {
			var payload abbrevTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleArticle(ctx, deps, task, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, deps.Config.Port, "abbrev")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("abbreviation worker stopped", "err", err)
	}
}

// handleArticle extracts one article's abbreviation index. A returned error
// re-enqueues the task; on the final attempt the article is marked failed
// instead so the job reaches a terminal state.
func handleArticle(ctx context.Context, deps app.Deps, task queue.Task, payload abbrevTaskPayload) error {
	log := deps.Log.With("article_id", payload.ArticleID, "filename", payload.Filename)

	articleID, err := uuid.Parse(payload.ArticleID)
	if err != nil {
		// Malformed payload never succeeds; drop it.
		log.Error("invalid article id in task payload", "err", err)
		return nil
	}
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		log.Error("invalid document id in task payload", "err", err)
		return nil
	}

	entries, err := extractIndex(ctx, deps, docID)
	if err != nil {
		if lastAttempt(task) {
			log.Error("article permanently failed", "err", err)
			if uerr := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusFailed); uerr != nil {
				log.Error("failed to mark document failed", "err", uerr)
			}
			if ferr := deps.Store.FinishArticle(ctx, articleID, store.ArticleFailed, nil); ferr != nil {
				log.Error("failed to mark article failed", "err", ferr)
			}
			return nil
		}
		return err
	}

	if err := deps.Store.FinishArticle(ctx, articleID, store.ArticleDone, entries); err != nil {
		return fmt.Errorf("failed to save abbreviation index: %w", err)
	}
	log.Info("article indexed", "entries", len(entries))
	return nil
}

// extractIndex windows the article text, queries the model per window, and
// merges the parsed entries into one sorted index. Windowing covers the whole
// article; the overlap keeps definitions that straddle a boundary.
func extractIndex(ctx context.Context, deps app.Deps, docID uuid.UUID) ([]abbrev.Entry, error) {
	doc, err := deps.Store.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	client, err := deps.LLM.Get("")
	if err != nil {
		return nil, err
	}

	windows := chunker.Split(doc.Text, chunker.Options{MaxWords: windowWords, Overlap: windowOverlap})
	var batches [][]abbrev.Entry
	for _, win := range windows {
		output, err := client.Generate(ctx, prompt.Abbreviations(win.Text))
		if err != nil {
			if errors.Is(err, llm.ErrOverloaded) {
				return nil, err
			}
			return nil, fmt.Errorf("model failed on window %d: %w", win.Index, err)
		}
		parsed := abbrev.ParseLines(output)
		batches = append(batches, abbrev.FilterPresent(parsed, doc.Text))
	}
	return abbrev.Merge(batches...), nil
}

func lastAttempt(task queue.Task) bool {
	max := task.MaxAttempts
	if max == 0 {
		max = maxAttempts
	}
	return task.Attempts+1 >= max
}
