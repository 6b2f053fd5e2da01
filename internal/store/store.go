package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"docqa/internal/abbrev"
)

type DocumentStatus string

const (
	StatusReady  DocumentStatus = "ready"
	StatusFailed DocumentStatus = "failed"
)

type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobReady      JobStatus = "ready"
	JobFailed     JobStatus = "failed"
)

type ArticleStatus string

const (
	ArticlePending ArticleStatus = "pending"
	ArticleDone    ArticleStatus = "done"
	ArticleFailed  ArticleStatus = "failed"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrJobNotFound      = errors.New("abbreviation job not found")
)

// Document is an uploaded file with its extracted text.
type Document struct {
	ID          uuid.UUID
	Filename    string
	ContentType string
	Status      DocumentStatus
	Text        string
	CreatedAt   time.Time
}

// Answer records one question/answer exchange.
type Answer struct {
	ID         uuid.UUID
	DocumentID uuid.UUID // uuid.Nil when the question had no document
	Question   string
	Answer     string
	Provider   string
	Model      string
	CreatedAt  time.Time
}

// AbbrevJob tracks one abbreviation-index request over a set of articles.
type AbbrevJob struct {
	ID           uuid.UUID
	Status       JobStatus
	ArticleCount int
	CreatedAt    time.Time
}

// AbbrevArticle is one article within a job.
type AbbrevArticle struct {
	ID         uuid.UUID
	JobID      uuid.UUID
	DocumentID uuid.UUID
	Filename   string
	Status     ArticleStatus
}

// ArticleIndex pairs an article with its extracted abbreviation entries.
type ArticleIndex struct {
	Article AbbrevArticle
	Entries []abbrev.Entry
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateDocument(ctx context.Context, filename, contentType, text string) (Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (Document, error)
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error

	SaveAnswer(ctx context.Context, ans Answer) (Answer, error)

	CreateAbbrevJob(ctx context.Context, articles []AbbrevArticle) (AbbrevJob, []AbbrevArticle, error)
	GetAbbrevJob(ctx context.Context, jobID uuid.UUID) (AbbrevJob, error)
	ListAbbrevIndex(ctx context.Context, jobID uuid.UUID) ([]ArticleIndex, error)

	// FinishArticle records an article's entries and final status, and
	// recomputes the owning job's status: ready once every article is done,
	// failed as soon as any article permanently fails.
	FinishArticle(ctx context.Context, articleID uuid.UUID, status ArticleStatus, entries []abbrev.Entry) error
}
