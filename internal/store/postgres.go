package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"docqa/internal/abbrev"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations from multiple services.
	// Note: In production, use dedicated migration tools (e.g., golang-migrate/migrate)
	// that run as a separate deployment step before app services start.
	const lockID = 847291035 // arbitrary number for this application's migration lock

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT,
			content_type TEXT,
			status TEXT,
			text TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS answers (
			id UUID PRIMARY KEY,
			document_id UUID REFERENCES documents(id) ON DELETE SET NULL,
			question TEXT,
			answer TEXT,
			provider TEXT,
			model TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS abbrev_jobs (
			id UUID PRIMARY KEY,
			status TEXT,
			article_count INT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS abbrev_articles (
			id UUID PRIMARY KEY,
			job_id UUID REFERENCES abbrev_jobs(id) ON DELETE CASCADE,
			document_id UUID REFERENCES documents(id) ON DELETE CASCADE,
			filename TEXT,
			status TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS abbrev_entries (
			article_id UUID REFERENCES abbrev_articles(id) ON DELETE CASCADE,
			abbr TEXT,
			expansion TEXT,
			PRIMARY KEY (article_id, abbr)
		);`,
		`CREATE INDEX IF NOT EXISTS abbrev_articles_job_idx ON abbrev_articles(job_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, filename, contentType, text string) (Document, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(id, filename, content_type, status, text) VALUES($1,$2,$3,$4,$5)`,
		id, filename, contentType, StatusReady, text)
	if err != nil {
		return Document{}, err
	}
	return Document{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Status:      StatusReady,
		Text:        text,
		CreatedAt:   time.Now(),
	}, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, content_type, status, text, created_at FROM documents WHERE id=$1`, id)
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.ContentType, &doc.Status, &doc.Text, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return doc, nil
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *PostgresStore) SaveAnswer(ctx context.Context, ans Answer) (Answer, error) {
	ans.ID = uuid.New()
	ans.CreatedAt = time.Now()
	var docID any
	if ans.DocumentID != uuid.Nil {
		docID = ans.DocumentID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers(id, document_id, question, answer, provider, model, created_at) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		ans.ID, docID, ans.Question, ans.Answer, ans.Provider, ans.Model, ans.CreatedAt)
	if err != nil {
		return Answer{}, err
	}
	return ans, nil
}

func (s *PostgresStore) CreateAbbrevJob(ctx context.Context, articles []AbbrevArticle) (AbbrevJob, []AbbrevArticle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AbbrevJob{}, nil, err
	}
	defer tx.Rollback()

	job := AbbrevJob{
		ID:           uuid.New(),
		Status:       JobProcessing,
		ArticleCount: len(articles),
		CreatedAt:    time.Now(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO abbrev_jobs(id, status, article_count) VALUES($1,$2,$3)`,
		job.ID, job.Status, job.ArticleCount)
	if err != nil {
		return AbbrevJob{}, nil, err
	}

	out := make([]AbbrevArticle, 0, len(articles))
	for _, a := range articles {
		a.ID = uuid.New()
		a.JobID = job.ID
		a.Status = ArticlePending
		_, err := tx.ExecContext(ctx,
			`INSERT INTO abbrev_articles(id, job_id, document_id, filename, status) VALUES($1,$2,$3,$4,$5)`,
			a.ID, a.JobID, a.DocumentID, a.Filename, a.Status)
		if err != nil {
			return AbbrevJob{}, nil, err
		}
		out = append(out, a)
	}
	if err := tx.Commit(); err != nil {
		return AbbrevJob{}, nil, err
	}
	return job, out, nil
}

func (s *PostgresStore) GetAbbrevJob(ctx context.Context, jobID uuid.UUID) (AbbrevJob, error) {
	var job AbbrevJob
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, article_count, created_at FROM abbrev_jobs WHERE id=$1`, jobID)
	if err := row.Scan(&job.ID, &job.Status, &job.ArticleCount, &job.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AbbrevJob{}, ErrJobNotFound
		}
		return AbbrevJob{}, fmt.Errorf("failed to get abbreviation job %s: %w", jobID, err)
	}
	return job, nil
}

func (s *PostgresStore) ListAbbrevIndex(ctx context.Context, jobID uuid.UUID) ([]ArticleIndex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			a.id,
			a.document_id,
			a.filename,
			a.status,
			COALESCE(array_agg(e.abbr ORDER BY upper(e.abbr)) FILTER (WHERE e.abbr IS NOT NULL), ARRAY[]::TEXT[]),
			COALESCE(array_agg(e.expansion ORDER BY upper(e.abbr)) FILTER (WHERE e.abbr IS NOT NULL), ARRAY[]::TEXT[])
		FROM abbrev_articles a
		LEFT JOIN abbrev_entries e ON e.article_id = a.id
		WHERE a.job_id = $1
		GROUP BY a.id, a.document_id, a.filename, a.status
		ORDER BY a.filename
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArticleIndex
	for rows.Next() {
		var (
			idx        ArticleIndex
			abbrs      []string
			expansions []string
		)
		idx.Article.JobID = jobID
		if err := rows.Scan(&idx.Article.ID, &idx.Article.DocumentID, &idx.Article.Filename,
			&idx.Article.Status, pq.Array(&abbrs), pq.Array(&expansions)); err != nil {
			return nil, err
		}
		for i := range abbrs {
			idx.Entries = append(idx.Entries, abbrev.Entry{Abbr: abbrs[i], Expansion: expansions[i]})
		}
		out = append(out, idx)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FinishArticle(ctx context.Context, articleID uuid.UUID, status ArticleStatus, entries []abbrev.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var jobID uuid.UUID
	if err := tx.QueryRowContext(ctx,
		`SELECT job_id FROM abbrev_articles WHERE id=$1 FOR UPDATE`, articleID).Scan(&jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("article %s not found", articleID)
		}
		return err
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO abbrev_entries(article_id, abbr, expansion)
			VALUES($1,$2,$3)
			ON CONFLICT (article_id, abbr) DO UPDATE SET expansion=excluded.expansion`,
			articleID, e.Abbr, e.Expansion)
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE abbrev_articles SET status=$1 WHERE id=$2`, status, articleID); err != nil {
		return err
	}

	// Recompute the job status from its articles.
	var pending, failed int
	if err := tx.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status=$2),
			COUNT(*) FILTER (WHERE status=$3)
		FROM abbrev_articles WHERE job_id=$1`,
		jobID, ArticlePending, ArticleFailed).Scan(&pending, &failed); err != nil {
		return err
	}

	jobStatus := JobProcessing
	switch {
	case failed > 0:
		jobStatus = JobFailed
	case pending == 0:
		jobStatus = JobReady
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE abbrev_jobs SET status=$1 WHERE id=$2`, jobStatus, jobID); err != nil {
		return err
	}

	return tx.Commit()
}
