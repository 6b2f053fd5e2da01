package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docqa/internal/abbrev"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateDocument(ctx context.Context, filename, contentType, text string) (Document, error) {
	args := m.Called(ctx, filename, contentType, text)
	return args.Get(0).(Document), args.Error(1)
}

func (m *MockStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Document), args.Error(1)
}

func (m *MockStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SaveAnswer(ctx context.Context, ans Answer) (Answer, error) {
	args := m.Called(ctx, ans)
	return args.Get(0).(Answer), args.Error(1)
}

func (m *MockStore) CreateAbbrevJob(ctx context.Context, articles []AbbrevArticle) (AbbrevJob, []AbbrevArticle, error) {
	args := m.Called(ctx, articles)
	if args.Get(1) == nil {
		return args.Get(0).(AbbrevJob), nil, args.Error(2)
	}
	return args.Get(0).(AbbrevJob), args.Get(1).([]AbbrevArticle), args.Error(2)
}

func (m *MockStore) GetAbbrevJob(ctx context.Context, jobID uuid.UUID) (AbbrevJob, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(AbbrevJob), args.Error(1)
}

func (m *MockStore) ListAbbrevIndex(ctx context.Context, jobID uuid.UUID) ([]ArticleIndex, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ArticleIndex), args.Error(1)
}

func (m *MockStore) FinishArticle(ctx context.Context, articleID uuid.UUID, status ArticleStatus, entries []abbrev.Entry) error {
	args := m.Called(ctx, articleID, status, entries)
	return args.Error(0)
}
