package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/auth"
	"github.com/sakif/geniuspost/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================
//
// In-memory implementations of the service dependencies. Plain fakes (not
// a mock framework) keep the tests readable: each fake does exactly what
// you see here.

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeLLM records prompts and replays canned output.
type fakeLLM struct {
	mu        sync.Mutex
	prompts   []string
	result    string
	chunks    []string
	err       error // returned by Complete, or by Stream after failAfter chunks
	failAfter int
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

func (f *fakeLLM) Stream(ctx context.Context, prompt string, onChunk func(string) error) error {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	for i, c := range f.chunks {
		if f.err != nil && i == f.failAfter {
			return f.err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(c); err != nil {
			return err
		}
	}
	if f.err != nil && f.failAfter >= len(f.chunks) {
		return f.err
	}
	return nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeRenderer returns a fixed PDF and remembers the last document.
type fakeRenderer struct {
	pdf      []byte
	err      error
	document string
	baseURL  string
}

func (f *fakeRenderer) Render(_ context.Context, document, baseURL string) ([]byte, error) {
	f.document = document
	f.baseURL = baseURL
	if f.err != nil {
		return nil, f.err
	}
	return f.pdf, nil
}

func (f *fakeRenderer) Ready(context.Context) error { return nil }
func (f *fakeRenderer) Close() error                { return nil }

// fakeStore implements the user, metrics and feedback repositories.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	metrics  map[string]*model.UserMetrics
	feedback []model.UserFeedback

	incrementErr error
	findErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[string]*model.User),
		metrics: make(map[string]*model.UserMetrics),
	}
}

func (f *fakeStore) FindOrCreate(_ context.Context, user *model.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return false, f.findErr
	}
	if existing, ok := f.users[user.ID]; ok {
		*user = *existing
		return false, nil
	}
	user.CreatedAt = time.Now().UTC()
	copied := *user
	f.users[user.ID] = &copied
	return true, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) Increment(_ context.Context, userID string, action model.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return f.incrementErr
	}
	m, ok := f.metrics[userID]
	if !ok {
		m = &model.UserMetrics{UserID: userID}
		f.metrics[userID] = m
	}
	switch action {
	case model.ActionLogin:
		m.LoginCount++
	case model.ActionGenerate:
		m.GenerateCount++
	case model.ActionInfographic:
		m.InfographicCount++
	case model.ActionExportPDF:
		m.ExportPDFCount++
	case model.ActionInsertImage:
		m.InsertImageCount++
	case model.ActionRegenerate:
		m.RegenerateCount++
	case model.ActionClear:
		m.ClearCount++
	default:
		return errors.New("fake store: unknown action " + string(action))
	}
	m.LastUpdated = time.Now().UTC()
	return nil
}

func (f *fakeStore) GetMetrics(_ context.Context, userID string) (*model.UserMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.metrics[userID]
	if !ok {
		return nil, apperror.NotFound("metrics", userID)
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) CreateFeedback(_ context.Context, fb *model.UserFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb.ID = "fb-" + time.Now().Format("150405.000000000")
	fb.SubmittedAt = time.Now().UTC()
	f.feedback = append(f.feedback, *fb)
	return nil
}

func (f *fakeStore) HasFeedback(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fb := range f.feedback {
		if fb.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// fakeProvider stands in for Google.
type fakeProvider struct {
	user    *auth.GoogleUser
	err     error
	gotCode string
}

func (f *fakeProvider) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*auth.GoogleUser, error) {
	f.gotCode = code
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func ptr[T any](v T) *T { return &v }
