package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/nutriplate/nutriplate/internal/domain"
	domtracking "github.com/nutriplate/nutriplate/internal/domain/tracking"
)

// --- Mocks ---

type mockRepo[R domtracking.Record] struct {
	users     []string
	listLimit int
	created   R
	getErr    error
	createErr error
}

func (m *mockRepo[R]) Create(_ context.Context, user string, rec R) error {
	m.users = append(m.users, user)
	m.created = rec
	return m.createErr
}

func (m *mockRepo[R]) Get(_ context.Context, user string, _ int64) (R, error) {
	m.users = append(m.users, user)
	var zero R
	return zero, m.getErr
}

func (m *mockRepo[R]) List(_ context.Context, user string, limit int) ([]R, error) {
	m.users = append(m.users, user)
	m.listLimit = limit
	return nil, nil
}

func (m *mockRepo[R]) Update(_ context.Context, user string, _ int64, _ R) error {
	m.users = append(m.users, user)
	return nil
}

func (m *mockRepo[R]) Delete(_ context.Context, user string, _ int64) error {
	m.users = append(m.users, user)
	return m.getErr
}

type mockRecipes struct {
	known map[int64]bool
	err   error
}

func (m *mockRecipes) Exists(_ context.Context, id int64) (bool, error) {
	return m.known[id], m.err
}

// --- Tests ---

func TestCreate_UsesContextUser(t *testing.T) {
	repo := &mockRepo[*domtracking.Favorite]{}
	svc := New[*domtracking.Favorite](domtracking.KindFavorite, repo, &mockRecipes{known: map[int64]bool{3: true}})

	ctx := domain.ContextWithUser(context.Background(), "alice")
	if err := svc.Create(ctx, &domtracking.Favorite{Recipe: 3}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(repo.users) != 1 || repo.users[0] != "alice" {
		t.Errorf("expected user alice, got %v", repo.users)
	}
}

func TestCreate_AnonymousWithoutUser(t *testing.T) {
	repo := &mockRepo[*domtracking.WearableReading]{}
	svc := New[*domtracking.WearableReading](domtracking.KindWearable, repo, nil)

	if err := svc.Create(context.Background(), &domtracking.WearableReading{Steps: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.users[0] != domain.AnonymousUser {
		t.Errorf("expected anonymous owner, got %q", repo.users[0])
	}
}

func TestCreate_UnknownRecipe(t *testing.T) {
	repo := &mockRepo[*domtracking.Favorite]{}
	svc := New[*domtracking.Favorite](domtracking.KindFavorite, repo, &mockRecipes{})

	err := svc.Create(context.Background(), &domtracking.Favorite{Recipe: 42})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Error("repository must not be called")
	}
}

func TestCreate_RecipeCheckError(t *testing.T) {
	svc := New[*domtracking.HistoryEntry](domtracking.KindHistory,
		&mockRepo[*domtracking.HistoryEntry]{}, &mockRecipes{err: errors.New("redis down")})

	err := svc.Create(context.Background(), &domtracking.HistoryEntry{Recipe: 1})
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestCreate_Invalid(t *testing.T) {
	svc := New[*domtracking.WearableReading](domtracking.KindWearable,
		&mockRepo[*domtracking.WearableReading]{}, nil)

	err := svc.Create(context.Background(), &domtracking.WearableReading{Steps: -1})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo := &mockRepo[*domtracking.Profile]{createErr: domain.ErrAlreadyExists}
	svc := New[*domtracking.Profile](domtracking.KindProfile, repo, nil)

	if err := svc.Create(context.Background(), &domtracking.Profile{}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestList_HistoryLimit(t *testing.T) {
	history := &mockRepo[*domtracking.HistoryEntry]{}
	_, _ = New[*domtracking.HistoryEntry](domtracking.KindHistory, history, nil).List(context.Background())
	if history.listLimit != HistoryLimit {
		t.Errorf("expected history limit %d, got %d", HistoryLimit, history.listLimit)
	}

	wearable := &mockRepo[*domtracking.WearableReading]{}
	_, _ = New[*domtracking.WearableReading](domtracking.KindWearable, wearable, nil).List(context.Background())
	if wearable.listLimit != 0 {
		t.Errorf("expected unlimited wearable list, got %d", wearable.listLimit)
	}

	capped := &mockRepo[*domtracking.WearableReading]{}
	svc := New[*domtracking.WearableReading](domtracking.KindWearable, capped, nil).WithListLimit(5)
	_, _ = svc.List(context.Background())
	if capped.listLimit != 5 {
		t.Errorf("expected limit 5, got %d", capped.listLimit)
	}
}

func TestGetAndDelete_NotFound(t *testing.T) {
	repo := &mockRepo[*domtracking.HealthData]{getErr: domain.ErrNotFound}
	svc := New[*domtracking.HealthData](domtracking.KindHealth, repo, nil)

	if _, err := svc.Get(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
	if svc.Kind() != domtracking.KindHealth {
		t.Errorf("unexpected kind %q", svc.Kind())
	}
}

func TestUpdate_Validates(t *testing.T) {
	repo := &mockRepo[*domtracking.HealthData]{}
	svc := New[*domtracking.HealthData](domtracking.KindHealth, repo, nil)
	age := -1

	if err := svc.Update(context.Background(), 1, &domtracking.HealthData{Age: &age}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Update(context.Background(), 1, &domtracking.HealthData{}); err != nil {
		t.Errorf("update: %v", err)
	}
}
