package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/event"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository/memory"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	pkgkafka "github.com/Mahir9011/Cupid-Crochy/pkg/kafka"
)

// --- Mocks ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, e *pkgkafka.Event) error {
	args := m.Called(ctx, topic, e)
	return args.Error(0)
}

type stubProducts map[string]*domain.Product

func (s stubProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return p, nil
}

// --- Helpers ---

func newTestCartService(pub *mockPublisher, products ProductLookup) (*CartService, *memory.CartRepository) {
	repo := memory.NewCartRepository()
	var producer *event.Producer
	if pub != nil {
		producer = event.NewProducer(pub, newTestLogger())
	}
	return NewCartService(repo, producer, products, newTestLogger(), 0), repo
}

func testProducts() stubProducts {
	return stubProducts{
		"bag1": {ID: "bag1", Name: "Sunflower Tote", Price: domain.MustMoney("89.99"), Image: "tote.jpg"},
		"bag2": {ID: "bag2", Name: "Mini Pouch", Price: domain.MustMoney("64.99"), Image: "pouch.jpg", IsSoldOut: true},
	}
}

// --- Tests ---

func TestCartService_RequiresSessionID(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)

	_, err := svc.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartService_StoreIsPerSession(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)
	ctx := context.Background()

	a, err := svc.Store(ctx, "s1")
	require.NoError(t, err)
	again, err := svc.Store(ctx, "s1")
	require.NoError(t, err)
	b, err := svc.Store(ctx, "s2")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
}

func TestCartService_AddItemPublishesUpdate(t *testing.T) {
	pub := new(mockPublisher)
	svc, _ := newTestCartService(pub, nil)
	ctx := context.Background()

	pub.On("Publish", ctx, event.TopicCartUpdated, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data event.CartUpdatedData
		if err := e.UnmarshalData(&data); err != nil {
			return false
		}
		return data.SessionID == "s1" && data.ItemCount == 2 && data.Total.String() == "20.00"
	})).Return(nil).Once()

	view, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Name: "Tote", Price: domain.MustMoney("10"), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "s1", view.SessionID)

	pub.AssertExpectations(t)
}

func TestCartService_AddItemValidation(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input AddItemInput
	}{
		{"blank id", AddItemInput{ID: " ", Price: domain.MustMoney("1")}},
		{"negative price", AddItemInput{ID: "bag1", Price: domain.MustMoney("-1")}},
		{"quantity too large", AddItemInput{ID: "bag1", Price: domain.MustMoney("1"), Quantity: 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, "s1", tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	view, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_QuantityLimitMessage(t *testing.T) {
	svc, _ := newTestCartService(nil, testProducts())
	ctx := context.Background()
	want := fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerRequest)

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Quantity: MaxQuantityPerRequest + 1})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, want, appErr.Message)

	_, err = svc.AddProduct(ctx, "s1", "bag1", MaxQuantityPerRequest+1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, want, appErr.Message)

	_, err = svc.UpdateQuantity(ctx, "s1", "bag1", MaxQuantityPerRequest+1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, want, appErr.Message)
}

func TestCartService_AddProductCapturesCatalogData(t *testing.T) {
	svc, _ := newTestCartService(nil, testProducts())
	ctx := context.Background()

	view, err := svc.AddProduct(ctx, "s1", "bag1", 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Sunflower Tote", view.Items[0].Name)
	assert.Equal(t, "tote.jpg", view.Items[0].Image)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.Equal(t, "89.99", view.Total.String())
}

func TestCartService_AddProductRejectsSoldOut(t *testing.T) {
	svc, _ := newTestCartService(nil, testProducts())

	_, err := svc.AddProduct(context.Background(), "s1", "bag2", 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCartService_AddProductUnknown(t *testing.T) {
	svc, _ := newTestCartService(nil, testProducts())

	_, err := svc.AddProduct(context.Background(), "s1", "nope", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_AddProductWithoutCatalog(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)

	_, err := svc.AddProduct(context.Background(), "s1", "bag1", 1)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestCartService_ClearPublishesCleared(t *testing.T) {
	pub := new(mockPublisher)
	svc, _ := newTestCartService(pub, nil)
	ctx := context.Background()

	pub.On("Publish", ctx, event.TopicCartUpdated, mock.Anything).Return(nil).Once()
	pub.On("Publish", ctx, event.TopicCartCleared, mock.Anything).Return(nil).Once()

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Price: domain.MustMoney("5")})
	require.NoError(t, err)

	view, err := svc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Total.String())

	pub.AssertExpectations(t)
}

func TestCartService_PublishFailureDoesNotFailMutation(t *testing.T) {
	pub := new(mockPublisher)
	svc, _ := newTestCartService(pub, nil)
	ctx := context.Background()

	pub.On("Publish", ctx, event.TopicCartUpdated, mock.Anything).Return(errors.New("broker down"))

	view, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Price: domain.MustMoney("5")})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Price: domain.MustMoney("10")})
	require.NoError(t, err)

	view, err := svc.UpdateQuantity(ctx, "s1", "bag1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Count)

	view, err = svc.UpdateQuantity(ctx, "s1", "bag1", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Count)

	_, err = svc.UpdateQuantity(ctx, "s1", "bag1", 101)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	view, err = svc.RemoveItem(ctx, "s1", "bag1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_OpenClose(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)
	ctx := context.Background()

	view, err := svc.Open(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, view.IsOpen)

	view, err = svc.Close(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, view.IsOpen)
}

func TestCartService_SweepRehydratesFromRepository(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)
	ctx := context.Background()

	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Price: domain.MustMoney("10"), Quantity: 3})
	require.NoError(t, err)
	_, err = svc.Get(ctx, "s2")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = svc.Get(ctx, "s2")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.Sweep(ctx, time.Hour))

	view, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Count)
	assert.Equal(t, "30.00", view.Total.String())
}

func TestCartService_SweepKeepsUnsavedCart(t *testing.T) {
	repo := &failingCartRepository{saveErr: errors.New("quota exceeded")}
	svc := NewCartService(repo, nil, nil, newTestLogger(), 0)
	ctx := context.Background()

	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Price: domain.MustMoney("10"), Quantity: 2})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 0, svc.Sweep(ctx, time.Hour))

	view, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)

	repo.mu.Lock()
	repo.saveErr = nil
	repo.mu.Unlock()

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, svc.Sweep(ctx, time.Hour))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.lastSave, 1)
	assert.Equal(t, 2, repo.lastSave[0].Quantity)
}

func TestCartService_RemoveOrdered(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, repo := newTestCartService(pub, nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ID: "bag1", Price: domain.MustMoney("10"), Quantity: 2})
	require.NoError(t, err)
	ordered, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s1", AddItemInput{ID: "bag2", Price: domain.MustMoney("5")})
	require.NoError(t, err)

	view, err := svc.RemoveOrdered(ctx, "s1", ordered.Items)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "bag2", view.Items[0].ID)
	pub.AssertNotCalled(t, "Publish", mock.Anything, event.TopicCartCleared, mock.Anything)

	view, err = svc.RemoveOrdered(ctx, "s1", view.Items)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	pub.AssertCalled(t, "Publish", mock.Anything, event.TopicCartCleared, mock.AnythingOfType("*kafka.Event"))

	_, err = repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_RunStopsOnCancel(t *testing.T) {
	svc, _ := newTestCartService(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 10*time.Millisecond, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
