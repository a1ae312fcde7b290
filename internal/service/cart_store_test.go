package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository/memory"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func line(id, price string) domain.LineItem {
	return domain.LineItem{ID: id, Name: "Bag " + id, Price: domain.MustMoney(price), Image: "img/" + id}
}

// failingCartRepository fails every write and optionally every read.
type failingCartRepository struct {
	mu       sync.Mutex
	loadErr  error
	saveErr  error
	saves    int
	lastSave []domain.LineItem
}

func (r *failingCartRepository) Load(context.Context, string) ([]domain.LineItem, error) {
	return nil, r.loadErr
}

func (r *failingCartRepository) Save(_ context.Context, _ string, items []domain.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.lastSave = items
	return r.saveErr
}

func (r *failingCartRepository) Delete(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.lastSave = nil
	return r.saveErr
}

// blockingCartRepository blocks writes until the context is done.
type blockingCartRepository struct{}

func (blockingCartRepository) Load(context.Context, string) ([]domain.LineItem, error) {
	return []domain.LineItem{}, nil
}

func (blockingCartRepository) Save(ctx context.Context, _ string, _ []domain.LineItem) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingCartRepository) Delete(context.Context, string) error { return nil }

func TestCartStore_StartsEmptyWithoutPersistedState(t *testing.T) {
	store := NewCartStore(context.Background(), "s1", memory.NewCartRepository(), newTestLogger())

	assert.Empty(t, store.Items(context.Background()))
	assert.Equal(t, 0, store.Count(context.Background()))
	assert.True(t, store.Total(context.Background()).IsZero())
	assert.False(t, store.IsOpen())
}

func TestCartStore_Scenario(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	store := NewCartStore(ctx, "s1", repo, newTestLogger())

	view := store.AddItem(ctx, line("bag1", "89.99"), 1)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, "89.99", view.Total.String())

	view = store.AddItem(ctx, line("bag2", "64.99"), 1)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "154.98", view.Total.String())

	view = store.UpdateQuantity(ctx, "bag1", 3)
	assert.Equal(t, 4, view.Count)
	assert.Equal(t, "334.96", view.Total.String())

	view = store.RemoveItem(ctx, "bag2")
	assert.Equal(t, 3, view.Count)
	assert.Equal(t, "269.97", view.Total.String())

	view = store.ClearCart(ctx)
	assert.Equal(t, 0, view.Count)
	assert.Equal(t, "0.00", view.Total.String())
	assert.NotNil(t, view.Items)

	_, err := repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	store := NewCartStore(ctx, "s1", repo, newTestLogger())

	store.AddItem(ctx, line("bag1", "10"), 2)
	persisted, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 2, persisted[0].Quantity)

	store.UpdateQuantity(ctx, "bag1", 5)
	persisted, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, persisted[0].Quantity)
}

func TestCartStore_RehydratesFromRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()

	first := NewCartStore(ctx, "s1", repo, newTestLogger())
	first.AddItem(ctx, line("bag1", "25"), 1)
	first.AddItem(ctx, line("bag2", "15"), 2)

	second := NewCartStore(ctx, "s1", repo, newTestLogger())
	items := second.Items(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "bag1", items[0].ID)
	assert.Equal(t, "bag2", items[1].ID)
	assert.Equal(t, "55.00", second.Total(ctx).String())
}

func TestCartStore_CorruptStateYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	repo.SetRaw("s1", "{not json")

	store := NewCartStore(ctx, "s1", repo, newTestLogger())
	assert.Empty(t, store.Items(ctx))

	store.AddItem(ctx, line("bag1", "5"), 1)
	persisted, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestCartStore_NormalizesLoadedItems(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	repo.SetRaw("s1", `[{"id":"bag1","name":"A","price":10,"image":"","quantity":2},`+
		`{"id":"bag1","name":"dup","price":99,"image":"","quantity":1},`+
		`{"id":"","name":"blank","price":1,"image":"","quantity":1},`+
		`{"id":"bag2","name":"B","price":5,"image":"","quantity":0}]`)

	store := NewCartStore(ctx, "s1", repo, newTestLogger())
	items := store.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "bag1", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCartStore_LoadFailureYieldsEmptyCart(t *testing.T) {
	repo := &failingCartRepository{loadErr: errors.New("connection refused")}
	store := NewCartStore(context.Background(), "s1", repo, newTestLogger())

	assert.Empty(t, store.Items(context.Background()))
}

func TestCartStore_SaveFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	repo := &failingCartRepository{saveErr: errors.New("quota exceeded")}
	store := NewCartStore(ctx, "s1", repo, newTestLogger())

	before := testutil.ToFloat64(cartPersistFailuresTotal.WithLabelValues(opAdd))
	view := store.AddItem(ctx, line("bag1", "12.50"), 2)

	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "25.00", view.Total.String())
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, before+1, testutil.ToFloat64(cartPersistFailuresTotal.WithLabelValues(opAdd)))
}

func TestCartStore_SaveIsBoundedByTimeout(t *testing.T) {
	ctx := context.Background()
	store := newCartStore("s1", blockingCartRepository{}, newTestLogger(), 20*time.Millisecond)

	start := time.Now()
	view := store.AddItem(ctx, line("bag1", "1"), 1)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, view.Count)
}

func TestCartStore_SaveSurvivesCancelledCaller(t *testing.T) {
	repo := memory.NewCartRepository()
	store := NewCartStore(context.Background(), "s1", repo, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store.AddItem(ctx, line("bag1", "3"), 1)

	persisted, err := repo.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestCartStore_UpdateQuantityNonPositiveIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(ctx, "s1", memory.NewCartRepository(), newTestLogger())
	store.AddItem(ctx, line("bag1", "10"), 2)

	view := store.UpdateQuantity(ctx, "bag1", 0)
	assert.Equal(t, 2, view.Count)

	view = store.UpdateQuantity(ctx, "bag1", -3)
	assert.Equal(t, 2, view.Count)
}

func TestCartStore_AddDoesNotOpenPanel(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(ctx, "s1", memory.NewCartRepository(), newTestLogger())

	store.AddItem(ctx, line("bag1", "10"), 1)
	assert.False(t, store.IsOpen())

	assert.True(t, store.Open(ctx).IsOpen)
	assert.True(t, store.IsOpen())
	assert.False(t, store.Close(ctx).IsOpen)
}

func TestCartStore_ViewIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(ctx, "s1", memory.NewCartRepository(), newTestLogger())
	view := store.AddItem(ctx, line("bag1", "10"), 1)

	view.Items[0].Quantity = 99
	assert.Equal(t, 1, store.Count(ctx))
}

func TestCartStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	store := NewCartStore(ctx, "s1", repo, newTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddItem(ctx, line("bag1", "2"), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Count(ctx))
	assert.Equal(t, "100.00", store.Total(ctx).String())

	persisted, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 50, persisted[0].Quantity)
}

func TestCartStore_FlushRetriesFailedSave(t *testing.T) {
	ctx := context.Background()
	repo := &failingCartRepository{saveErr: errors.New("quota exceeded")}
	store := NewCartStore(ctx, "s1", repo, newTestLogger())

	store.AddItem(ctx, line("bag1", "10"), 2)
	assert.False(t, store.Flush(ctx))
	assert.Equal(t, 2, repo.saves)

	repo.mu.Lock()
	repo.saveErr = nil
	repo.mu.Unlock()

	assert.True(t, store.Flush(ctx))
	assert.True(t, store.Flush(ctx))
	assert.Equal(t, 3, repo.saves)
	require.Len(t, repo.lastSave, 1)
	assert.Equal(t, 2, repo.lastSave[0].Quantity)
}

func TestCartStore_RemoveOrderedKeepsLaterItems(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	store := NewCartStore(ctx, "s1", repo, newTestLogger())

	store.AddItem(ctx, line("bag1", "10"), 1)
	ordered := store.Items(ctx)
	store.AddItem(ctx, line("bag1", "10"), 1)
	store.AddItem(ctx, line("late", "4"), 1)

	view := store.RemoveOrdered(ctx, ordered)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.Equal(t, "late", view.Items[1].ID)

	persisted, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}
