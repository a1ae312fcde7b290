package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	pkgkafka "github.com/Mahir9011/Cupid-Crochy/pkg/kafka"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "cupidcrochy.cart.updated", TopicCartUpdated)
	assert.Equal(t, "cupidcrochy.cart.cleared", TopicCartCleared)
	assert.Equal(t, "cupidcrochy.order.placed", TopicOrderPlaced)
	assert.Equal(t, "cupidcrochy.order.status_changed", TopicOrderStatusChanged)
}

func TestPublishCartUpdated(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, discard())

	var cart domain.Cart
	cart.Add(domain.LineItem{ID: "bag1", Price: domain.MustMoney("89.99")}, 2)

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	pub.On("Publish", ctx, TopicCartUpdated, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data CartUpdatedData
		if err := e.UnmarshalData(&data); err != nil {
			return false
		}
		return e.AggregateID == "sess-1" &&
			e.AggregateType == AggregateTypeCart &&
			e.CorrelationID == "corr-1" &&
			data.ItemCount == 2 &&
			data.Total.String() == "179.98"
	})).Return(nil)

	require.NoError(t, p.PublishCartUpdated(ctx, "sess-1", &cart))
	pub.AssertExpectations(t)
}

func TestPublishOrderStatusChanged(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, discard())

	pub.On("Publish", mock.Anything, TopicOrderStatusChanged, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data OrderStatusChangedData
		_ = e.UnmarshalData(&data)
		return e.AggregateID == "ORD-1" && data.OldStatus == "Processing" && data.NewStatus == "Shipped"
	})).Return(nil)

	require.NoError(t, p.PublishOrderStatusChanged(context.Background(), "ORD-1", "Processing", "Shipped"))
	pub.AssertExpectations(t)
}

func TestPublish_WrapsError(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, discard())
	pub.On("Publish", mock.Anything, TopicCartCleared, mock.Anything).Return(errors.New("broker down"))

	err := p.PublishCartCleared(context.Background(), "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish cupidcrochy.cart.cleared event")
}

func TestPublish_NilPublisherDrops(t *testing.T) {
	p := NewProducer(nil, discard())
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), "s", &domain.Order{OrderNumber: "ORD-1"}))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishCartCleared(context.Background(), "s"))
}
