package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"
	"github.com/khyberwear/khyber-shawls-sub000/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	fails map[string]error
}

func (f *fakeSender) Send(_ context.Context, to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return f.fails[to]
}

func order() entities.Order {
	return entities.Order{
		ID:            "ord-1",
		CustomerName:  "Aisha",
		CustomerEmail: "aisha@example.com",
		Status:        entities.StatusPending,
		Total:         decimal.NewFromInt(10000),
		Items: []entities.OrderItem{
			{ProductID: "shawl-1", ProductName: "Kashmiri Shawl", Quantity: 2, UnitPrice: decimal.NewFromInt(5000)},
		},
	}
}

func TestDispatcher_OrderPlaced(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sends to ops and customer", func(t *testing.T) {
		sender := &fakeSender{}
		d := notify.NewDispatcher(logger, sender, "ops@khyberwear.example")

		d.OrderPlaced(context.Background(), order())

		require.Len(t, sender.sent, 2)
		assert.ElementsMatch(t, []string{"ops@khyberwear.example", "aisha@example.com"}, sender.sent)
	})

	t.Run("send failures are swallowed", func(t *testing.T) {
		sender := &fakeSender{fails: map[string]error{
			"ops@khyberwear.example": errors.New("smtp down"),
			"aisha@example.com":      errors.New("smtp down"),
		}}
		d := notify.NewDispatcher(logger, sender, "ops@khyberwear.example")

		// must not panic or propagate anything
		d.OrderPlaced(context.Background(), order())

		assert.Len(t, sender.sent, 2)
	})
}
