package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var notificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "storefront",
	Subsystem: "notify",
	Name:      "failed_total",
	Help:      "Total number of failed order notifications.",
}, []string{"recipient"})

type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Dispatcher sends the post-checkout notifications: an operations
// summary and a customer confirmation. The order is already committed
// when it runs, so failures are logged and counted, never returned.
type Dispatcher struct {
	logger   *slog.Logger
	sender   Sender
	opsEmail string
}

func NewDispatcher(logger *slog.Logger, sender Sender, opsEmail string) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With(slog.String("component", "notify")),
		sender:   sender,
		opsEmail: opsEmail,
	}
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, order entities.Order) {
	g := new(errgroup.Group)

	g.Go(func() error {
		subject := fmt.Sprintf("New order %s", order.ID)
		if err := d.sender.Send(ctx, d.opsEmail, subject, adminBody(order)); err != nil {
			notificationsFailed.WithLabelValues("ops").Inc()
			d.logger.ErrorContext(ctx, "failed to send ops notification",
				slog.Any("error", err), slog.String("order_id", order.ID))
		}
		return nil
	})

	g.Go(func() error {
		subject := fmt.Sprintf("Your order %s has been received", order.ID)
		if err := d.sender.Send(ctx, order.CustomerEmail, subject, customerBody(order)); err != nil {
			notificationsFailed.WithLabelValues("customer").Inc()
			d.logger.ErrorContext(ctx, "failed to send customer notification",
				slog.Any("error", err), slog.String("order_id", order.ID))
		}
		return nil
	})

	g.Wait()
}

func adminBody(order entities.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Order %s</h2>", order.ID)
	fmt.Fprintf(&b, "<p>%s &lt;%s&gt;", order.CustomerName, order.CustomerEmail)
	if order.CustomerPhone != "" {
		fmt.Fprintf(&b, ", %s", order.CustomerPhone)
	}
	b.WriteString("</p>")
	fmt.Fprintf(&b, "<p>Ship to: %s</p>", order.ShippingAddress)
	if order.Notes != "" {
		fmt.Fprintf(&b, "<p>Notes: %s</p>", order.Notes)
	}
	b.WriteString("<ul>")
	for _, it := range order.Items {
		fmt.Fprintf(&b, "<li>%s × %d @ %s</li>", it.ProductName, it.Quantity, it.UnitPrice.String())
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Total: %s</p>", order.Total.String())
	return b.String()
}

func customerBody(order entities.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>", order.CustomerName)
	fmt.Fprintf(&b, "<p>We received your order <strong>%s</strong>. "+
		"You can track it any time with your order number and email.</p>", order.ID)
	b.WriteString("<ul>")
	for _, it := range order.Items {
		fmt.Fprintf(&b, "<li>%s × %d</li>", it.ProductName, it.Quantity)
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Total: %s</p>", order.Total.String())
	return b.String()
}
