package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentProcessor accepts a declared payment method for an order total.
// No gateway is contacted.
type PaymentProcessor interface {
	Process(ctx context.Context, method domain.PaymentMethod, amount decimal.Decimal) error
}

type simulatedPaymentProcessor struct {
	delay  time.Duration
	logger *zap.Logger
}

// NewSimulatedPaymentProcessor waits for delay and then always succeeds
func NewSimulatedPaymentProcessor(delay time.Duration, logger *zap.Logger) PaymentProcessor {
	return &simulatedPaymentProcessor{delay: delay, logger: logger.Named("payment")}
}

func (p *simulatedPaymentProcessor) Process(ctx context.Context, method domain.PaymentMethod, amount decimal.Decimal) error {
	p.logger.Debug("Processing payment",
		zap.String("method", string(method)),
		zap.String("amount", amount.StringFixed(2)),
		zap.Duration("delay", p.delay),
	)

	if p.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("payment interrupted: %w", ctx.Err())
	}
}
