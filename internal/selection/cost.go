package selection

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/kramstore/delivery/internal/telemetry"
	"github.com/kramstore/delivery/pkg/carrier"
)

// FallbackCost is the flat delivery rate shown when the carrier cannot
// price the shipment. Checkout stays completable either way.
const FallbackCost = 60

// CostResult is a delivery price with its provenance.
type CostResult struct {
	Amount        float64 `json:"amount"`
	AssessedValue float64 `json:"assessedValue,omitempty"`
	Fallback      bool    `json:"fallback"`
}

// ResolveCost asks the carrier for a price and substitutes FallbackCost on
// any failure. Metrics may be nil.
func ResolveCost(ctx context.Context, c carrier.Carrier, req *carrier.CostRequest, logger *otelzap.Logger, metrics *telemetry.Metrics) *CostResult {
	est, err := c.CalculateCost(ctx, req)
	if err != nil {
		logger.Warn("cost calculation failed, using fallback rate",
			zap.String("carrier", c.Name()),
			zap.Float64("fallback", FallbackCost),
			zap.Error(err),
		)
		if metrics != nil {
			metrics.RecordCostFallback(c.Name())
		}
		return &CostResult{Amount: FallbackCost, Fallback: true}
	}
	return &CostResult{Amount: est.Amount, AssessedValue: est.AssessedValue}
}
