package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

type FarmerSales interface {
	IncrementSales(ctx context.Context, user bson.ObjectID, amount float64) error
}

func perFarmer(lines []OrderLine) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		totals[line.FarmerID] = totals[line.FarmerID].Add(decimal.NewFromFloat(line.Amount))
	}
	return totals
}

func applySales(ctx context.Context, farmers FarmerSales, lines []OrderLine, sign int64) error {
	for farmerHex, amount := range perFarmer(lines) {
		farmer, err := bson.ObjectIDFromHex(farmerHex)
		if err != nil {
			return errors.Wrapf(err, "farmer id %q", farmerHex)
		}
		value, _ := amount.Mul(decimal.NewFromInt(sign)).Round(2).Float64()
		err = farmers.IncrementSales(ctx, farmer, value)
		if errors.Is(err, models.ErrNotFound) {
			// farmers without a profile have no running total
			log.WithField("farmer", farmerHex).Debug("No farm profile for sales projection")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SalesProjector keeps each farm's totalSales in step with placed and cancelled orders.
func SalesProjector(farmers FarmerSales) []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler("FarmerSalesOnOrderPlaced", func(ctx context.Context, event *OrderPlaced) error {
			return applySales(ctx, farmers, event.Lines, 1)
		}),
		cqrs.NewEventHandler("FarmerSalesOnOrderCancelled", func(ctx context.Context, event *OrderCancelled) error {
			return applySales(ctx, farmers, event.Lines, -1)
		}),
	}
}
