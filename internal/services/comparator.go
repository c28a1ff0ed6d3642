package services

import (
	"context"
	"fmt"
	"log/slog"

	"orderverifier/internal/domain"
	"orderverifier/internal/gateway"
	"orderverifier/internal/utils"
	"orderverifier/pkg/logger"
)

type BillComparator struct {
	llm   gateway.Completer
	model string
}

func NewBillComparator(llm gateway.Completer, model string) *BillComparator {
	return &BillComparator{
		llm:   llm,
		model: model,
	}
}

// Compare asks the model for discrepancies between the ordered and billed
// items and validates its answer.
func (c *BillComparator) Compare(ctx context.Context, ordered, billed []domain.FoodItem) (domain.ComparisonResult, error) {
	log := logger.FromCtx(ctx).With(slog.Int("ordered", len(ordered)), slog.Int("billed", len(billed)))

	// with nothing billed every ordered item is missing, no model needed
	if len(billed) == 0 {
		result := missingFromBill(ordered)
		log.Info("bill is empty, compared locally", slog.Bool("is_match", result.IsMatch))
		return result, nil
	}

	prompt, err := comparisonPrompt(ordered, billed)
	if err != nil {
		return domain.ComparisonResult{}, err
	}

	reply, err := c.llm.Complete(ctx, gateway.Prompt{
		Name:   "compare",
		Model:  c.model,
		System: compareSystemPrompt,
		User:   prompt,
	})
	if err != nil {
		return domain.ComparisonResult{}, fmt.Errorf("compare orders: %w", err)
	}

	result, consistent, err := parseComparison([]byte(reply))
	if err != nil {
		log.Error("unusable comparison reply", slog.String("reply", utils.Truncate(reply, 300)), logger.Error(err))
		return domain.ComparisonResult{}, fmt.Errorf("parse comparison: %w", err)
	}
	if !consistent {
		log.Warn("model verdict contradicts its discrepancies, using discrepancies",
			slog.Int("discrepancies", len(result.Discrepancies)))
	}

	log.Info("orders compared", slog.Bool("is_match", result.IsMatch), slog.Int("discrepancies", len(result.Discrepancies)))

	return result, nil
}

func missingFromBill(ordered []domain.FoodItem) domain.ComparisonResult {
	var discrepancies []domain.Discrepancy
	for _, item := range ordered {
		if item.Quantity == 0 {
			continue
		}
		discrepancies = append(discrepancies, domain.Discrepancy{
			Item:            item.Name,
			OrderedQuantity: item.Quantity,
			BilledQuantity:  0,
			Question:        fmt.Sprintf("Did you order %d %s? They are not included in the bill.", item.Quantity, item.Name),
		})
	}

	if len(discrepancies) == 0 {
		return domain.NewComparisonResult("The ordered items and billed items match.", nil)
	}

	return domain.NewComparisonResult("The ordered items and billed items do not match perfectly.", discrepancies)
}
