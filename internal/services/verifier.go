package services

import (
	"context"
	"log/slog"

	"orderverifier/internal/domain"
	"orderverifier/pkg/logger"
)

type receiptReader interface {
	ExtractFromImage(ctx context.Context, image []byte) ([]domain.FoodItem, error)
}

type comparer interface {
	Compare(ctx context.Context, ordered, billed []domain.FoodItem) (domain.ComparisonResult, error)
}

// BillVerifier reads a receipt and compares it with what was ordered.
type BillVerifier struct {
	receipts receiptReader
	comparer comparer
}

func NewBillVerifier(receipts receiptReader, comparer comparer) *BillVerifier {
	return &BillVerifier{
		receipts: receipts,
		comparer: comparer,
	}
}

func (v *BillVerifier) Verify(ctx context.Context, ordered []domain.FoodItem, receipt []byte) (domain.ComparisonResult, error) {
	billed, err := v.receipts.ExtractFromImage(ctx, receipt)
	if err != nil {
		return domain.ComparisonResult{}, err
	}

	logger.FromCtx(ctx).Debug("billed items", slog.Any("items", billed))

	return v.comparer.Compare(ctx, ordered, billed)
}
