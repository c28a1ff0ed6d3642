package services

import (
	"context"
	"fmt"
	"log/slog"

	"orderverifier/internal/codec"
	"orderverifier/internal/domain"
	"orderverifier/internal/gateway"
	"orderverifier/internal/utils"
	"orderverifier/pkg/logger"
)

type FoodExtractor struct {
	llm         gateway.Completer
	textModel   string
	visionModel string
}

func NewFoodExtractor(llm gateway.Completer, textModel, visionModel string) *FoodExtractor {
	return &FoodExtractor{
		llm:         llm,
		textModel:   textModel,
		visionModel: visionModel,
	}
}

// ExtractFromText returns the food items mentioned in text. Any failure is
// logged and reported as "no items found".
func (e *FoodExtractor) ExtractFromText(ctx context.Context, text string) []domain.FoodItem {
	log := logger.FromCtx(ctx)

	reply, err := e.llm.Complete(ctx, gateway.Prompt{
		Name:   "extract_text",
		Model:  e.textModel,
		System: extractSystemPrompt,
		User:   textExtractionPrompt(text),
	})
	if err != nil {
		log.Warn("text extraction failed, returning no items",
			slog.Int("text_len", len(text)),
			slog.String("kind", domain.KindOf(err).String()),
			logger.Error(err),
		)
		return []domain.FoodItem{}
	}

	items, err := ParseFoodItems([]byte(reply))
	if err != nil {
		log.Warn("unusable extraction reply, returning no items",
			slog.String("reply", utils.Truncate(reply, 300)),
			logger.Error(err),
		)
		return []domain.FoodItem{}
	}

	log.Info("food items extracted from text", slog.Int("items", len(items)))

	return items
}

// ExtractFromImage reads the billed items from a receipt photo. Unlike text
// extraction it never degrades to an empty list.
func (e *FoodExtractor) ExtractFromImage(ctx context.Context, image []byte) ([]domain.FoodItem, error) {
	log := logger.FromCtx(ctx)
	mime := codec.ImageMIME(image)

	reply, err := e.llm.Complete(ctx, gateway.Prompt{
		Name:         "extract_image",
		Model:        e.visionModel,
		User:         receiptPrompt,
		ImageDataURI: codec.DataURI(mime, image),
	})
	if err != nil {
		return nil, fmt.Errorf("analyze receipt: %w", err)
	}

	items, err := ParseFoodItems([]byte(reply))
	if err != nil {
		log.Error("unusable receipt reply", slog.String("reply", utils.Truncate(reply, 300)), logger.Error(err))
		return nil, fmt.Errorf("parse receipt items: %w", err)
	}

	log.Info("billed items extracted from receipt",
		slog.Int("image_bytes", len(image)),
		slog.String("mime", mime),
		slog.Int("items", len(items)),
	)

	return items, nil
}
