package services

import (
	"encoding/json"
	"fmt"

	"orderverifier/internal/domain"
)

const extractSystemPrompt = "You are a helpful assistant that extracts food items and quantities from text. " +
	"Only respond with valid JSON arrays containing food items."

const extractTextTemplate = `Extract food items and their quantities from the following text.
Return ONLY a JSON array where each item has "name" and "quantity" fields.
Only include actual food items and beverages. The name should be in Title Case.
Do not include any other text in your response, just the JSON array.

Example output format:
[
    {"name": "Burger", "quantity": 2},
    {"name": "French Fries", "quantity": 1}
]

Text: %s`

const receiptPrompt = `This is a restaurant receipt. Extract all food items and beverages with their quantities.
Respond with a JSON array of objects with "name" and "quantity" fields. Names should be in Title Case.
Do not include any other text, markdown or the words "json", "array" or "object" in your response, just the JSON array.
Example output format: [{"name": "Burger", "quantity": 2}, {"name": "French Fries", "quantity": 1}]`

const compareSystemPrompt = "You are a helpful assistant comparing restaurant orders with bills."

const compareTemplate = `Compare these two lists of food items and identify any discrepancies.

Ordered Items: %s
Billed Items: %s

Return a JSON object with:
1. "message": a summary of the comparison
2. "discrepancies": array of objects with fields:
   - "item": the item name
   - "orderedQuantity": quantity ordered (integer, 0 if not ordered)
   - "billedQuantity": quantity billed (integer, 0 if not billed)
   - "question": a clear follow-up question for the customer
3. "isMatch": boolean, true only when there are no discrepancies

Focus on quantity mismatches and missing or extra items. Treat differently worded names of the same dish as the same item.
Respond with the JSON object only, no other text.

Example when the lists differ:
{
  "message": "The ordered items and billed items do not match perfectly.",
  "discrepancies": [
    {"item": "Dumplings", "orderedQuantity": 12, "billedQuantity": 0, "question": "Did you order 12 Dumplings? They are not included in the bill."},
    {"item": "Burger", "orderedQuantity": 0, "billedQuantity": 2, "question": "Did you order 2 Burgers? You are charged for 2 Burgers in the bill."}
  ],
  "isMatch": false
}

When there are no discrepancies return an empty "discrepancies" array and "isMatch": true.`

func textExtractionPrompt(text string) string {
	return fmt.Sprintf(extractTextTemplate, text)
}

func comparisonPrompt(ordered, billed []domain.FoodItem) (string, error) {
	orderedJSON, err := json.MarshalIndent(nonNil(ordered), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal ordered items: %w", err)
	}
	billedJSON, err := json.MarshalIndent(nonNil(billed), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal billed items: %w", err)
	}

	return fmt.Sprintf(compareTemplate, orderedJSON, billedJSON), nil
}

func nonNil(items []domain.FoodItem) []domain.FoodItem {
	if items == nil {
		return []domain.FoodItem{}
	}

	return items
}
