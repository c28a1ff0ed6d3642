package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"orderverifier/internal/domain"
)

// ParseFoodItems validates a JSON array of {name, quantity} objects, also
// accepted wrapped as {"items": [...]}. Failures are domain.KindShape errors.
func ParseFoodItems(raw []byte) ([]domain.FoodItem, error) {
	payload := stripCodeFence(raw)

	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		var wrapped struct {
			Items []json.RawMessage `json:"items"`
		}
		if werr := json.Unmarshal(payload, &wrapped); werr != nil || wrapped.Items == nil {
			return nil, domain.ShapeError("expected a JSON array of food items", err)
		}
		entries = wrapped.Items
	}
	if entries == nil {
		return nil, domain.ShapeError("expected a JSON array of food items, got null", nil)
	}

	items := make([]domain.FoodItem, 0, len(entries))
	for i, entry := range entries {
		item, err := parseFoodItem(entry)
		if err != nil {
			return nil, domain.ShapeError(fmt.Sprintf("invalid food item at index %d", i), err)
		}
		items = append(items, item)
	}

	return items, nil
}

func parseFoodItem(raw json.RawMessage) (domain.FoodItem, error) {
	fields, err := object(raw)
	if err != nil {
		return domain.FoodItem{}, err
	}

	name, err := stringField(fields, "name")
	if err != nil {
		return domain.FoodItem{}, err
	}
	quantity, err := quantityField(fields, "quantity")
	if err != nil {
		return domain.FoodItem{}, err
	}

	return domain.NewFoodItem(name, quantity)
}

// parseComparison validates the model's verdict. IsMatch is always derived
// from the discrepancies, whatever the model claimed.
func parseComparison(raw []byte) (domain.ComparisonResult, bool, error) {
	fields, err := object(stripCodeFence(raw))
	if err != nil {
		return domain.ComparisonResult{}, false, domain.ShapeError("expected a JSON comparison object", err)
	}

	message, err := stringField(fields, "message")
	if err != nil {
		return domain.ComparisonResult{}, false, domain.ShapeError("invalid comparison", err)
	}

	rawList, ok := fields["discrepancies"]
	if !ok {
		return domain.ComparisonResult{}, false, domain.ShapeError("invalid comparison", errors.New(`missing "discrepancies"`))
	}
	var list []json.RawMessage
	if err := json.Unmarshal(rawList, &list); err != nil || list == nil {
		return domain.ComparisonResult{}, false, domain.ShapeError("invalid comparison", errors.New(`"discrepancies" is not an array`))
	}

	discrepancies := make([]domain.Discrepancy, 0, len(list))
	for i, entry := range list {
		d, err := parseDiscrepancy(entry)
		if err != nil {
			return domain.ComparisonResult{}, false, domain.ShapeError(fmt.Sprintf("invalid discrepancy at index %d", i), err)
		}
		discrepancies = append(discrepancies, d)
	}

	claimed, err := boolField(fields, "isMatch")
	if err != nil {
		return domain.ComparisonResult{}, false, domain.ShapeError("invalid comparison", err)
	}

	result := domain.NewComparisonResult(message, discrepancies)

	return result, claimed == result.IsMatch, nil
}

func parseDiscrepancy(raw json.RawMessage) (domain.Discrepancy, error) {
	fields, err := object(raw)
	if err != nil {
		return domain.Discrepancy{}, err
	}

	item, err := stringField(fields, "item")
	if err != nil {
		return domain.Discrepancy{}, err
	}
	if strings.TrimSpace(item) == "" {
		return domain.Discrepancy{}, errors.New(`empty "item"`)
	}
	ordered, err := quantityField(fields, "orderedQuantity")
	if err != nil {
		return domain.Discrepancy{}, err
	}
	billed, err := quantityField(fields, "billedQuantity")
	if err != nil {
		return domain.Discrepancy{}, err
	}
	question, err := stringField(fields, "question")
	if err != nil {
		return domain.Discrepancy{}, err
	}

	return domain.Discrepancy{
		Item:            strings.TrimSpace(item),
		OrderedQuantity: ordered,
		BilledQuantity:  billed,
		Question:        strings.TrimSpace(question),
	}, nil
}

func object(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("not a JSON object: null")
	}

	return fields, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%q is not a string", key)
	}

	return s, nil
}

// quantityField accepts integers, integral floats and numeric strings.
func quantityField(fields map[string]json.RawMessage, key string) (int, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("missing %q", key)
	}

	var value any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return 0, fmt.Errorf("%q: %w", key, err)
	}

	var (
		f   float64
		err error
	)
	switch v := value.(type) {
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("%q is not a number", key)
	}
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", key)
	}

	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%q must be a non-negative integer, got %v", key, f)
	}

	return int(f), nil
}

func boolField(fields map[string]json.RawMessage, key string) (bool, error) {
	raw, ok := fields[key]
	if !ok {
		return false, fmt.Errorf("missing %q", key)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return parsed, nil
		}
	}

	return false, fmt.Errorf("%q is not a boolean", key)
}

// stripCodeFence removes a markdown ``` fence the model sometimes wraps JSON in.
func stripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return []byte(strings.TrimSpace(s))
}
