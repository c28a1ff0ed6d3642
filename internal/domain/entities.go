package domain

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type FoodItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// NewFoodItem trims the name, converts it to Title Case and checks the quantity.
func NewFoodItem(name string, quantity int) (FoodItem, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return FoodItem{}, errors.New("empty item name")
	}
	if quantity < 0 {
		return FoodItem{}, errors.New("negative quantity")
	}

	return FoodItem{
		Name:     TitleCase(name),
		Quantity: quantity,
	}, nil
}

// TitleCase upper-cases the first letter of every word and keeps the rest,
// so "bbq wings" becomes "Bbq Wings" but "BBQ wings" stays "BBQ Wings".
func TitleCase(s string) string {
	// Caser is stateful, a new one per call keeps it goroutine-safe.
	return cases.Title(language.English, cases.NoLower).String(s)
}

type Discrepancy struct {
	Item            string `json:"item"`
	OrderedQuantity int    `json:"orderedQuantity"`
	BilledQuantity  int    `json:"billedQuantity"`
	Question        string `json:"question"`
}

type ComparisonResult struct {
	Message       string        `json:"message"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	IsMatch       bool          `json:"isMatch"`
}

// NewComparisonResult derives IsMatch from the discrepancies.
func NewComparisonResult(message string, discrepancies []Discrepancy) ComparisonResult {
	if discrepancies == nil {
		discrepancies = []Discrepancy{}
	}

	return ComparisonResult{
		Message:       message,
		Discrepancies: discrepancies,
		IsMatch:       len(discrepancies) == 0,
	}
}

// Segment is a time-stamped piece of transcribed speech, times in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

type TranscriptionResult struct {
	Text string `json:"text"`
}

// NewTranscription joins segment texts in order with single spaces.
func NewTranscription(segments []Segment) TranscriptionResult {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	return TranscriptionResult{Text: strings.Join(parts, " ")}
}
