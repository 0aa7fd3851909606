package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tfmusic/workflow-assistant/internal/storage"
)

// strategyRecord is the validated shape of a project_strategy reply field.
type strategyRecord struct {
	ProjectType       string   `json:"project_type" validate:"omitempty,oneof=A B C"`
	Budget            *int64   `json:"budget" validate:"omitempty,min=0"`
	Payout            *int64   `json:"payout" validate:"omitempty,min=0"`
	MarginPercentage  *float64 `json:"margin_percentage" validate:"omitempty,min=0,max=100"`
	Approach          string   `json:"approach"`
	KeyConsiderations []string `json:"key_considerations"`
}

func (r *strategyRecord) toStrategy() *storage.ProjectStrategy {
	return &storage.ProjectStrategy{
		ProjectType:       r.ProjectType,
		Budget:            r.Budget,
		Payout:            r.Payout,
		MarginPercentage:  r.MarginPercentage,
		Approach:          r.Approach,
		KeyConsiderations: r.KeyConsiderations,
	}
}

// decodeStrategy checks the shape of every known field, then validates the
// value ranges. Unknown fields are ignored.
func decodeStrategy(v *validator.Validate, fields []field) (*strategyRecord, error) {
	rec := &strategyRecord{}
	for _, f := range fields {
		raw, err := decodeAny(f.value)
		if err != nil {
			return nil, structural("project_strategy."+f.key, "invalid JSON", err)
		}
		if raw == nil {
			continue
		}
		name := "project_strategy." + f.key

		switch f.key {
		case "project_type":
			s, ok := raw.(string)
			if !ok {
				return nil, structural(name, "expected a string", nil)
			}
			rec.ProjectType = strings.ToUpper(strings.TrimSpace(s))
		case "budget":
			n, err := wholeNumber(raw)
			if err != nil {
				return nil, structural(name, err.Error(), nil)
			}
			rec.Budget = &n
		case "payout":
			n, err := wholeNumber(raw)
			if err != nil {
				return nil, structural(name, err.Error(), nil)
			}
			rec.Payout = &n
		case "margin_percentage":
			num, ok := raw.(json.Number)
			if !ok {
				return nil, structural(name, "expected a number", nil)
			}
			pct, err := num.Float64()
			if err != nil {
				return nil, structural(name, "expected a number", err)
			}
			rec.MarginPercentage = &pct
		case "approach":
			s, ok := raw.(string)
			if !ok {
				return nil, structural(name, "expected a string", nil)
			}
			rec.Approach = strings.TrimSpace(s)
		case "key_considerations":
			items, ok := raw.([]any)
			if !ok {
				return nil, structural(name, "expected a list of strings", nil)
			}
			for i, item := range items {
				s, ok := item.(string)
				if !ok {
					return nil, structural(fmt.Sprintf("%s[%d]", name, i), "expected a string", nil)
				}
				rec.KeyConsiderations = append(rec.KeyConsiderations, s)
			}
		}
	}

	if err := v.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, structural("project_strategy."+jsonName(fe.StructField()), fmt.Sprintf("failed %q check", fe.Tag()), err)
		}
		return nil, structural("project_strategy", "validation failed", err)
	}
	return rec, nil
}

// wholeNumber accepts integral JSON numbers, including forms like 75000.0.
func wholeNumber(v any) (int64, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected an integer")
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("expected an integer")
	}
	return int64(f), nil
}

func jsonName(structField string) string {
	switch structField {
	case "ProjectType":
		return "project_type"
	case "Budget":
		return "budget"
	case "Payout":
		return "payout"
	case "MarginPercentage":
		return "margin_percentage"
	}
	return structField
}
