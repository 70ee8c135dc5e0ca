package signing

import (
	"encoding/json"
	"strings"
)

// legacyPosition is the pre-multi-field capture shape: one implicit
// signature placement.
type legacyPosition struct {
	Page   *int     `json:"page"`
	XRatio *float64 `json:"xRatio"`
	YRatio *float64 `json:"yRatio"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// rawField mirrors Field with pointer geometry so absent values can be
// told apart from zeroes during validation.
type rawField struct {
	ID     string   `json:"id"`
	Kind   string   `json:"kind"`
	Page   *int     `json:"page"`
	XRatio *float64 `json:"xRatio"`
	YRatio *float64 `json:"yRatio"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// parseFields normalizes either capture shape into one []Field. Legacy
// positions become a single signature field with the sentinel ID, so
// the rest of the pipeline reasons about exactly one representation.
func parseFields(fieldsJSON, positionJSON string) ([]Field, error) {
	switch {
	case strings.TrimSpace(fieldsJSON) != "":
		return parseFieldList(fieldsJSON)
	case strings.TrimSpace(positionJSON) != "":
		return parseLegacyPosition(positionJSON)
	default:
		return nil, validationErrorf("field placement is required")
	}
}

func parseFieldList(fieldsJSON string) ([]Field, error) {
	var raw []rawField
	if err := json.Unmarshal([]byte(fieldsJSON), &raw); err != nil {
		return nil, validationErrorf("invalid fields payload: %v", err)
	}
	if len(raw) == 0 {
		return nil, validationErrorf("at least one field is required")
	}

	fields := make([]Field, 0, len(raw))
	hasSignature := false
	for i, rf := range raw {
		kind := FieldKind(rf.Kind)
		switch kind {
		case FieldSignature, FieldDate, FieldText:
		default:
			return nil, validationErrorf("field %d has unknown kind %q", i, rf.Kind)
		}
		if rf.Page == nil || rf.XRatio == nil || rf.YRatio == nil || rf.Width == nil || rf.Height == nil {
			return nil, validationErrorf("field %d is missing page or geometry", i)
		}
		if *rf.Page < 1 {
			return nil, validationErrorf("field %d has invalid page %d", i, *rf.Page)
		}
		if *rf.Width <= 0 || *rf.Height <= 0 {
			return nil, validationErrorf("field %d has non-positive size", i)
		}
		if kind == FieldSignature {
			hasSignature = true
		}
		fields = append(fields, Field{
			ID:     rf.ID,
			Kind:   kind,
			Page:   *rf.Page,
			XRatio: *rf.XRatio,
			YRatio: *rf.YRatio,
			Width:  *rf.Width,
			Height: *rf.Height,
		})
	}

	if !hasSignature {
		return nil, validationErrorf("at least one signature field is required")
	}
	return fields, nil
}

func parseLegacyPosition(positionJSON string) ([]Field, error) {
	var pos legacyPosition
	if err := json.Unmarshal([]byte(positionJSON), &pos); err != nil {
		return nil, validationErrorf("invalid position payload: %v", err)
	}
	if pos.Page == nil || pos.XRatio == nil || pos.YRatio == nil || pos.Width == nil || pos.Height == nil {
		return nil, validationErrorf("position is missing page or geometry")
	}
	if *pos.Page < 1 {
		return nil, validationErrorf("position has invalid page %d", *pos.Page)
	}
	if *pos.Width <= 0 || *pos.Height <= 0 {
		return nil, validationErrorf("position has non-positive size")
	}
	return []Field{{
		ID:     LegacyFieldID,
		Kind:   FieldSignature,
		Page:   *pos.Page,
		XRatio: *pos.XRatio,
		YRatio: *pos.YRatio,
		Width:  *pos.Width,
		Height: *pos.Height,
	}}, nil
}

// fieldID returns the stable identifier clients use to address a
// field, falling back to the legacy sentinel for unnamed fields.
func fieldID(f Field) string {
	if f.ID != "" {
		return f.ID
	}
	return LegacyFieldID
}
