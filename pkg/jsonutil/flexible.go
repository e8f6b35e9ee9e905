package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Arrays of strings are joined, which is how models tend to list "factors".
	var listVal []string
	if err := json.Unmarshal(raw, &listVal); err == nil {
		return strings.Join(listVal, "; ")
	}

	return string(raw)
}

// FlexibleFloat coerces a JSON number, or a string holding one, to float64.
// A trailing percent sign is accepted and scaled to a fraction ("70%" -> 0.7).
// The second return value is false when the value is absent or not numeric.
func FlexibleFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal, true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return 0, false
	}
	strVal = strings.TrimSpace(strVal)
	scale := 1.0
	if strings.HasSuffix(strVal, "%") {
		strVal = strings.TrimSpace(strings.TrimSuffix(strVal, "%"))
		scale = 0.01
	}
	f, err := strconv.ParseFloat(strVal, 64)
	if err != nil {
		return 0, false
	}
	return f * scale, true
}
