package application

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validation bounds for submitted answers. Length bounds count characters,
// not bytes, so non-ASCII answers are measured the way the form presents them.
const (
	MinAge             = 13
	MaxAge             = 100
	MaxWeeklyHours     = 168
	MinExperienceChars = 20
	MinReasonChars     = 30
	MinContribChars    = 20
	MinIGNLen          = 3
	MaxIGNLen          = 20
)

// Payload is the validated answer set of a submission. Raw client input is a
// loosely shaped JSON object; it never travels past ValidatePayload untyped.
type Payload struct {
	// Personal
	InGameName string `json:"in_game_name"`
	Age        int    `json:"age"`
	Country    string `json:"country"`

	// Gaming
	PrimaryGame   string `json:"primary_game"`
	GameplayHours int    `json:"gameplay_hours"`
	Rank          string `json:"rank"`
	Experience    string `json:"experience"`

	// Motivation
	Reason       string `json:"reason"`
	Contribution string `json:"contribution"`
	Availability int    `json:"availability"`
}

// FieldErrors maps a submitted field name to its validation failure.
type FieldErrors map[string]string

// Empty reports whether validation passed.
func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// requiredFields lists every field a submission must carry, grouped the way
// the application form presents them.
var requiredFields = []string{
	"in_game_name", "age", "country",
	"primary_game", "gameplay_hours", "rank", "experience",
	"reason", "contribution", "availability",
}

// ValidatePayload checks a raw submission object against the form schema and
// returns the typed payload. On any failure the returned FieldErrors is
// non-empty and the payload must not be used.
func ValidatePayload(raw map[string]any) (Payload, FieldErrors) {
	errs := FieldErrors{}

	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || isEmptyValue(v) {
			errs[field] = fmt.Sprintf("%s is required", fieldTitle(field))
		}
	}

	var p Payload
	p.InGameName = stringField(raw, "in_game_name")
	p.Country = stringField(raw, "country")
	p.PrimaryGame = stringField(raw, "primary_game")
	p.Rank = stringField(raw, "rank")
	p.Experience = stringField(raw, "experience")
	p.Reason = stringField(raw, "reason")
	p.Contribution = stringField(raw, "contribution")

	if v, ok := raw["age"]; ok && !isEmptyValue(v) {
		age, err := intField(v)
		switch {
		case err != nil:
			errs["age"] = "Age must be a valid number"
		case age < MinAge:
			errs["age"] = fmt.Sprintf("You must be at least %d years old", MinAge)
		case age > MaxAge:
			errs["age"] = "Please enter a valid age"
		default:
			p.Age = age
		}
	}

	if v, ok := raw["gameplay_hours"]; ok && !isEmptyValue(v) {
		hours, err := intField(v)
		switch {
		case err != nil:
			errs["gameplay_hours"] = "Hours must be a valid number"
		case hours < 0:
			errs["gameplay_hours"] = "Hours must be a positive number"
		default:
			p.GameplayHours = hours
		}
	}

	if v, ok := raw["availability"]; ok && !isEmptyValue(v) {
		hours, err := intField(v)
		switch {
		case err != nil:
			errs["availability"] = "Availability must be a valid number"
		case hours < 0 || hours > MaxWeeklyHours:
			errs["availability"] = fmt.Sprintf("Hours per week must be between 0 and %d", MaxWeeklyHours)
		default:
			p.Availability = hours
		}
	}

	if p.Experience != "" && utf8.RuneCountInString(p.Experience) < MinExperienceChars {
		errs["experience"] = fmt.Sprintf("Please provide at least %d characters describing your experience", MinExperienceChars)
	}
	if p.Reason != "" && utf8.RuneCountInString(p.Reason) < MinReasonChars {
		errs["reason"] = fmt.Sprintf("Please provide at least %d characters explaining why you want to join", MinReasonChars)
	}
	if p.Contribution != "" && utf8.RuneCountInString(p.Contribution) < MinContribChars {
		errs["contribution"] = fmt.Sprintf("Please provide at least %d characters about your contribution", MinContribChars)
	}
	if p.InGameName != "" && (utf8.RuneCountInString(p.InGameName) < MinIGNLen || utf8.RuneCountInString(p.InGameName) > MaxIGNLen) {
		errs["in_game_name"] = fmt.Sprintf("In-game name must be between %d and %d characters", MinIGNLen, MaxIGNLen)
	}

	if !errs.Empty() {
		return Payload{}, errs
	}
	return p, errs
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// intField accepts the numeric shapes a JSON form realistically produces:
// float64 from decoding, json.Number, stringified digits, or a native int.
func intField(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func fieldTitle(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
