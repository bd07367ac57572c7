package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/hydro/internal/types"
)

// Field limits.
const (
	MaxSystemNameLength = 100
	MinPH               = 0.0
	MaxPH               = 14.0
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a set of field failures returned as a single error value.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Err returns the accumulated failures as an error, or nil when there are none.
func (c *Collector) Err() error {
	if !c.HasErrors() {
		return nil
	}
	return Errors(c.errors)
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateFinite returns an error for NaN and infinite values.
func ValidateFinite(field string, value float64) *ValidationError {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{
			Field:   field,
			Message: "must be a finite number",
		}
	}
	return nil
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if math.IsNaN(value) || value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %.1f and %.1f", min, max),
		}
	}
	return nil
}

// ValidateNonNegative returns an error if the value is below zero.
func ValidateNonNegative(field string, value int64) *ValidationError {
	if value < 0 {
		return &ValidationError{
			Field:   field,
			Message: "must be greater than or equal to 0",
		}
	}
	return nil
}

// ValidateULID returns an error if the value is not a valid ULID format.
// ULIDs are 26 characters using Crockford Base32 (excludes I, L, O, U).
func ValidateULID(field, value string) *ValidationError {
	if len(value) != 26 {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	}

	const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	for _, r := range value {
		upper := strings.ToUpper(string(r))
		if !strings.Contains(crockfordBase32, upper) {
			return &ValidationError{
				Field:   field,
				Message: "must be a valid ULID (invalid character)",
			}
		}
	}
	return nil
}

func validateName(c *Collector, name string) {
	c.Add(ValidateRequired("name", name))
	c.Add(ValidateUTF8("name", name))
	c.Add(ValidateNoNullBytes("name", name))
	c.Add(ValidateMaxLength("name", name, MaxSystemNameLength))
}

func validateDescription(c *Collector, description string) {
	c.Add(ValidateUTF8("description", description))
	c.Add(ValidateNoNullBytes("description", description))
}

func validatePH(c *Collector, ph float64) {
	if err := ValidateFinite("ph", ph); err != nil {
		c.Add(err)
		return
	}
	c.Add(ValidateRange("ph", ph, MinPH, MaxPH))
}

// ValidateNewSystem validates every field of a System creation request.
func ValidateNewSystem(s types.NewSystem) error {
	var c Collector
	validateName(&c, s.Name)
	validateDescription(&c, s.Description)
	return c.Err()
}

// ValidateSystemPatch validates only the fields present in the patch.
func ValidateSystemPatch(p types.SystemPatch) error {
	var c Collector
	if p.Name != nil {
		validateName(&c, *p.Name)
	}
	if p.Description != nil {
		validateDescription(&c, *p.Description)
	}
	return c.Err()
}

// ValidateNewMeasurement validates the measured values of a new Measurement.
// The system reference is checked by the ownership guard, not here.
func ValidateNewMeasurement(m types.NewMeasurement) error {
	var c Collector
	validatePH(&c, m.PH)
	c.Add(ValidateNonNegative("tds", m.TDS))
	c.Add(ValidateFinite("water_temperature", m.WaterTemperature))
	return c.Err()
}

// ValidateMeasurementPatch validates only the measured values present in the patch.
func ValidateMeasurementPatch(p types.MeasurementPatch) error {
	var c Collector
	if p.PH != nil {
		validatePH(&c, *p.PH)
	}
	if p.TDS != nil {
		c.Add(ValidateNonNegative("tds", *p.TDS))
	}
	if p.WaterTemperature != nil {
		c.Add(ValidateFinite("water_temperature", *p.WaterTemperature))
	}
	return c.Err()
}
