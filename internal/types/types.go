package types

import (
	"time"
)

// Identity is the authenticated principal a System belongs to.
type Identity string

// System is a hydroponic installation registered by an owner.
type System struct {
	ID          string    `json:"id"`
	Owner       Identity  `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Measurement is a single water-quality reading taken on a System.
type Measurement struct {
	ID               string    `json:"id"`
	SystemID         string    `json:"-"`
	PH               float64   `json:"ph"`
	TDS              int64     `json:"tds"`
	WaterTemperature float64   `json:"water_temperature"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewSystem is the input type for creating a System (without generated fields).
type NewSystem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SystemPatch carries the System fields present in an update request.
// Nil fields are left untouched.
type SystemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SystemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}

// NewMeasurement is the input type for recording a Measurement.
type NewMeasurement struct {
	SystemID         string  `json:"system"`
	PH               float64 `json:"ph"`
	TDS              int64   `json:"tds"`
	WaterTemperature float64 `json:"water_temperature"`
}

// MeasurementPatch carries the Measurement fields present in an update request.
type MeasurementPatch struct {
	SystemID         *string  `json:"system,omitempty"`
	PH               *float64 `json:"ph,omitempty"`
	TDS              *int64   `json:"tds,omitempty"`
	WaterTemperature *float64 `json:"water_temperature,omitempty"`
}

// Empty reports whether the patch changes none of the measured values.
func (p MeasurementPatch) Empty() bool {
	return p.PH == nil && p.TDS == nil && p.WaterTemperature == nil
}

// SystemView is the read representation of a System: its attributes plus
// the newest measurements and the total measurement count.
type SystemView struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Owner              Identity      `json:"owner"`
	LatestMeasurements []Measurement `json:"latest_measurements"`
	MeasurementCount   int64         `json:"measurement_count"`
}

// Page is the pagination envelope returned by list endpoints.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// StoreStats holds global record counts.
type StoreStats struct {
	SystemCount      int64 `json:"system_count"`
	MeasurementCount int64 `json:"measurement_count"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	SchemaVersion    int64  `json:"schema_version"`
	SystemCount      int64  `json:"system_count"`
	MeasurementCount int64  `json:"measurement_count"`
}
