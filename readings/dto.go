package readings

import "time"

// ReadingInput is the camelCase insert payload for a single reading. The
// measurement fields use Float so both JSON numbers and numeric strings are
// accepted.
type ReadingInput struct {
	ID                  string `json:"_id,omitempty"`
	DeviceName          string `json:"deviceName" validate:"required"`
	Precipitation       Float  `json:"precipitation"`
	Time                string `json:"time" validate:"required"`
	Latitude            Float  `json:"latitude"`
	Longitude           Float  `json:"longitude"`
	Temperature         Float  `json:"temperature"`
	AtmosphericPressure Float  `json:"atmosphericPressure"`
	MaxWindSpeed        Float  `json:"maxWindSpeed"`
	SolarRadiation      Float  `json:"solarRadiation"`
	VaporPressure       Float  `json:"vaporPressure"`
	Humidity            Float  `json:"humidity"`
	WindDirection       Float  `json:"windDirection"`
}

// UpdatePrecipitationRequest is the payload for
// PATCH /weather-reading/update-precipitation.
type UpdatePrecipitationRequest struct {
	ID               string   `json:"_id"`
	NewPrecipitation *float64 `json:"newPrecipitation"`
}

// DeleteReadingRequest is the payload for DELETE /weather-reading/delete.
type DeleteReadingRequest struct {
	WeatherDataID string `json:"weatherDataId"`
}

// WeatherDataPoint is the narrowed projection returned by the point-in-time
// lookup.
type WeatherDataPoint struct {
	DeviceName          string    `json:"DeviceName"`
	Time                time.Time `json:"Time"`
	Temperature         float64   `json:"Temperature"`
	AtmosphericPressure float64   `json:"AtmosphericPressure"`
	SolarRadiation      float64   `json:"SolarRadiation"`
	Precipitation       float64   `json:"Precipitation"`
}

// PrecipitationUpdate reports a precipitation patch: the value before, the
// value written, and the raw update acknowledgement.
type PrecipitationUpdate struct {
	PreviousValue float64     `json:"PreviousValue"`
	UpdatedValue  float64     `json:"UpdatedValue"`
	Data          interface{} `json:"Data"`
}
