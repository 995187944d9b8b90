// Package readings implements the weather reading catalog: CRUD with
// pagination, the time-windowed aggregation queries and the narrow
// precipitation patch.
package readings

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/timeparse"
)

// Reading represents a weather reading document. The bson/json keys are the
// exact keys the station firmware writes and the aggregation pipelines match
// on, units and all, so they must not be renamed.
type Reading struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	DeviceName          string             `bson:"Device Name" json:"Device Name"`
	Precipitation       float64            `bson:"Precipitation mm/h" json:"Precipitation mm/h"`
	Time                time.Time          `bson:"Time" json:"Time"`
	Latitude            float64            `bson:"Latitude" json:"Latitude"`
	Longitude           float64            `bson:"Longitude" json:"Longitude"`
	Temperature         float64            `bson:"Temperature (°C)" json:"Temperature (°C)"`
	AtmosphericPressure float64            `bson:"Atmospheric Pressure (kPa)" json:"Atmospheric Pressure (kPa)"`
	MaxWindSpeed        float64            `bson:"Max Wind Speed (m/s)" json:"Max Wind Speed (m/s)"`
	SolarRadiation      float64            `bson:"Solar Radiation (W/m2)" json:"Solar Radiation (W/m2)"`
	VaporPressure       float64            `bson:"Vapor Pressure (kPa)" json:"Vapor Pressure (kPa)"`
	Humidity            float64            `bson:"Humidity (%)" json:"Humidity (%)"`
	WindDirection       float64            `bson:"Wind Direction (°)" json:"Wind Direction (°)"`
}

// ArchivedReading is a deleted reading as stored in the log collection.
type ArchivedReading struct {
	Reading     `bson:",inline"`
	DeletedDate time.Time `bson:"deletedDate" json:"deletedDate"`
}

// Float is a float64 that additionally accepts quoted numeric strings in
// JSON, so a station may send "3.5" and it still lands as the number 3.5.
type Float float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return err
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// NewReading constructs a Reading from an input payload, coercing every
// measurement to float64 and the identity to an ObjectID. A missing id
// generates a fresh one; a malformed id hex string fails construction.
func NewReading(in ReadingInput) (*Reading, error) {
	id := primitive.NewObjectID()
	if in.ID != "" {
		var err error
		id, err = primitive.ObjectIDFromHex(in.ID)
		if err != nil {
			return nil, apperror.NewValidationError("Invalid reading ID: must be in ObjectId format.", err)
		}
	}

	t, err := timeparse.Parse(in.Time)
	if err != nil {
		return nil, apperror.NewValidationError("Invalid reading time.", err)
	}

	return &Reading{
		ID:                  id,
		DeviceName:          in.DeviceName,
		Precipitation:       float64(in.Precipitation),
		Time:                t,
		Latitude:            float64(in.Latitude),
		Longitude:           float64(in.Longitude),
		Temperature:         float64(in.Temperature),
		AtmosphericPressure: float64(in.AtmosphericPressure),
		MaxWindSpeed:        float64(in.MaxWindSpeed),
		SolarRadiation:      float64(in.SolarRadiation),
		VaporPressure:       float64(in.VaporPressure),
		Humidity:            float64(in.Humidity),
		WindDirection:       float64(in.WindDirection),
	}, nil
}
