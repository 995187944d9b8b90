package readings

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFloatUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Float
		wantErr bool
	}{
		{name: "plain number", raw: `3.5`, want: 3.5},
		{name: "quoted number", raw: `"3.5"`, want: 3.5},
		{name: "quoted integer", raw: `"42"`, want: 42},
		{name: "quoted with whitespace", raw: `" 1.25 "`, want: 1.25},
		{name: "negative", raw: `-0.5`, want: -0.5},
		{name: "non-numeric string", raw: `"heavy"`, wantErr: true},
		{name: "object", raw: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Float
			err := json.Unmarshal([]byte(tt.raw), &f)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestNewReading(t *testing.T) {
	in := ReadingInput{
		DeviceName:    "Woodford_Sensor",
		Time:          "2024-03-14T10:30:00Z",
		Precipitation: 0.085,
		Temperature:   22.7,
		Humidity:      73.8,
	}

	r, err := NewReading(in)
	require.NoError(t, err)

	assert.False(t, r.ID.IsZero(), "missing id should be generated")
	assert.Equal(t, "Woodford_Sensor", r.DeviceName)
	assert.Equal(t, 0.085, r.Precipitation)
	assert.Equal(t, 22.7, r.Temperature)
	assert.True(t, r.Time.Equal(time.Date(2024, 3, 14, 10, 30, 0, 0, time.UTC)))
}

func TestNewReadingKeepsProvidedID(t *testing.T) {
	id := primitive.NewObjectID()
	r, err := NewReading(ReadingInput{
		ID:         id.Hex(),
		DeviceName: "Woodford_Sensor",
		Time:       "2024-03-14",
	})
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
}

func TestNewReadingRejectsBadInput(t *testing.T) {
	t.Run("malformed id", func(t *testing.T) {
		_, err := NewReading(ReadingInput{
			ID:         "not-an-objectid",
			DeviceName: "Woodford_Sensor",
			Time:       "2024-03-14",
		})
		assert.Error(t, err)
	})

	t.Run("unparsable time", func(t *testing.T) {
		_, err := NewReading(ReadingInput{
			DeviceName: "Woodford_Sensor",
			Time:       "yesterday-ish",
		})
		assert.Error(t, err)
	})
}

func TestReadingJSONKeys(t *testing.T) {
	r := Reading{
		DeviceName:    "Yandina_Sensor",
		Precipitation: 0.1,
		Temperature:   23.1,
		Humidity:      71.5,
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &doc))

	assert.Contains(t, doc, "Device Name")
	assert.Contains(t, doc, "Precipitation mm/h")
	assert.Contains(t, doc, "Temperature (°C)")
	assert.Contains(t, doc, "Humidity (%)")
}
