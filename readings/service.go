package readings

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/timeparse"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	// trailingWindowMonths is the size of the rolling window for the
	// max-precipitation query, in calendar months.
	trailingWindowMonths = 5
)

// Service implements the reading catalog operations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a catalog Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// parsePage parses a page/limit query value, falling back to def when the
// value is absent, unparsable or zero, the way a falsy query value would.
// Negative and oversized values pass through untouched; there is deliberately
// no bound validation beyond that.
func parsePage(raw string, def int64) int64 {
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n == 0 {
		return def
	}
	return n
}

// totalPagesCeil computes ceil(total/limit) the way the API reports page
// counts for store-level pagination.
func totalPagesCeil(total, limit int64) int64 {
	return int64(math.Ceil(float64(total) / float64(limit)))
}

// totalPagesRound computes round(total/limit). Only the point-in-time lookup
// uses round-to-nearest instead of ceiling; the discrepancy is preserved
// behavior, pinned by tests.
func totalPagesRound(total, limit int64) int64 {
	return int64(math.Round(float64(total) / float64(limit)))
}

// sliceWindow clamps an in-memory pagination window to [0, n], resolving
// negative offsets from the end of the slice the way a JSON array slice
// would.
func sliceWindow(n int, start, end int) (int, int) {
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	if end < start {
		end = start
	}
	return start, end
}

// hourBucketUTC returns the one-hour window containing t: the top of t's hour
// in UTC through one hour later. Both bounds are used inclusively.
func hourBucketUTC(t time.Time) (time.Time, time.Time) {
	start := t.UTC().Truncate(time.Hour)
	return start, start.Add(time.Hour)
}

// dayBoundsLocal widens a caller-supplied date range to whole local days:
// 00:00:00.000 on the start date through 23:59:59.999 on the end date. The
// trailing-window query does not snap like this; only the explicit-range
// temperature query does.
func dayBoundsLocal(start, end time.Time) (time.Time, time.Time) {
	s := start.Local()
	e := end.Local()
	lo := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.Local)
	hi := time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 999*int(time.Millisecond), time.Local)
	return lo, hi
}

// List returns one page of all readings plus the total page count.
func (s *Service) List(ctx context.Context, pageRaw, limitRaw string) ([]Reading, int64, error) {
	page := parsePage(pageRaw, defaultPage)
	limit := parsePage(limitRaw, defaultLimit)
	skip := (page - 1) * limit

	readings, total, err := s.store.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("Failed to get all weather data readings", err)
	}
	return readings, totalPagesCeil(total, limit), nil
}

// ListByDevice returns one page of a device's readings, newest first. An
// empty page is a 404, not an empty 200.
func (s *Service) ListByDevice(ctx context.Context, deviceName, pageRaw, limitRaw string) ([]Reading, int64, error) {
	if deviceName == "" {
		return nil, 0, apperror.NewValidationError("Device Name is required. Please provide a device name.", nil)
	}

	page := parsePage(pageRaw, defaultPage)
	limit := parsePage(limitRaw, defaultLimit)
	skip := (page - 1) * limit

	readings, total, err := s.store.ListByDevice(ctx, deviceName, skip, limit)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("Failed to retrieve weather data.", err)
	}
	if len(readings) == 0 {
		return nil, 0, apperror.NewNotFoundError("No weather data found for the specified device name.", nil)
	}
	return readings, totalPagesCeil(total, limit), nil
}

// GetByID returns a single reading by its hex ObjectID.
func (s *Service) GetByID(ctx context.Context, idHex string) (*Reading, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, apperror.NewValidationError("Invalid reading ID: must be in ObjectId format.", err)
	}

	reading, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("Error retrieving the Weather Reading.", err)
	}
	if reading == nil {
		return nil, apperror.NewNotFoundError("The requested reading does not exist.", nil)
	}
	return reading, nil
}

// Insert constructs and persists a single reading.
func (s *Service) Insert(ctx context.Context, in ReadingInput) (*Reading, error) {
	reading, err := NewReading(in)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Insert(ctx, reading)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to add the new reading to the database.", err)
	}
	reading.ID = id
	return reading, nil
}

// InsertMany constructs and persists a batch of readings for a single
// station. Construction happens item by item before anything is written; the
// first malformed item aborts the whole batch with no partial success.
func (s *Service) InsertMany(ctx context.Context, ins []ReadingInput) ([]primitive.ObjectID, error) {
	rs := make([]*Reading, len(ins))
	for i, in := range ins {
		r, err := NewReading(in)
		if err != nil {
			return nil, err
		}
		rs[i] = r
	}

	ids, err := s.store.InsertMany(ctx, rs)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to add multiple readings to the database.", err)
	}
	return ids, nil
}

// MaxPrecipitation finds the maximum precipitation recorded for the device in
// the trailing five-month window. When the window is empty the error message
// reports the device's last recorded date, or "Unknown" if it has none.
func (s *Service) MaxPrecipitation(ctx context.Context, deviceName string) ([]MaxPrecipitationRow, error) {
	if deviceName == "" {
		return nil, apperror.NewValidationError("Device name is required.", nil)
	}

	now := s.now()
	from := now.AddDate(0, -trailingWindowMonths, 0)

	rows, err := s.store.MaxPrecipitationBetween(ctx, deviceName, from, now)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to retrieve maximum precipitation data.", err)
	}

	if len(rows) == 0 {
		last, err := s.store.LastRecordedTime(ctx, deviceName)
		if err != nil {
			return nil, apperror.NewDatabaseError("Failed to retrieve maximum precipitation data.", err)
		}
		lastStr := "Unknown"
		if last != nil {
			lastStr = last.Format(time.RFC3339)
		}
		return nil, apperror.NewNotFoundError(fmt.Sprintf(
			"No data recorded in the last 5 months for device: %s. Last recorded date: %s",
			deviceName, lastStr,
		), nil)
	}
	return rows, nil
}

// ReadingsAt returns the device's readings inside the one-hour bucket
// containing dateTime, ascending by time and narrowed to the point
// projection. Pagination slices the already-fetched result set in memory.
func (s *Service) ReadingsAt(ctx context.Context, deviceName, dateTime, pageRaw, limitRaw string) ([]WeatherDataPoint, int64, error) {
	if deviceName == "" || dateTime == "" {
		return nil, 0, apperror.NewValidationError("Device name and date/time are required.", nil)
	}

	at, err := timeparse.Parse(dateTime)
	if err != nil {
		return nil, 0, apperror.NewValidationError("Device name and date/time are required.", err)
	}

	page := parsePage(pageRaw, defaultPage)
	limit := parsePage(limitRaw, defaultLimit)

	from, to := hourBucketUTC(at)
	rows, err := s.store.FindByDeviceBetween(ctx, deviceName, from, to)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("Failed to retrieve weather data.", err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })

	points := make([]WeatherDataPoint, len(rows))
	for i, r := range rows {
		points[i] = WeatherDataPoint{
			DeviceName:          r.DeviceName,
			Time:                r.Time,
			Temperature:         r.Temperature,
			AtmosphericPressure: r.AtmosphericPressure,
			SolarRadiation:      r.SolarRadiation,
			Precipitation:       r.Precipitation,
		}
	}

	// Page count comes from the full result set, before slicing, and uses
	// round-to-nearest.
	totalPages := totalPagesRound(int64(len(points)), limit)

	if len(points) == 0 {
		return nil, 0, apperror.NewNotFoundError("Weather data could not be found. Data may not recorded at that station or date/time.", nil)
	}

	lo, hi := sliceWindow(len(points), int((page-1)*limit), int(page*limit))
	return points[lo:hi], totalPages, nil
}

// MaxTemperature finds the maximum temperature per device over an explicit
// date range, widened to whole local days.
func (s *Service) MaxTemperature(ctx context.Context, startDate, endDate string) ([]MaxTemperatureRow, error) {
	if startDate == "" || endDate == "" {
		return nil, apperror.NewValidationError("Start date and end date are required.", nil)
	}

	start, err := timeparse.Parse(startDate)
	if err != nil {
		return nil, apperror.NewValidationError("Start date and end date are required.", err)
	}
	end, err := timeparse.Parse(endDate)
	if err != nil {
		return nil, apperror.NewValidationError("Start date and end date are required.", err)
	}

	from, to := dayBoundsLocal(start, end)
	rows, err := s.store.MaxTemperatureBetween(ctx, from, to)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to retrieve maximum temperatures.", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFoundError("No data found for the specified date/time range.", nil)
	}
	return rows, nil
}

// UpdatePrecipitation overwrites a reading's precipitation value and reports
// the previous value alongside the new one. The read and the write are two
// separate store calls; a concurrent writer can slip between them, which is
// accepted.
func (s *Service) UpdatePrecipitation(ctx context.Context, req UpdatePrecipitationRequest) (*PrecipitationUpdate, error) {
	if req.ID == "" || req.NewPrecipitation == nil {
		return nil, apperror.NewValidationError("ID and new precipitation value are required.", nil)
	}

	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		return nil, apperror.NewValidationError("ID and new precipitation value are required.", err)
	}

	existing, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to update precipitation value.", err)
	}
	if existing == nil {
		return nil, apperror.NewNotFoundError("Weather data entry not found.", nil)
	}

	res, err := s.store.SetPrecipitation(ctx, id, *req.NewPrecipitation)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to update precipitation value.", err)
	}

	return &PrecipitationUpdate{
		PreviousValue: existing.Precipitation,
		UpdatedValue:  *req.NewPrecipitation,
		Data:          res,
	}, nil
}

// Delete archives a reading into the log collection, then removes it. A
// failed archive aborts the delete so no row disappears without its audit
// copy.
func (s *Service) Delete(ctx context.Context, idHex string) (*mongo.DeleteResult, error) {
	if idHex == "" {
		return nil, apperror.NewValidationError("Invalid weatherDataId format.", nil)
	}

	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, apperror.NewValidationError("Invalid weatherDataId format.", err)
	}

	reading, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to delete weather data.", err)
	}
	if reading == nil {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("No weather data found with id %s", idHex), nil)
	}

	if err := s.store.Archive(ctx, reading); err != nil {
		return nil, apperror.NewDatabaseError("Failed to delete weather data.", err)
	}

	res, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to delete weather data.", err)
	}
	return res, nil
}
