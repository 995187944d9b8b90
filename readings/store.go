package readings

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxPrecipitationRow is one group from the trailing-window precipitation
// aggregation. ReadingDateTime and ID come from the $last accumulator, which
// is the last document encountered in the group, not the one holding the
// maximum. That mismatch is part of the contract.
type MaxPrecipitationRow struct {
	ID               primitive.ObjectID `bson:"_id" json:"_id"`
	DeviceName       string             `bson:"deviceName" json:"deviceName"`
	ReadingDateTime  time.Time          `bson:"readingDateTime" json:"readingDateTime"`
	MaxPrecipitation float64            `bson:"maxPrecipitation" json:"maxPrecipitation"`
}

// MaxTemperatureRow is one group from the explicit-range temperature
// aggregation. ReadingDateTime is the $first document's timestamp, again not
// the argmax.
type MaxTemperatureRow struct {
	DeviceName      string    `bson:"DeviceName" json:"DeviceName"`
	ReadingDateTime time.Time `bson:"ReadingDateTime" json:"ReadingDateTime"`
	MaxTemperature  float64   `bson:"MaxTemperature" json:"MaxTemperature"`
}

// Store is the persistence contract for weather readings. ByID returns
// (nil, nil) on a miss.
type Store interface {
	// List returns one page of readings in natural order plus the total
	// count of the collection. Skip and limit are passed through to the
	// store unvalidated.
	List(ctx context.Context, skip, limit int64) ([]Reading, int64, error)
	// ListByDevice is List filtered to an exact device name and sorted by
	// time descending.
	ListByDevice(ctx context.Context, deviceName string, skip, limit int64) ([]Reading, int64, error)
	ByID(ctx context.Context, id primitive.ObjectID) (*Reading, error)
	Insert(ctx context.Context, r *Reading) (primitive.ObjectID, error)
	InsertMany(ctx context.Context, rs []*Reading) ([]primitive.ObjectID, error)
	// MaxPrecipitationBetween groups readings of the device with Time in
	// [from, to] inclusive and returns max precipitation per device.
	MaxPrecipitationBetween(ctx context.Context, deviceName string, from, to time.Time) ([]MaxPrecipitationRow, error)
	// LastRecordedTime returns the newest reading timestamp for the device
	// regardless of any window, or nil when the device has no readings.
	LastRecordedTime(ctx context.Context, deviceName string) (*time.Time, error)
	// FindByDeviceBetween returns all readings of the device with Time in
	// [from, to] inclusive, in store order.
	FindByDeviceBetween(ctx context.Context, deviceName string, from, to time.Time) ([]Reading, error)
	// MaxTemperatureBetween groups all readings with Time in [from, to]
	// inclusive by device and returns max temperature per device.
	MaxTemperatureBetween(ctx context.Context, from, to time.Time) ([]MaxTemperatureRow, error)
	// SetPrecipitation overwrites only the precipitation field.
	SetPrecipitation(ctx context.Context, id primitive.ObjectID, value float64) (*mongo.UpdateResult, error)
	// Archive copies a reading into the audit log collection, stamped with
	// the deletion time.
	Archive(ctx context.Context, r *Reading) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
}

// Document keys used in filters and pipelines.
const (
	fieldDeviceName    = "Device Name"
	fieldTime          = "Time"
	fieldPrecipitation = "Precipitation mm/h"
	fieldTemperature   = "Temperature (°C)"
)

// MongoStore implements Store over the WeatherData collection, with deleted
// rows archived into the log collection.
type MongoStore struct {
	col *mongo.Collection
	log *mongo.Collection
	now func() time.Time
}

// NewMongoStore creates a MongoStore bound to db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		col: db.Collection("WeatherData"),
		log: db.Collection("log"),
		now: time.Now,
	}
}

func (s *MongoStore) List(ctx context.Context, skip, limit int64) ([]Reading, int64, error) {
	total, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSkip(skip).SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	var readings []Reading
	if err := cur.All(ctx, &readings); err != nil {
		return nil, 0, err
	}
	return readings, total, nil
}

func (s *MongoStore) ListByDevice(ctx context.Context, deviceName string, skip, limit int64) ([]Reading, int64, error) {
	filter := bson.M{fieldDeviceName: deviceName}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cur, err := s.col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: fieldTime, Value: -1}}).
		SetSkip(skip).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	var readings []Reading
	if err := cur.All(ctx, &readings); err != nil {
		return nil, 0, err
	}
	return readings, total, nil
}

func (s *MongoStore) ByID(ctx context.Context, id primitive.ObjectID) (*Reading, error) {
	var r Reading
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) Insert(ctx context.Context, r *Reading) (primitive.ObjectID, error) {
	res, err := s.col.InsertOne(ctx, r)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (s *MongoStore) InsertMany(ctx context.Context, rs []*Reading) ([]primitive.ObjectID, error) {
	docs := make([]interface{}, len(rs))
	for i, r := range rs {
		docs[i] = r
	}
	res, err := s.col.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(res.InsertedIDs))
	for _, raw := range res.InsertedIDs {
		if id, ok := raw.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MongoStore) MaxPrecipitationBetween(ctx context.Context, deviceName string, from, to time.Time) ([]MaxPrecipitationRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			fieldDeviceName: deviceName,
			fieldTime:       bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":              "$" + fieldDeviceName,
			"maxPrecipitation": bson.M{"$max": "$" + fieldPrecipitation},
			"readingDateTime":  bson.M{"$last": "$" + fieldTime},
			"documentId":       bson.M{"$last": "$_id"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":              "$documentId",
			"deviceName":       "$_id",
			"readingDateTime":  1,
			"maxPrecipitation": 1,
		}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []MaxPrecipitationRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoStore) LastRecordedTime(ctx context.Context, deviceName string) (*time.Time, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{fieldDeviceName: deviceName}}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"lastRecordedDate": bson.M{"$max": "$" + fieldTime},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":              0,
			"lastRecordedDate": 1,
		}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		LastRecordedDate time.Time `bson:"lastRecordedDate"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].LastRecordedDate, nil
}

func (s *MongoStore) FindByDeviceBetween(ctx context.Context, deviceName string, from, to time.Time) ([]Reading, error) {
	cur, err := s.col.Find(ctx, bson.M{
		fieldDeviceName: deviceName,
		fieldTime:       bson.M{"$gte": from, "$lte": to},
	})
	if err != nil {
		return nil, err
	}
	var readings []Reading
	if err := cur.All(ctx, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *MongoStore) MaxTemperatureBetween(ctx context.Context, from, to time.Time) ([]MaxTemperatureRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			fieldTime: bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":             "$" + fieldDeviceName,
			"MaxTemperature":  bson.M{"$max": "$" + fieldTemperature},
			"ReadingDateTime": bson.M{"$first": "$" + fieldTime},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":             0,
			"DeviceName":      "$_id",
			"ReadingDateTime": 1,
			"MaxTemperature":  1,
		}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []MaxTemperatureRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoStore) SetPrecipitation(ctx context.Context, id primitive.ObjectID, value float64) (*mongo.UpdateResult, error) {
	return s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{fieldPrecipitation: value}},
	)
}

func (s *MongoStore) Archive(ctx context.Context, r *Reading) error {
	_, err := s.log.InsertOne(ctx, ArchivedReading{
		Reading:     *r,
		DeletedDate: s.now(),
	})
	return err
}

func (s *MongoStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	return s.col.DeleteOne(ctx, bson.M{"_id": id})
}
