package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore is the persistence contract for user records. The By* finders
// return (nil, nil) when no document matches, so callers decide whether a
// miss is a 401, a 404 or a pass-through.
type UserStore interface {
	All(ctx context.Context) ([]User, error)
	ByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByToken(ctx context.Context, token string) (*User, error)
	Insert(ctx context.Context, u *User) (primitive.ObjectID, error)
	// UpdateByID applies fields as a partial $set patch with upsert
	// semantics: an unknown id inserts a new document carrying the patch
	// instead of failing. Deliberate, and relied upon by login and logout.
	UpdateByID(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*mongo.UpdateResult, error)
	// UpdateRoleCreatedBetween reassigns the role of every user created in
	// [start, end] (inclusive) whose current role is not in excludedRoles.
	UpdateRoleCreatedBetween(ctx context.Context, start, end time.Time, newRole string, excludedRoles []string) (*mongo.UpdateResult, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
	// DeleteByRoleLastLogin removes every user with the given role whose
	// lastLogin falls in [start, end] inclusive.
	DeleteByRoleLastLogin(ctx context.Context, role string, start, end time.Time) (*mongo.DeleteResult, error)
}

// MongoUserStore implements UserStore over the users collection.
type MongoUserStore struct {
	col *mongo.Collection
}

// NewMongoUserStore creates a MongoUserStore bound to db's users collection.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users")}
}

func (s *MongoUserStore) All(ctx context.Context) ([]User, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var users []User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoUserStore) ByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) ByToken(ctx context.Context, token string) (*User, error) {
	return s.findOne(ctx, bson.M{"authToken": token})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	err := s.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoUserStore) Insert(ctx context.Context, u *User) (primitive.ObjectID, error) {
	res, err := s.col.InsertOne(ctx, u)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (s *MongoUserStore) UpdateByID(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*mongo.UpdateResult, error) {
	return s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true),
	)
}

func (s *MongoUserStore) UpdateRoleCreatedBetween(ctx context.Context, start, end time.Time, newRole string, excludedRoles []string) (*mongo.UpdateResult, error) {
	return s.col.UpdateMany(ctx,
		bson.M{
			"createdAt": bson.M{"$gte": start, "$lte": end},
			"role":      bson.M{"$nin": excludedRoles},
		},
		bson.M{"$set": bson.M{"role": newRole}},
	)
}

func (s *MongoUserStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	return s.col.DeleteOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) DeleteByRoleLastLogin(ctx context.Context, role string, start, end time.Time) (*mongo.DeleteResult, error) {
	return s.col.DeleteMany(ctx, bson.M{
		"role":      role,
		"lastLogin": bson.M{"$gte": start, "$lte": end},
	})
}
