package auth

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeUserStore is an in-memory UserStore shared by the auth package tests.
// Mutating patches go through the same upsert semantics as the real store.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*User

	byTokenCalls int
	tokenErr     error
	updateErr    error
}

func newFakeUserStore(users ...*User) *fakeUserStore {
	f := &fakeUserStore{users: map[primitive.ObjectID]*User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) All(ctx context.Context) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) ByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserStore) ByEmail(ctx context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) ByToken(ctx context.Context, token string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byTokenCalls++
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	for _, u := range f.users {
		if u.AuthToken != nil && *u.AuthToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Insert(ctx context.Context, u *User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	f.users[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeUserStore) UpdateByID(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		u = &User{ID: id}
		f.users[id] = u
		applyUserFields(u, fields)
		return &mongo.UpdateResult{UpsertedCount: 1, UpsertedID: id}, nil
	}
	applyUserFields(u, fields)
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func applyUserFields(u *User, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "username":
			u.Username, _ = v.(string)
		case "email":
			u.Email, _ = v.(string)
		case "password":
			u.Password, _ = v.(string)
		case "role":
			u.Role, _ = v.(string)
		case "authToken":
			if v == nil {
				u.AuthToken = nil
			} else if s, ok := v.(string); ok {
				u.AuthToken = &s
			}
		case "lastLogin":
			if t, ok := v.(time.Time); ok {
				u.LastLogin = &t
			}
		case "lastAccess":
			if t, ok := v.(time.Time); ok {
				u.LastAccess = &t
			}
		}
	}
}

func (f *fakeUserStore) UpdateRoleCreatedBetween(ctx context.Context, start, end time.Time, newRole string, excludedRoles []string) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[string]struct{}, len(excludedRoles))
	for _, r := range excludedRoles {
		excluded[r] = struct{}{}
	}
	res := &mongo.UpdateResult{}
	for _, u := range f.users {
		if u.CreatedAt.Before(start) || u.CreatedAt.After(end) {
			continue
		}
		if _, skip := excluded[u.Role]; skip {
			continue
		}
		res.MatchedCount++
		if u.Role != newRole {
			u.Role = newRole
			res.ModifiedCount++
		}
	}
	return res, nil
}

func (f *fakeUserStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(f.users, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeUserStore) DeleteByRoleLastLogin(ctx context.Context, role string, start, end time.Time) (*mongo.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &mongo.DeleteResult{}
	for id, u := range f.users {
		if u.Role != role || u.LastLogin == nil {
			continue
		}
		if u.LastLogin.Before(start) || u.LastLogin.After(end) {
			continue
		}
		delete(f.users, id)
		res.DeletedCount++
	}
	return res, nil
}
