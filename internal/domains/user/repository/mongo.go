package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/internal/infrastructure/database"
)

// userDocument là shape lưu trong collection "users"
type userDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	GoogleID        string             `bson:"googleId"`
	Email           string             `bson:"email,omitempty"`
	Name            string             `bson:"name"`
	Picture         string             `bson:"picture,omitempty"`
	PreferredLocale string             `bson:"preferredLocale"`
	Genres          []string           `bson:"genres"`
	BooksSorting    []user.SortClause  `bson:"booksSorting"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d userDocument) toUser() *user.User {
	u := &user.User{
		ID:              d.ID.Hex(),
		GoogleID:        d.GoogleID,
		Email:           d.Email,
		Name:            d.Name,
		Picture:         d.Picture,
		PreferredLocale: user.Locale(d.PreferredLocale),
		Genres:          d.Genres,
		BooksSorting:    d.BooksSorting,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	if u.Genres == nil {
		u.Genres = []string{}
	}
	return u
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) user.Repository {
	return &mongoRepository{coll: db.Collection(database.UsersCollection)}
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrUserNotFound
	}

	var doc userDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return doc.toUser(), nil
}

// UpsertByGoogleID: $set cho identity, $setOnInsert cho preferences mặc định
func (r *mongoRepository) UpsertByGoogleID(ctx context.Context, identity user.Identity) (*user.User, error) {
	fresh := user.NewUser(identity)
	now := time.Now().UTC().Truncate(time.Millisecond)

	update := bson.M{
		"$set": bson.M{
			"email":     fresh.Email,
			"name":      fresh.Name,
			"picture":   fresh.Picture,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"googleId":        fresh.GoogleID,
			"preferredLocale": string(fresh.PreferredLocale),
			"genres":          fresh.Genres,
			"booksSorting":    fresh.BooksSorting,
			"createdAt":       now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"googleId": identity.GoogleID}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *mongoRepository) update(ctx context.Context, id string, set bson.M) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrUserNotFound
	}

	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *mongoRepository) UpdatePreferences(ctx context.Context, id string, update user.PreferencesUpdate) (*user.User, error) {
	set := bson.M{}
	if update.PreferredLocale != nil {
		set["preferredLocale"] = string(*update.PreferredLocale)
	}
	if update.SetBooksSorting {
		set["booksSorting"] = update.BooksSorting
	}
	return r.update(ctx, id, set)
}

func (r *mongoRepository) UpdateGenres(ctx context.Context, id string, genres []string) (*user.User, error) {
	return r.update(ctx, id, bson.M{"genres": genres})
}
