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

	"bookshelf-backend/internal/domains/book"
	"bookshelf-backend/internal/infrastructure/database"
)

// bookDocument là shape lưu trong collection "books"
type bookDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       primitive.ObjectID `bson:"userId"`
	Index        float64            `bson:"index"`
	Title        string             `bson:"title"`
	Author       string             `bson:"author,omitempty"`
	CoverURL     string             `bson:"coverUrl,omitempty"`
	Status       string             `bson:"status"`
	Downloaded   bool               `bson:"downloaded"`
	Rating       float64            `bson:"rating"`
	Date         string             `bson:"date,omitempty"`
	FinishedDate *time.Time         `bson:"finishedDate"`
	Genre        string             `bson:"genre,omitempty"`
	Language     string             `bson:"language,omitempty"`
	Comment      string             `bson:"comment,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d bookDocument) toBook() book.Book {
	b := book.Book{
		ID:         d.ID.Hex(),
		UserID:     d.UserID.Hex(),
		Index:      d.Index,
		Title:      d.Title,
		Author:     d.Author,
		CoverURL:   d.CoverURL,
		Status:     book.Status(d.Status),
		Downloaded: d.Downloaded,
		Rating:     d.Rating,
		Date:       d.Date,
		Genre:      d.Genre,
		Language:   d.Language,
		Comment:    d.Comment,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
	if d.FinishedDate != nil {
		t := d.FinishedDate.UTC()
		b.FinishedDate = &t
	}
	return b
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) book.Repository {
	return &mongoRepository{coll: db.Collection(database.BooksCollection)}
}

// ownerFilter build {_id, userId}; id sai format → ErrBookNotFound
func ownerFilter(id, userID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, book.ErrBookNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, book.ErrBookNotFound
	}
	return bson.M{"_id": oid, "userId": uid}, nil
}

func (r *mongoRepository) ListByUser(ctx context.Context, userID string) ([]book.Book, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []book.Book{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer cur.Close(ctx)

	var docs []bookDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}

	books := make([]book.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.toBook())
	}
	return books, nil
}

func (r *mongoRepository) MaxIndex(ctx context.Context, userID string) (float64, bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, false, nil
	}

	opts := options.FindOne().
		SetSort(bson.D{{Key: "index", Value: -1}}).
		SetProjection(bson.M{"index": 1})

	var doc bookDocument
	err = r.coll.FindOne(ctx, bson.M{"userId": uid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read max index: %w", err)
	}
	return doc.Index, true, nil
}

func (r *mongoRepository) Create(ctx context.Context, b *book.Book) error {
	uid, err := primitive.ObjectIDFromHex(b.UserID)
	if err != nil {
		return fmt.Errorf("failed to insert book: invalid user id %q", b.UserID)
	}

	// Mongo lưu Date với độ chính xác millisecond
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := bookDocument{
		ID:           primitive.NewObjectID(),
		UserID:       uid,
		Index:        b.Index,
		Title:        b.Title,
		Author:       b.Author,
		CoverURL:     b.CoverURL,
		Status:       string(b.Status),
		Downloaded:   b.Downloaded,
		Rating:       b.Rating,
		Date:         b.Date,
		FinishedDate: b.FinishedDate,
		Genre:        b.Genre,
		Language:     b.Language,
		Comment:      b.Comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	b.ID = doc.ID.Hex()
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id, userID string) (*book.Book, error) {
	filter, err := ownerFilter(id, userID)
	if err != nil {
		return nil, err
	}

	var doc bookDocument
	err = r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	b := doc.toBook()
	return &b, nil
}

// patchToSet chuyển patch thành $set document
func patchToSet(patch book.Patch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}

	if patch.Index != nil {
		set["index"] = *patch.Index
	}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.CoverURL != nil {
		set["coverUrl"] = *patch.CoverURL
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Downloaded != nil {
		set["downloaded"] = *patch.Downloaded
	}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if patch.Date != nil {
		set["date"] = *patch.Date
	}
	if patch.SetFinishedDate {
		set["finishedDate"] = patch.FinishedDate
	}
	if patch.Genre != nil {
		set["genre"] = *patch.Genre
	}
	if patch.Language != nil {
		set["language"] = *patch.Language
	}
	if patch.Comment != nil {
		set["comment"] = *patch.Comment
	}
	return set
}

func (r *mongoRepository) Update(ctx context.Context, id, userID string, patch book.Patch) (*book.Book, error) {
	filter, err := ownerFilter(id, userID)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": patchToSet(patch, time.Now().UTC().Truncate(time.Millisecond))}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	b := doc.toBook()
	return &b, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id, userID string) error {
	filter, err := ownerFilter(id, userID)
	if err != nil {
		return err
	}

	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.DeletedCount == 0 {
		return book.ErrBookNotFound
	}
	return nil
}
