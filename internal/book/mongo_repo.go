package book

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the collection books are stored in.
const CollectionName = "books"

type mongoBook struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Author      string             `bson:"author"`
	PublishYear int                `bson:"publishYear"`
	ImageURL    *string            `bson:"imageUrl,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (m mongoBook) toBook() Book {
	return Book{
		ID:          m.ID.Hex(),
		Title:       m.Title,
		Author:      m.Author,
		PublishYear: m.PublishYear,
		ImageURL:    m.ImageURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type MongoRepo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

func NewMongoRepo(client *mongo.Client, database string, timeout time.Duration) *MongoRepo {
	return &MongoRepo{
		client:  client,
		coll:    client.Database(database).Collection(CollectionName),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *MongoRepo) Create(ctx context.Context, f Fields) (Book, error) {
	if err := checkFields(f); err != nil {
		return Book{}, err
	}

	now := r.now()
	doc := mongoBook{
		ID:          primitive.NewObjectID(),
		Title:       f.Title,
		Author:      f.Author,
		PublishYear: f.PublishYear,
		ImageURL:    f.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		return Book{}, persistenceError("insert book", err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrNotFound
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var doc mongoBook
	if err := r.coll.FindOne(timeoutCtx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Book{}, mongoError("get book", err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) List(ctx context.Context) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(timeoutCtx, bson.M{}, opts)
	if err != nil {
		return nil, persistenceError("list books", err)
	}
	defer cur.Close(timeoutCtx)

	out := []Book{}
	for cur.Next(timeoutCtx) {
		var doc mongoBook
		if err := cur.Decode(&doc); err != nil {
			return nil, persistenceError("decode book", err)
		}
		out = append(out, doc.toBook())
	}
	if err := cur.Err(); err != nil {
		return nil, persistenceError("list books", err)
	}
	return out, nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrNotFound
	}
	if p.ImageURL != nil && *p.ImageURL == "" {
		return Book{}, &ValidationError{Fields: []FieldError{{Field: "imageUrl", Message: "imageUrl must be a URL when present"}}}
	}

	set := bson.M{"updatedAt": r.now()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Author != nil {
		set["author"] = *p.Author
	}
	if p.PublishYear != nil {
		set["publishYear"] = *p.PublishYear
	}
	if p.ImageURL != nil {
		set["imageUrl"] = *p.ImageURL
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoBook
	err = r.coll.FindOneAndUpdate(timeoutCtx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return Book{}, mongoError("update book", err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrNotFound
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var doc mongoBook
	if err := r.coll.FindOneAndDelete(timeoutCtx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Book{}, mongoError("delete book", err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.client.Ping(timeoutCtx, readpref.Primary()); err != nil {
		return persistenceError("ping", err)
	}
	return nil
}

func mongoError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return persistenceError(op, err)
}
