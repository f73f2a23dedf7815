package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/files-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoFileStore struct {
	col *mongo.Collection
}

const indexTimeout = 10 * time.Second

func NewMongoFileStore(ctx context.Context, db *mongo.Database, collection string) (*MongoFileStore, error) {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	col := db.Collection(collection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "parentId", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s listing index: %w", collection, err)
	}
	return &MongoFileStore{col: col}, nil
}

func (r *MongoFileStore) Insert(ctx context.Context, f *models.File) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, f)
	return err
}

func (r *MongoFileStore) findOne(ctx context.Context, filter bson.M) (*models.File, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var f models.File
	if err := r.col.FindOne(ctx, filter).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *MongoFileStore) FindOwned(ctx context.Context, id, ownerID primitive.ObjectID) (*models.File, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": ownerID})
}

func (r *MongoFileStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoFileStore) ListChildren(ctx context.Context, ownerID primitive.ObjectID, parent models.ParentID, skip, limit int64) ([]*models.File, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"userId": ownerID, "parentId": parent}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.File{}
	for cur.Next(ctx) {
		var f models.File
		if err := cur.Decode(&f); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, cur.Err()
}

func (r *MongoFileStore) SetPublic(ctx context.Context, id, ownerID primitive.ObjectID, value bool) (*models.File, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res := r.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "userId": ownerID},
		bson.M{"$set": bson.M{"isPublic": value}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var f models.File
	if err := res.Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *MongoFileStore) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

var _ FileStore = (*MongoFileStore)(nil)
