package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"avatarapi/internal/domain"
)

// AvatarRepositoryMongo implements domain.AvatarRepository on a MongoDB
// collection. One document per generated avatar; the image is stored as a
// raw BSON binary field, never base64.
type AvatarRepositoryMongo struct {
	coll *mongo.Collection
}

// NewAvatarRepository constructs a new avatar repository instance.
func NewAvatarRepository(coll *mongo.Collection) *AvatarRepositoryMongo {
	return &AvatarRepositoryMongo{coll: coll}
}

// Insert appends one immutable record and returns its assigned ID.
func (r *AvatarRepositoryMongo) Insert(ctx context.Context, record *domain.AvatarRecord) (string, error) {
	doc := bson.M{
		"user_id":      record.UserID,
		"country":      record.Country,
		"prompt":       record.Prompt,
		"image_binary": primitive.Binary{Subtype: 0x00, Data: record.ImageBytes},
		"timestamp":    record.CreatedAt,
	}

	result, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", mapWriteError(err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(result.InsertedID), nil
}

// ListByUser returns the user's records ordered by creation time descending.
// Each call re-reads current state; no cursor survives across calls.
func (r *AvatarRepositoryMongo) ListByUser(ctx context.Context, userID string) ([]domain.AvatarRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, mapReadError(err)
	}
	defer cur.Close(ctx)

	var records []domain.AvatarRecord
	for cur.Next(ctx) {
		var rec domain.AvatarRecord
		if err := cur.Decode(&rec); err != nil {
			// A malformed document must not abort the listing; salvage the
			// metadata fields and report the image as empty.
			rec = decodeLenient(cur.Current)
		}
		records = append(records, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, mapReadError(err)
	}
	return records, nil
}

// CountByUser returns the number of records stored for the user.
func (r *AvatarRepositoryMongo) CountByUser(ctx context.Context, userID string) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, mapReadError(err)
	}
	return int(count), nil
}

// decodeLenient extracts whatever fields are readable from a raw document,
// leaving ImageBytes empty when the binary field is missing or malformed.
func decodeLenient(raw bson.Raw) domain.AvatarRecord {
	var rec domain.AvatarRecord
	if oid, ok := raw.Lookup("_id").ObjectIDOK(); ok {
		rec.ID = oid.Hex()
	}
	if v, ok := raw.Lookup("user_id").StringValueOK(); ok {
		rec.UserID = v
	}
	if v, ok := raw.Lookup("country").StringValueOK(); ok {
		rec.Country = v
	}
	if v, ok := raw.Lookup("prompt").StringValueOK(); ok {
		rec.Prompt = v
	}
	if ts, ok := raw.Lookup("timestamp").TimeOK(); ok {
		rec.CreatedAt = ts
	}
	if _, data, ok := raw.Lookup("image_binary").BinaryOK(); ok {
		rec.ImageBytes = data
	}
	return rec
}

func mapReadError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

func mapWriteError(err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageWriteFailed, err)
}

var _ domain.AvatarRepository = (*AvatarRepositoryMongo)(nil)
