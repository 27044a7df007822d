package repo

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"avatarapi/internal/domain"
)

func TestDecodeLenientSalvagesCorruptImage(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := bson.M{
		"_id":          primitive.NewObjectID(),
		"user_id":      "user-1",
		"country":      "India",
		"prompt":       "a mountaineer",
		"image_binary": "this should have been binary",
		"timestamp":    created,
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}

	rec := decodeLenient(raw)
	if rec.UserID != "user-1" || rec.Country != "India" || rec.Prompt != "a mountaineer" {
		t.Fatalf("metadata not preserved: %#v", rec)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %s, want %s", rec.CreatedAt, created)
	}
	if len(rec.ImageBytes) != 0 {
		t.Fatalf("expected empty image for corrupt record, got %d bytes", len(rec.ImageBytes))
	}
}

func TestDecodeLenientKeepsReadableBinary(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G'}
	doc := bson.M{
		"user_id":      "user-1",
		"image_binary": primitive.Binary{Subtype: 0x00, Data: img},
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}

	rec := decodeLenient(raw)
	if !bytes.Equal(rec.ImageBytes, img) {
		t.Fatalf("image bytes mismatch: got %v want %v", rec.ImageBytes, img)
	}
}

func TestRecordRoundTripsThroughBSON(t *testing.T) {
	img := []byte{0x01, 0x02, 0x03, 0x04}
	in := domain.AvatarRecord{
		UserID:     "user-1",
		Country:    "Brazil",
		Prompt:     "a botanist",
		ImageBytes: img,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	raw, err := bson.Marshal(in)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	var out domain.AvatarRecord
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if !bytes.Equal(out.ImageBytes, img) {
		t.Fatalf("image bytes mismatch after round trip: got %v want %v", out.ImageBytes, img)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("CreatedAt mismatch: got %s want %s", out.CreatedAt, in.CreatedAt)
	}
}

func TestMapWriteErrorClassification(t *testing.T) {
	if err := mapWriteError(context.DeadlineExceeded); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("deadline err = %v, want ErrStorageUnavailable", err)
	}
	if err := mapWriteError(errors.New("document too large")); !errors.Is(err, domain.ErrStorageWriteFailed) {
		t.Fatalf("write err = %v, want ErrStorageWriteFailed", err)
	}
}
