package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const uploadCollectionName = "photo_uploads"

// UploadJournal implements domain.UploadJournal on a MongoDB collection.
type UploadJournal struct {
	collection *mongo.Collection
	logger     *logger.Logger
	now        func() time.Time
}

func NewUploadJournal(db *mongo.Database, log *logger.Logger) (*UploadJournal, error) {
	collection := db.Collection(uploadCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "updated_at", Value: 1}}},
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for upload journal", zap.Error(err))
	} else {
		log.Info("Ensured indexes for upload journal")
	}

	return &UploadJournal{
		collection: collection,
		logger:     log.Named("UploadJournal"),
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Connect opens a client for uri and pings it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// RecordPending upserts the entry so a retried upload under the same key
// starts over as pending.
func (j *UploadJournal) RecordPending(ctx context.Context, rec domain.UploadRecord) error {
	now := j.now()
	rec.State = domain.UploadPending
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	doc := fromDomainUpload(rec)

	_, err := j.collection.ReplaceOne(ctx, bson.M{"_id": doc.ObjectKey}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("record pending upload %s: %w", rec.ObjectKey, err)
	}
	return nil
}

func (j *UploadJournal) MarkState(ctx context.Context, keys []string, state domain.UploadState, reason string) error {
	if len(keys) == 0 {
		return nil
	}
	if !state.IsValid() {
		return fmt.Errorf("unknown upload state %q", state)
	}
	update := bson.M{"$set": bson.M{
		"state":      string(state),
		"reason":     reason,
		"updated_at": j.now(),
	}}
	res, err := j.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": keys}}, update)
	if err != nil {
		return fmt.Errorf("mark %d uploads %s: %w", len(keys), state, err)
	}
	if res.MatchedCount < int64(len(keys)) {
		j.logger.Warn("Some upload keys were not journaled",
			zap.Int("requested", len(keys)), zap.Int64("matched", res.MatchedCount), zap.String("state", string(state)))
	}
	return nil
}

func (j *UploadJournal) ListSweepable(ctx context.Context, staleBefore time.Time, limit int) ([]domain.UploadRecord, error) {
	filter := SweepableFilter(staleBefore)
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := j.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find sweepable uploads: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []uploadDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sweepable uploads: %w", err)
	}
	records := make([]domain.UploadRecord, len(docs))
	for i, d := range docs {
		records[i] = d.toDomain()
	}
	return records, nil
}

// SweepableFilter selects orphaned entries plus pending entries untouched
// since staleBefore.
func SweepableFilter(staleBefore time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"state": string(domain.UploadOrphaned)},
		bson.M{"state": string(domain.UploadPending), "updated_at": bson.M{"$lt": staleBefore}},
	}}
}
