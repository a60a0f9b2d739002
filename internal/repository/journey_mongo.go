package repository

import (
	"context"
	"errors"
	"time"

	"scrolla/internal/models"
	"scrolla/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	journeysCollection = "journeys"
	countersCollection = "counters"
)

// mongoJourneyRepository keeps journeys in MongoDB. Journey IDs stay numeric
// so clients see the same shape regardless of the backing store; they are
// drawn from a per-collection sequence document.
type mongoJourneyRepository struct {
	journeys *mongo.Collection
	counters *mongo.Collection
}

// NewMongoJourneyRepository returns a JourneyRepository backed by db.
func NewMongoJourneyRepository(db *mongo.Database) JourneyRepository {
	return &mongoJourneyRepository{
		journeys: db.Collection(journeysCollection),
		counters: db.Collection(countersCollection),
	}
}

// EnsureJourneyIndexes creates the history index used by ListByUser.
func EnsureJourneyIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(journeysCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: -1}},
		Options: options.Index().SetName("idx_journeys_user_start"),
	})
	return err
}

func (r *mongoJourneyRepository) nextID(ctx context.Context) (uint, error) {
	var counter struct {
		Seq uint `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": journeysCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (r *mongoJourneyRepository) Create(ctx context.Context, journey *models.Journey) error {
	defer observability.TrackRepository("journeys_mongo", "Create")()

	id, err := r.nextID(ctx)
	if err != nil {
		return models.NewInternalError(err)
	}
	now := time.Now().UTC()
	journey.ID = id
	journey.CreatedAt = now
	journey.UpdatedAt = now
	if journey.PostsViewed == nil {
		journey.PostsViewed = []uint{}
	}
	if _, err := r.journeys.InsertOne(ctx, journey); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoJourneyRepository) GetByID(ctx context.Context, id uint) (*models.Journey, error) {
	var journey models.Journey
	err := r.journeys.FindOne(ctx, bson.M{"_id": id}).Decode(&journey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NewNotFoundError("Journey", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &journey, nil
}

func (r *mongoJourneyRepository) Complete(ctx context.Context, id uint, endTime time.Time, postsViewed []uint) (*models.Journey, error) {
	defer observability.TrackRepository("journeys_mongo", "Complete")()

	if postsViewed == nil {
		postsViewed = []uint{}
	}
	res, err := r.journeys.UpdateOne(ctx,
		bson.M{"_id": id, "completed": false},
		bson.M{"$set": bson.M{
			"completed":    true,
			"end_time":     endTime,
			"posts_viewed": postsViewed,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	journey, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, models.NewInvalidOperationError("Journey already completed")
	}
	return journey, nil
}

func (r *mongoJourneyRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]*models.Journey, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.journeys.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cursor.Close(ctx)

	journeys := make([]*models.Journey, 0)
	if err := cursor.All(ctx, &journeys); err != nil {
		return nil, models.NewInternalError(err)
	}
	return journeys, nil
}
