package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrDuplicateKey indicates a write collided with a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// IsDuplicateKey reports whether err came from a unique index violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// PacingTargetCollection is the document store collection holding pacing targets.
const PacingTargetCollection = "pacing_targets"

// PacingTargetRepositoryImpl implements PacingTargetRepository interface
type PacingTargetRepositoryImpl struct {
	collection *mongo.Collection
}

// NewPacingTargetRepository creates a new pacing target repository
func NewPacingTargetRepository(db *mongo.Database) PacingTargetRepository {
	return &PacingTargetRepositoryImpl{
		collection: db.Collection(PacingTargetCollection),
	}
}

// EnsureIndexes creates the unique compound index backing the uniqueness
// tuple (client_subgroup_id, channel, tag_type, tag_id, month).
func (r *PacingTargetRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "clientSubgroupId", Value: 1},
			{Key: "channel", Value: 1},
			{Key: "tagType", Value: 1},
			{Key: "tagId", Value: 1},
			{Key: "month", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("uk_pacing_targets_key"),
	})
	if err != nil {
		return fmt.Errorf("failed to create pacing target indexes: %w", err)
	}
	return nil
}

// applyFilter builds the query document from filter criteria
func (r *PacingTargetRepositoryImpl) applyFilter(filter models.PacingTargetFilter) bson.M {
	query := bson.M{}
	if filter.ID != nil {
		query["_id"] = *filter.ID
	}
	if filter.ClientSubgroupID != nil {
		query["clientSubgroupId"] = *filter.ClientSubgroupID
	}
	if filter.Channel != nil {
		query["channel"] = *filter.Channel
	}
	if filter.TagType != nil {
		query["tagType"] = *filter.TagType
	}
	if filter.TagID != nil {
		query["tagId"] = *filter.TagID
	}
	if filter.Month != nil {
		query["month"] = *filter.Month
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Search != nil {
		query["tagName"] = bson.M{"$regex": *filter.Search, "$options": "i"}
	}
	return query
}

// parseOrderBy translates an "field DIR" order clause into a sort document.
// Defaults to newest first.
func parseOrderBy(orderBy string) bson.D {
	if orderBy == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	parts := strings.Fields(orderBy)
	dir := 1
	if len(parts) > 1 && strings.EqualFold(parts[1], "DESC") {
		dir = -1
	}
	return bson.D{{Key: parts[0], Value: dir}}
}

// ByFilter retrieves pacing targets based on filter criteria
func (r *PacingTargetRepositoryImpl) ByFilter(ctx context.Context, filter models.PacingTargetFilter, orderBy string, limit, offset int) ([]*models.PacingTarget, error) {
	opts := options.Find().SetSort(parseOrderBy(orderBy))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts = opts.SetSkip(int64(offset))
	}

	cursor, err := r.collection.Find(ctx, r.applyFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pacing targets: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*models.PacingTarget
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode pacing targets: %w", err)
	}
	return rows, nil
}

// ByID retrieves a pacing target by its id
func (r *PacingTargetRepositoryImpl) ByID(ctx context.Context, id bson.ObjectID) (*models.PacingTarget, error) {
	var row models.PacingTarget
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pacing target by id: %w", err)
	}
	return &row, nil
}

// Save inserts a new pacing target
func (r *PacingTargetRepositoryImpl) Save(ctx context.Context, target *models.PacingTarget) error {
	now := utils.UTCNow()
	if target.CreatedAt.IsZero() {
		target.CreatedAt = now
	}
	target.UpdatedAt = now
	if target.LastModified.IsZero() {
		target.LastModified = now
	}

	res, err := r.collection.InsertOne(ctx, target)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("pacing target already exists: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save pacing target: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		target.ID = id
	}
	return nil
}

// SaveBatch inserts multiple pacing targets as an ordered batch. The batch is
// all-or-nothing from the caller's point of view: any insert failure is
// reported as an error and no partial success is claimed.
func (r *PacingTargetRepositoryImpl) SaveBatch(ctx context.Context, targets []*models.PacingTarget) error {
	if len(targets) == 0 {
		return nil
	}

	now := utils.UTCNow()
	docs := make([]any, 0, len(targets))
	for _, t := range targets {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		if t.LastModified.IsZero() {
			t.LastModified = now
		}
		docs = append(docs, t)
	}

	res, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("pacing target batch collided with existing target: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save pacing target batch: %w", err)
	}
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(bson.ObjectID); ok && i < len(targets) {
			targets[i].ID = oid
		}
	}
	return nil
}

// Count returns the number of pacing targets matching the filter
func (r *PacingTargetRepositoryImpl) Count(ctx context.Context, filter models.PacingTargetFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, r.applyFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count pacing targets: %w", err)
	}
	return count, nil
}

// Exists checks if any pacing target matching the filter exists
func (r *PacingTargetRepositoryImpl) Exists(ctx context.Context, filter models.PacingTargetFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ExistsByKey checks whether a target with the given uniqueness tuple exists
func (r *PacingTargetRepositoryImpl) ExistsByKey(ctx context.Context, key models.UniquenessKey) (bool, error) {
	return r.Exists(ctx, models.PacingTargetFilter{
		ClientSubgroupID: &key.ClientSubgroupID,
		Channel:          &key.Channel,
		TagType:          &key.TagType,
		TagID:            &key.TagID,
		Month:            &key.Month,
	})
}

// Update replaces a pacing target document by id
func (r *PacingTargetRepositoryImpl) Update(ctx context.Context, target *models.PacingTarget) error {
	target.UpdatedAt = utils.UTCNow()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": target.ID}, target)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("pacing target update collided with existing target: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to update pacing target: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a pacing target by id
func (r *PacingTargetRepositoryImpl) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete pacing target: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
