// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/revinity/pacing-targets/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// TagMasterRepository defines read operations against the tag reference table
type TagMasterRepository interface {
	ByFilter(ctx context.Context, filter models.TagMasterFilter, orderBy string, limit, offset int) ([]*models.TagMaster, error)
	Count(ctx context.Context, filter models.TagMasterFilter) (int64, error)
	ActiveTag(ctx context.Context, clientSubgroupID, tagID int64) (*models.TagMaster, error)
	ActiveTagByID(ctx context.Context, tagID int64) (*models.TagMaster, error)
	ListActiveByClient(ctx context.Context, clientSubgroupID int64, tagTypeIDs []int) ([]*models.TagMaster, error)
	SearchByName(ctx context.Context, clientSubgroupID int64, query string, limit int) ([]*models.TagMaster, error)
}

// ClientSubgroupRepository defines read operations against the client subgroup reference table
type ClientSubgroupRepository interface {
	ByID(ctx context.Context, id int64) (*models.ClientSubgroup, error)
	ListAll(ctx context.Context) ([]*models.ClientSubgroup, error)
}

// PacingTargetRepository defines operations for pacing targets in the document store
type PacingTargetRepository interface {
	Repository[models.PacingTarget, models.PacingTargetFilter]
	ByID(ctx context.Context, id bson.ObjectID) (*models.PacingTarget, error)
	ExistsByKey(ctx context.Context, key models.UniquenessKey) (bool, error)
	Update(ctx context.Context, target *models.PacingTarget) error
	Delete(ctx context.Context, id bson.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

// UserRepository defines operations for application users in the document store
type UserRepository interface {
	ByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	EnsureIndexes(ctx context.Context) error
}
