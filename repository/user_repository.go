package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserCollection is the document store collection holding application users.
const UserCollection = "users"

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &UserRepositoryImpl{
		collection: db.Collection(UserCollection),
	}
}

// EnsureIndexes creates unique indexes on username and email
func (r *UserRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uk_users_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uk_users_email"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// ByID retrieves a user by its id
func (r *UserRepositoryImpl) ByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var row models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &row, nil
}

// ByUsername retrieves a user by username
func (r *UserRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var row models.User
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return &row, nil
}

// ByUsernameOrEmail retrieves a user matching either the username or the email
func (r *UserRepositoryImpl) ByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var row models.User
	query := bson.M{"$or": []bson.M{
		{"username": username},
		{"email": email},
	}}
	err := r.collection.FindOne(ctx, query).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by username or email: %w", err)
	}
	return &row, nil
}

// Save inserts a new user
func (r *UserRepositoryImpl) Save(ctx context.Context, user *models.User) error {
	now := utils.UTCNow()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user already exists: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = id
	}
	return nil
}
