package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upb/userauth-api/models"
	"github.com/upb/userauth-api/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Names of the unique indexes on the lowered fields
const (
	UsernameIndex = "username_lower_unique"
	EmailIndex    = "email_lower_unique"
)

// userDocument is the stored shape of a user.
// The lowered copies back the case-insensitive unique indexes.
type userDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Username      string             `bson:"username"`
	UsernameLower string             `bson:"usernameLower"`
	Email         string             `bson:"email"`
	EmailLower    string             `bson:"emailLower"`
	PasswordHash  string             `bson:"password"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

// UserRepository stores users in a MongoDB collection
type UserRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
	health func(context.Context) error
}

// NewUserRepository creates a new user repository over coll
func NewUserRepository(coll *mongo.Collection, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		coll:   coll,
		logger: logger,
	}
}

// NewUserRepositoryFromDB creates a repository over the users collection of db
func NewUserRepositoryFromDB(db *DB, logger *zap.Logger) *UserRepository {
	repo := NewUserRepository(db.Users(), logger)
	repo.health = db.HealthCheck
	return repo
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// EnsureIndexes creates the unique indexes on the lowered username and email
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usernameLower", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UsernameIndex),
		},
		{
			Keys:    bson.D{{Key: "emailLower", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(EmailIndex),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	r.logger.Info("user indexes ensured")
	return nil
}

// FindByEmail retrieves a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"emailLower": models.FoldKey(email)})
}

// FindByUsername retrieves a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"usernameLower": models.FoldKey(username)})
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

// Insert persists a new user and assigns its ID
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	doc := userDocument{
		ID:            primitive.NewObjectID(),
		Username:      user.Username,
		UsernameLower: user.UsernameKey(),
		Email:         user.Email,
		EmailLower:    user.EmailKey(),
		PasswordHash:  user.PasswordHash,
		CreatedAt:     user.CreatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateFromWrite(err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = doc.ID.Hex()
	r.logger.Debug("user created", zap.String("id", user.ID), zap.String("username", user.Username))
	return nil
}

// UpdatePasswordHash replaces the stored password hash
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrUserNotFound
	}

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"password": passwordHash}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrUserNotFound
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrUserNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrUserNotFound
	}

	r.logger.Debug("user deleted", zap.String("id", id))
	return nil
}

// HealthCheck reports database connectivity
func (r *UserRepository) HealthCheck(ctx context.Context) error {
	if r.health == nil {
		return nil
	}
	return r.health(ctx)
}

// duplicateFromWrite picks the conflicting field from the violated index name
func duplicateFromWrite(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, EmailIndex):
		return &repositories.DuplicateError{Field: repositories.FieldEmail, Err: err}
	case strings.Contains(msg, UsernameIndex):
		return &repositories.DuplicateError{Field: repositories.FieldUsername, Err: err}
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}
