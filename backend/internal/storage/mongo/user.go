package mongo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Storage) UpsertUser(ctx context.Context, profile domain.UserProfile) (domain.User, error) {
	users, _, err := s.collections(ctx)
	if err != nil {
		return domain.User{}, err
	}

	update := bson.M{
		"$set": bson.M{
			"username": profile.Username,
			"name":     profile.Name,
			"bio":      profile.Bio,
			"image":    profile.Image,
		},
		"$setOnInsert": bson.M{
			"_id":     uuid.NewString(),
			"threads": []string{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc userDoc
	if err := users.FindOneAndUpdate(ctx, bson.M{"identityId": profile.IdentityId}, update, opts).Decode(&doc); err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetUserByIdentity(ctx context.Context, identityId domain.IdentityId) (domain.User, error) {
	users, _, err := s.collections(ctx)
	if err != nil {
		return domain.User{}, err
	}

	var doc userDoc
	if err := users.FindOne(ctx, bson.M{"identityId": identityId}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, internal_errors.NotFound("user not found")
		}
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetUsersByIds(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return s.findUsers(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Storage) AllUsers(ctx context.Context) ([]domain.User, error) {
	return s.findUsers(ctx, bson.M{})
}

func (s *Storage) findUsers(ctx context.Context, filter bson.M) ([]domain.User, error) {
	users, _, err := s.collections(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := users.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, (*userDoc).toDomain)
}
