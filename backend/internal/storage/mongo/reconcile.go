package mongo

import (
	"context"

	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Storage) AllThreads(ctx context.Context) ([]domain.Thread, error) {
	oldestFirst := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	return s.findThreads(ctx, bson.M{}, options.Find().SetSort(oldestFirst))
}

func (s *Storage) SetUserThreads(ctx context.Context, userId domain.UserId, threadIds []domain.ThreadId) error {
	users, _, err := s.collections(ctx)
	if err != nil {
		return err
	}
	return setList(ctx, users, userId, "threads", threadIds, "user not found")
}

func (s *Storage) SetThreadChildren(ctx context.Context, threadId domain.ThreadId, childIds []domain.ThreadId) error {
	_, threads, err := s.collections(ctx)
	if err != nil {
		return err
	}
	return setList(ctx, threads, threadId, "children", childIds, "thread not found")
}

func setList(ctx context.Context, coll *mongo.Collection, id, field string, values []string, notFound string) error {
	if values == nil {
		values = []string{}
	}
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{field: values}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return internal_errors.NotFound(notFound)
	}
	return nil
}
