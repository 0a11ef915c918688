package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	"github.com/wam-dev/threads/shared/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	users, threads, err := s.collections(ctx)
	if err != nil {
		return domain.Thread{}, err
	}
	if err := requireExists(ctx, users, data.AuthorId, "author not found"); err != nil {
		return domain.Thread{}, err
	}

	doc := threadDoc{
		Id:        uuid.NewString(),
		Text:      data.Text,
		Author:    data.AuthorId,
		Children:  []string{},
		Community: data.CommunityId,
		CreatedAt: s.now(),
	}
	if _, err := threads.InsertOne(ctx, doc); err != nil {
		return domain.Thread{}, fmt.Errorf("failed to insert thread: %w", err)
	}

	if err := push(ctx, users, data.AuthorId, "threads", doc.Id, "author not found"); err != nil {
		undoInsert(threads, doc.Id)
		return domain.Thread{}, err
	}
	return doc.toDomain(), nil
}

func (s *Storage) CreateReply(ctx context.Context, data domain.ReplyCreationData) (domain.Thread, error) {
	users, threads, err := s.collections(ctx)
	if err != nil {
		return domain.Thread{}, err
	}
	if err := requireExists(ctx, threads, data.ParentId, "parent thread not found"); err != nil {
		return domain.Thread{}, err
	}
	if err := requireExists(ctx, users, data.AuthorId, "author not found"); err != nil {
		return domain.Thread{}, err
	}

	parentId := data.ParentId
	doc := threadDoc{
		Id:        uuid.NewString(),
		Text:      data.Text,
		Author:    data.AuthorId,
		ParentId:  &parentId,
		Children:  []string{},
		CreatedAt: s.now(),
	}
	if _, err := threads.InsertOne(ctx, doc); err != nil {
		return domain.Thread{}, fmt.Errorf("failed to insert thread: %w", err)
	}

	if err := push(ctx, threads, data.ParentId, "children", doc.Id, "parent thread not found"); err != nil {
		undoInsert(threads, doc.Id)
		return domain.Thread{}, err
	}
	if err := push(ctx, users, data.AuthorId, "threads", doc.Id, "author not found"); err != nil {
		undoPush(threads, data.ParentId, "children", doc.Id)
		undoInsert(threads, doc.Id)
		return domain.Thread{}, err
	}
	return doc.toDomain(), nil
}

func requireExists(ctx context.Context, coll *mongo.Collection, id, notFound string) error {
	err := coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return internal_errors.NotFound(notFound)
		}
		return err
	}
	return nil
}

func push(ctx context.Context, coll *mongo.Collection, id, field, value, notFound string) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{field: value}})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return internal_errors.NotFound(notFound)
	}
	return nil
}

// undo* run on a fresh context: the request context may be what failed.
func undoInsert(threads *mongo.Collection, id string) {
	if _, err := threads.DeleteOne(context.Background(), bson.M{"_id": id}); err != nil {
		logger.Component("mongo").Error("failed to undo thread insert", "thread_id", id, "error", err)
	}
}

func undoPush(coll *mongo.Collection, id, field, value string) {
	if _, err := coll.UpdateOne(context.Background(), bson.M{"_id": id}, bson.M{"$pull": bson.M{field: value}}); err != nil {
		logger.Component("mongo").Error("failed to undo link", "id", id, "field", field, "error", err)
	}
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	_, threads, err := s.collections(ctx)
	if err != nil {
		return domain.Thread{}, err
	}

	var doc threadDoc
	if err := threads.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Thread{}, internal_errors.NotFound("thread not found")
		}
		return domain.Thread{}, err
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	if len(ids) == 0 {
		return []domain.Thread{}, nil
	}
	return s.findThreads(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (s *Storage) GetTopLevelThreads(ctx context.Context, skip, limit int) ([]domain.Thread, error) {
	opts := options.Find().SetSort(newestFirst).SetSkip(int64(skip)).SetLimit(int64(limit))
	return s.findThreads(ctx, bson.M{"parentId": nil}, opts)
}

func (s *Storage) CountTopLevelThreads(ctx context.Context) (int, error) {
	_, threads, err := s.collections(ctx)
	if err != nil {
		return 0, err
	}
	n, err := threads.CountDocuments(ctx, bson.M{"parentId": nil})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Storage) GetThreadsByAuthor(ctx context.Context, authorId domain.UserId) ([]domain.Thread, error) {
	return s.findThreads(ctx, bson.M{"author": authorId}, options.Find().SetSort(newestFirst))
}

func (s *Storage) findThreads(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Thread, error) {
	_, threads, err := s.collections(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := threads.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, (*threadDoc).toDomain)
}
