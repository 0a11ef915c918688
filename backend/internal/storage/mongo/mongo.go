// Package mongo stores users and threads in MongoDB.
//
// A standalone server has no multi-document transactions, so writes that
// touch several documents insert first, then link, and undo the insert if
// linking fails. Whatever still slips through (a crash between steps) is
// repaired by the reconciler.
package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wam-dev/threads/shared/domain"
	"github.com/wam-dev/threads/shared/storage/connection"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection   = "users"
	threadsCollection = "threads"
)

type userDoc struct {
	Id         string   `bson:"_id"`
	IdentityId string   `bson:"identityId"`
	Username   string   `bson:"username"`
	Name       string   `bson:"name"`
	Bio        string   `bson:"bio"`
	Image      string   `bson:"image"`
	Threads    []string `bson:"threads"`
}

type threadDoc struct {
	Id        string    `bson:"_id"`
	Text      string    `bson:"text"`
	Author    string    `bson:"author"`
	ParentId  *string   `bson:"parentId,omitempty"`
	Children  []string  `bson:"children"`
	Community *string   `bson:"community,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d *userDoc) toDomain() domain.User {
	threads := d.Threads
	if threads == nil {
		threads = []domain.ThreadId{}
	}
	return domain.User{
		Id:         d.Id,
		IdentityId: d.IdentityId,
		Username:   d.Username,
		Name:       d.Name,
		Bio:        d.Bio,
		Image:      d.Image,
		Threads:    threads,
	}
}

func (d *threadDoc) toDomain() domain.Thread {
	children := d.Children
	if children == nil {
		children = []domain.ThreadId{}
	}
	return domain.Thread{
		Id:          d.Id,
		Text:        d.Text,
		AuthorId:    d.Author,
		ParentId:    d.ParentId,
		ChildIds:    children,
		CommunityId: d.Community,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type Storage struct {
	conn     *connection.Manager[*mongo.Client]
	database string

	clockMu     sync.Mutex
	lastCreated time.Time
}

// New does not dial. The client is connected by the first query.
func New(uri, database string) *Storage {
	return &Storage{
		conn:     connection.New("mongo", uri, Opener(database)),
		database: database,
	}
}

// Opener connects, pings and makes sure the indexes exist.
func Opener(database string) connection.OpenFunc[*mongo.Client] {
	return func(ctx context.Context, uri string) (*mongo.Client, error) {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ping mongo: %w", err)
		}
		if err := ensureIndexes(ctx, client.Database(database)); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		return client, nil
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "identityId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = db.Collection(threadsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create threads indexes: %w", err)
	}
	return nil
}

func (s *Storage) collections(ctx context.Context) (users, threads *mongo.Collection, err error) {
	client, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(s.database)
	return db.Collection(usersCollection), db.Collection(threadsCollection), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	client, err := s.conn.Conn(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Cleanup() error {
	return s.conn.Close(func(c *mongo.Client) error { return c.Disconnect(context.Background()) })
}

// now returns strictly increasing millisecond timestamps, so creation
// order survives BSON's millisecond precision.
func (s *Storage) now() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := time.Now().UTC().Truncate(time.Millisecond)
	if !t.After(s.lastCreated) {
		t = s.lastCreated.Add(time.Millisecond)
	}
	s.lastCreated = t
	return t
}

func decodeAll[D any, T any](ctx context.Context, cur *mongo.Cursor, convert func(*D) T) ([]T, error) {
	defer cur.Close(ctx)

	out := []T{}
	for cur.Next(ctx) {
		var d D
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, convert(&d))
	}
	return out, cur.Err()
}
