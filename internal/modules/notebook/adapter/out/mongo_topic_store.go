package out

import (
	"context"
	"errors"
	"fmt"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/clock"
	"notebook/internal/platform/logging"
	"notebook/internal/platform/tx"
)

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoTopicStore keeps one document per topic with a unique index on name.
type MongoTopicStore struct {
	client *mongo.Client
	topics *mongo.Collection
	policy domain.UpsertPolicy
	clock  clock.Clock
	logger hclog.Logger
	serial tx.Serial
	ready  bool
}

type mongoTopic struct {
	Name      string    `bson:"name"`
	Link      string    `bson:"link"`
	Position  int64     `bson:"position"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewMongoTopicStore(ctx context.Context, cfg MongoConfig, policy domain.UpsertPolicy, clk clock.Clock, logger hclog.Logger) (notebookout.TopicStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", apperrors.ErrInvalidInput)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, domain.NewStorageError("connect mongo", cfg.Database, err)
	}
	return &MongoTopicStore{
		client: client,
		topics: client.Database(cfg.Database).Collection(cfg.Collection),
		policy: policy,
		clock:  clk,
		logger: logging.OrDiscard(logger).Named("store").With("backend", "mongo", "collection", cfg.Collection),
	}, nil
}

func (s *MongoTopicStore) Initialize(ctx context.Context) error {
	return s.serial.Within(ctx, s.initializeLocked)
}

func (s *MongoTopicStore) initializeLocked(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return domain.NewStorageError("ping mongo", s.topics.Name(), err)
	}
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.topics.Indexes().CreateOne(ctx, indexModel); err != nil {
		return domain.NewStorageError("create topic index", s.topics.Name(), err)
	}
	s.ready = true
	return nil
}

func (s *MongoTopicStore) Upsert(ctx context.Context, name, link string) (domain.UpsertResult, error) {
	if err := domain.ValidateUpsert(name, link); err != nil {
		return domain.UpsertResult{}, err
	}
	result := domain.UpsertResult{}
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		if !s.ready {
			if err := s.initializeLocked(ctx); err != nil {
				return err
			}
		}
		var err error
		result, err = s.upsertLocked(ctx, name, link)
		if err != nil {
			s.ready = false
			return domain.NewStorageError("upsert", s.topics.Name(), err)
		}
		return nil
	})
	if err != nil {
		return domain.UpsertResult{}, err
	}
	return result, nil
}

func (s *MongoTopicStore) upsertLocked(ctx context.Context, name, link string) (domain.UpsertResult, error) {
	existing := mongoTopic{}
	found := true
	if err := s.topics.FindOne(ctx, bson.M{"name": name}).Decode(&existing); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return domain.UpsertResult{}, fmt.Errorf("find topic: %w", err)
		}
		found = false
	}
	result, mutated := domain.Decide(domain.Topic{Name: name, Link: existing.Link}, found, link, s.policy)
	if !mutated {
		return result, nil
	}
	now := s.clock.Now().UTC()
	if found {
		update := bson.M{"$set": bson.M{"link": result.Link, "updated_at": now}}
		if _, err := s.topics.UpdateOne(ctx, bson.M{"name": name}, update); err != nil {
			return domain.UpsertResult{}, fmt.Errorf("update topic: %w", err)
		}
		return result, nil
	}
	position, err := s.topics.CountDocuments(ctx, bson.M{})
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("count topics: %w", err)
	}
	record := mongoTopic{Name: name, Link: result.Link, Position: position, UpdatedAt: now}
	if _, err := s.topics.InsertOne(ctx, record); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("insert topic: %w", err)
	}
	return result, nil
}

func (s *MongoTopicStore) Find(ctx context.Context, name string) (domain.Topic, error) {
	record := mongoTopic{}
	if err := s.topics.FindOne(ctx, bson.M{"name": name}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Topic{}, fmt.Errorf("topic %q: %w", name, apperrors.ErrNotFound)
		}
		return domain.Topic{}, domain.NewStorageError("find", s.topics.Name(), err)
	}
	return domain.Topic{Name: record.Name, Link: record.Link}, nil
}

func (s *MongoTopicStore) List(ctx context.Context) ([]domain.Topic, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.topics.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, domain.NewStorageError("list", s.topics.Name(), err)
	}
	defer cursor.Close(ctx)

	records := []mongoTopic{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, domain.NewStorageError("decode topics", s.topics.Name(), err)
	}
	out := make([]domain.Topic, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Topic{Name: r.Name, Link: r.Link})
	}
	return out, nil
}

// Close disconnects the client with a short grace period.
func (s *MongoTopicStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the backing collection. Intended for tests against a disposable database.
func (s *MongoTopicStore) Drop(ctx context.Context) error {
	return s.topics.Drop(ctx)
}
