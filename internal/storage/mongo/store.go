package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"deptinbox/backend/internal/config"
	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/storage"
)

var _ storage.MessageGateway = (*Store)(nil)
var _ storage.Migrator = (*Store)(nil)

// collectionAPI 是 Store 依赖的最小集合接口，*mongo.Collection 满足它
type collectionAPI interface {
	InsertOne(ctx context.Context, document interface{}, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

// messageDoc 是留言在集合中的文档形态
type messageDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	Phone     string        `bson:"phone,omitempty"`
	Subject   string        `bson:"subject"`
	Message   string        `bson:"message"`
	Status    string        `bson:"status"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt *time.Time    `bson:"updatedAt,omitempty"`
}

func toDoc(m *domain.Message) messageDoc {
	return messageDoc{
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Message:   m.Body,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (d messageDoc) toMessage() domain.Message {
	m := domain.Message{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Subject:   d.Subject,
		Body:      d.Message,
		Status:    domain.Status(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.UpdatedAt != nil {
		t := d.UpdatedAt.UTC()
		m.UpdatedAt = &t
	}
	return m
}

// Store 是留言集合的 MongoDB 实现
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	coll   collectionAPI
	log    *zap.Logger
}

// Connect 建立到 MongoDB 的连接并验证可达
func Connect(ctx context.Context, cfg config.DatabaseConfig, uri string, log *zap.Logger) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo: URI is required")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if cfg.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}
	if cfg.MaxIdleConns > 0 {
		opts.SetMinPoolSize(uint64(cfg.MaxIdleConns))
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(cfg.Name)
	log.Info("connected to MongoDB",
		zap.String("database", cfg.Name),
		zap.String("collection", cfg.Collection),
	)

	return &Store{
		client: client,
		db:     db,
		coll:   db.Collection(cfg.Collection),
		log:    log,
	}, nil
}

// newStoreWithCollection 供测试注入假集合
func newStoreWithCollection(coll collectionAPI) *Store {
	return &Store{coll: coll, log: zap.NewNop()}
}

// Migrate 创建 createdAt 倒序索引
func (s *Store) Migrate(ctx context.Context) error {
	coll, ok := s.coll.(*mongo.Collection)
	if !ok {
		return nil
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("createdAt_desc"),
	})
	if err != nil {
		return fmt.Errorf("mongo: create index: %w", err)
	}
	return nil
}

// Ping 对主节点做存活检查
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return errors.New("mongo: client not initialized")
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Insert 写入留言，_id 由驱动生成
func (s *Store) Insert(ctx context.Context, message *domain.Message) (storage.InsertResult, error) {
	res, err := s.coll.InsertOne(ctx, toDoc(message))
	if err != nil {
		return storage.InsertResult{}, fmt.Errorf("mongo: insert: %w", err)
	}
	if res == nil {
		return storage.InsertResult{}, nil
	}

	out := storage.InsertResult{Acknowledged: res.Acknowledged}
	switch id := res.InsertedID.(type) {
	case bson.ObjectID:
		out.ID = id.Hex()
	case string:
		out.ID = id
	default:
		out.ID = fmt.Sprint(id)
	}
	return out, nil
}

// Find 按 createdAt 倒序返回留言
func (s *Store) Find(ctx context.Context, opts storage.FindOptions) ([]domain.Message, error) {
	filter := bson.D{}
	if opts.Status != nil {
		filter = append(filter, bson.E{Key: "status", Value: string(*opts.Status)})
	}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: find: %w", err)
	}

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode: %w", err)
	}

	messages := make([]domain.Message, 0, len(docs))
	for _, d := range docs {
		messages = append(messages, d.toMessage())
	}
	return messages, nil
}

// UpdateOne 以 $set 更新状态；非法 ObjectID 视为不存在
func (s *Store) UpdateOne(ctx context.Context, id string, update storage.StatusUpdate) (storage.UpdateResult, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return storage.UpdateResult{}, nil
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(update.Status)},
			{Key: "updatedAt", Value: update.UpdatedAt},
		}}},
	)
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("mongo: update: %w", err)
	}
	return storage.UpdateResult{MatchedCount: res.MatchedCount}, nil
}

// DeleteOne 删除留言；非法 ObjectID 视为不存在
func (s *Store) DeleteOne(ctx context.Context, id string) (storage.DeleteResult, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return storage.DeleteResult{}, nil
	}

	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("mongo: delete: %w", err)
	}
	return storage.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// Close 断开连接
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	if err == nil {
		s.log.Info("MongoDB connection closed")
	}
	return err
}
