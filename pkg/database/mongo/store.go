package mongo

import (
	"Textbook_Browser/config"
	"Textbook_Browser/internal/models"
	"Textbook_Browser/pkg/database"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store 是 database.Store 接口的MongoDB实现。
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	counters *counterStore
	rules    *ruleStore
}

// 编译时检查接口实现。
var _ database.Store = (*Store)(nil)

// counterStore 封装 "download_stats" 集合的操作。
// 文档形如 { _id: "downloads_2026-08-31", count: 42 }，
// 键格式与浏览器端本地存储的历史键保持一致。
type counterStore struct {
	coll *mongo.Collection
}

// ruleStore 封装 "display_rules" 集合的操作，整个覆盖集存为单个文档。
type ruleStore struct {
	coll *mongo.Collection
}

// NewStore 建立MongoDB连接并返回 Store 实例。
func NewStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	slog.Info("正在连接到 MongoDB...", "uri", cfg.Database.URI)
	clientCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.Database.URI)
	client, err := mongo.Connect(clientCtx, clientOpts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(clientCtx, nil); err != nil {
		return nil, err
	}
	slog.Info("MongoDB 连接成功")

	db := client.Database(cfg.Database.Name)
	return &Store{
		client:   client,
		db:       db,
		counters: &counterStore{coll: db.Collection("download_stats")},
		rules:    &ruleStore{coll: db.Collection("display_rules")},
	}, nil
}

func (s *Store) Counters() database.CounterStore { return s.counters }
func (s *Store) Rules() database.RuleStore       { return s.rules }

// EnsureIndexes 创建/验证索引。计数器与规则集合都按 _id 访问，这里只做连通性验证。
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("数据库连通性验证失败: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

const counterKeyPrefix = "downloads_"

type counterDoc struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (c *counterStore) IncrementDaily(ctx context.Context, date string) (int64, error) {
	filter := bson.M{"_id": counterKeyPrefix + date}
	update := bson.M{"$inc": bson.M{"count": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	if err := c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, fmt.Errorf("下载计数自增失败: %w", err)
	}
	return doc.Count, nil
}

func (c *counterStore) GetDaily(ctx context.Context, date string) (int64, error) {
	var doc counterDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": counterKeyPrefix + date}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Count, nil
}

func (c *counterStore) Recent(ctx context.Context, n int) (map[string]int64, error) {
	if n <= 0 {
		return map[string]int64{}, nil
	}
	// 直接按最近 n 天的键精确查询，避免对集合做前缀扫描。
	keys := make([]string, 0, n)
	now := time.Now()
	for i := 0; i < n; i++ {
		keys = append(keys, counterKeyPrefix+now.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	cursor, err := c.coll.Find(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make(map[string]int64, n)
	for cursor.Next(ctx) {
		var doc counterDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.ID[len(counterKeyPrefix):]] = doc.Count
	}
	return out, cursor.Err()
}

const ruleOverrideDocID = "overrides"

type ruleDoc struct {
	ID    string                        `bson:"_id"`
	Rules map[string]models.DisplayRule `bson:"rules"`
}

func (r *ruleStore) GetOverrides(ctx context.Context) (map[string]models.DisplayRule, error) {
	var doc ruleDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": ruleOverrideDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string]models.DisplayRule{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Rules == nil {
		doc.Rules = map[string]models.DisplayRule{}
	}
	return doc.Rules, nil
}

func (r *ruleStore) SaveOverrides(ctx context.Context, overrides map[string]models.DisplayRule) error {
	doc := ruleDoc{ID: ruleOverrideDocID, Rules: overrides}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": ruleOverrideDocID}, doc, opts); err != nil {
		return fmt.Errorf("保存展示规则覆盖失败: %w", err)
	}
	return nil
}
