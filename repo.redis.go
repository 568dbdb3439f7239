package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HBooks     string = "books"
	LBookOrder string = "books:order"
)

var _ BookStorage = (*redisBookStorage)(nil) // ensure redisBookStorage implements BookStorage.

// Every script receives KEYS[1] the books hash and KEYS[2] the ids list.
// A missing book makes the script return false, seen as redis.Nil. Each
// script ends by returning the books json in list order, so the change
// and the snapshot are applied atomically by the server.
const redisSnapshotLua = `
local out = {}
for _, id in ipairs(redis.call('LRANGE', KEYS[2], 0, -1)) do
	local v = redis.call('HGET', KEYS[1], id)
	if v then out[#out + 1] = v end
end
return out
`

var (
	redisListScript = redis.NewScript(redisSnapshotLua)

	redisCreateScript = redis.NewScript(`
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('RPUSH', KEYS[2], ARGV[1])
` + redisSnapshotLua)

	redisUpdateScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if not current then return false end
local book = cjson.decode(current)
local fields = cjson.decode(ARGV[2])
book['name'] = fields['name']
book['author'] = fields['author']
book['language'] = fields['language']
book['pages'] = fields['pages']
redis.call('HSET', KEYS[1], ARGV[1], cjson.encode(book))
` + redisSnapshotLua)

	redisDeleteScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then return false end
redis.call('LREM', KEYS[2], 1, ARGV[1])
` + redisSnapshotLua)
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	clock  Clocker
	ids    UIDHandler
	keys   []string
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, clock Clocker, ids UIDHandler) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
		clock:  clock,
		ids:    ids,
		keys:   []string{HBooks, LBookOrder},
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// List retrieves all books in insertion order.
func (rs *redisBookStorage) List(ctx context.Context) ([]Book, error) {
	return rs.run(ctx, redisListScript)
}

// Create inserts a new book record at the end of the ordered list.
func (rs *redisBookStorage) Create(ctx context.Context, fields BookFields) ([]Book, error) {
	book := Book{
		ID:      rs.ids.Generate(BookIDPrefix),
		AddedAt: rs.clock.Now().UTC(),
	}
	book.apply(fields)
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return nil, err
	}
	return rs.run(ctx, redisCreateScript, book.ID, bookBytes)
}

// Get retrieves a book record based on its ID.
func (rs *redisBookStorage) Get(ctx context.Context, id string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Update replaces the editable fields of an existing book record.
func (rs *redisBookStorage) Update(ctx context.Context, id string, fields BookFields) ([]Book, error) {
	fieldsBytes, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return rs.run(ctx, redisUpdateScript, id, fieldsBytes)
}

// Delete removes a book record based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) ([]Book, error) {
	return rs.run(ctx, redisDeleteScript, id)
}

func (rs *redisBookStorage) run(ctx context.Context, script *redis.Script, args ...interface{}) ([]Book, error) {
	values, err := script.Run(ctx, rs.client, rs.keys, args...).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		rs.logger.Error("storage: redis script failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	books := make([]Book, 0, len(values))
	for _, bookJSONString := range values {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}
