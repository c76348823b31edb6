// Package database provides the DataManager for cached database operations.
package database

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotConnected is returned by reads while the database is offline
var ErrNotConnected = errors.New("database not connected")

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
}

// CacheManager provides shared caching across DataManagers
type CacheManager struct {
	cache     map[string]*list.Element
	cacheList *list.List
	mu        sync.Mutex
}

// cacheEntry holds a cached value with its key
type cacheEntry struct {
	key   string
	value interface{}
}

// globalCacheManager is shared across all DataManager instances
var globalCacheManager = &CacheManager{
	cache:     make(map[string]*list.Element),
	cacheList: list.New(),
}

func (c *CacheManager) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	c.cacheList.MoveToFront(elem)
	return elem.Value.(*cacheEntry).value, true
}

func (c *CacheManager) put(key string, value interface{}, maxSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{key: key, value: value}
	if elem, ok := c.cache[key]; ok {
		elem.Value = entry
		c.cacheList.MoveToFront(elem)
		return
	}
	c.cache[key] = c.cacheList.PushFront(entry)

	// Evict if over capacity
	if maxSize > 0 && c.cacheList.Len() > maxSize {
		if oldest := c.cacheList.Back(); oldest != nil {
			delete(c.cache, oldest.Value.(*cacheEntry).key)
			c.cacheList.Remove(oldest)
		}
	}
}

func (c *CacheManager) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.cacheList.Remove(elem)
		delete(c.cache, key)
	}
}

// DataManager provides cached access to a MongoDB collection
type DataManager[T any] struct {
	name       string
	dbInstance *Database
	options    DataManagerOptions
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{
		MaxCacheSize: 1000,
	}
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}

	return &DataManager[T]{
		name:       collectionName,
		dbInstance: db,
		options:    dmOptions,
	}
}

// collection resolves lazily so managers created while offline start
// working once the connection is established.
func (dm *DataManager[T]) collection() *mongo.Collection {
	if dm.dbInstance == nil {
		return nil
	}
	return dm.dbInstance.GetCollection(dm.name)
}

func (dm *DataManager[T]) online() (*mongo.Collection, bool) {
	if dm.dbInstance == nil || !dm.dbInstance.Connected() {
		return nil, false
	}
	col := dm.collection()
	return col, col != nil
}

// generateCacheKey creates a unique, deterministic key from a query
// It sorts the keys to ensure consistent ordering regardless of map iteration order
func (dm *DataManager[T]) generateCacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}

	return fmt.Sprintf("%s:{%s}", dm.name, strings.Join(parts, ","))
}

// Get retrieves a document from cache or database. A missing document
// returns (nil, nil).
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	cacheKey := dm.generateCacheKey(query)

	if v, ok := globalCacheManager.get(cacheKey); ok {
		return v.(*T), nil
	}

	col, ok := dm.online()
	if !ok {
		return nil, ErrNotConnected
	}

	var result T
	err := col.FindOne(ctx, query).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Warn(fmt.Sprintf("Fallo al leer de la DB (%s): %v", dm.name, err), "DataManager")
		return nil, err
	}

	globalCacheManager.put(cacheKey, &result, dm.options.MaxCacheSize)
	return &result, nil
}

// GetAll retrieves all documents matching a query from the database
func (dm *DataManager[T]) GetAll(ctx context.Context, query bson.M) ([]*T, error) {
	col, ok := dm.online()
	if !ok {
		return nil, ErrNotConnected
	}

	cursor, err := col.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn(fmt.Sprintf("Documento ilegible en '%s': %v", dm.name, err), "DataManager")
			continue
		}
		results = append(results, &doc)
	}

	return results, cursor.Err()
}

// Set updates or inserts a document in the database and cache
func (dm *DataManager[T]) Set(ctx context.Context, query bson.M, data interface{}) (*T, error) {
	cacheKey := dm.generateCacheKey(query)

	col, ok := dm.online()
	if !ok {
		logger.Warn(fmt.Sprintf("DB offline. Encolando escritura para '%s'", dm.name), "DataManager")
		globalCacheManager.remove(cacheKey)
		dm.queue(QueuedOperation{Query: query, Operation: "set", Data: data})
		return nil, nil
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	err := col.FindOneAndUpdate(ctx, query, bson.M{"$set": data}, opts).Decode(&result)
	if err != nil {
		logger.Error("Error en 'set' con DB conectada. Encolando por seguridad.", "DataManager")
		globalCacheManager.remove(cacheKey)
		dm.queue(QueuedOperation{Query: query, Operation: "set", Data: data})
		return nil, err
	}

	globalCacheManager.put(cacheKey, &result, dm.options.MaxCacheSize)
	return &result, nil
}

// Update runs a raw update document (operators such as $push or positional
// $set). Cached entries for cacheQuery are invalidated.
func (dm *DataManager[T]) Update(ctx context.Context, cacheQuery, filter bson.M, update interface{}, upsert bool) (int64, error) {
	globalCacheManager.remove(dm.generateCacheKey(cacheQuery))

	col, ok := dm.online()
	if !ok {
		logger.Warn(fmt.Sprintf("DB offline. Encolando actualización para '%s'", dm.name), "DataManager")
		dm.queue(QueuedOperation{Query: filter, Operation: "update", Data: update, Upsert: upsert})
		return 0, ErrNotConnected
	}

	res, err := col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		logger.Error(fmt.Sprintf("Error en 'update' para '%s': %v", dm.name, err), "DataManager")
		return 0, err
	}
	return res.MatchedCount + res.UpsertedCount, nil
}

// Invalidate drops the cached document for query
func (dm *DataManager[T]) Invalidate(query bson.M) {
	globalCacheManager.remove(dm.generateCacheKey(query))
}

func (dm *DataManager[T]) queue(op QueuedOperation) {
	if dm.dbInstance == nil {
		return
	}
	op.CollectionName = dm.name
	dm.dbInstance.AddToWriteQueue(op)
}

// CacheSize returns the current cache size
func (dm *DataManager[T]) CacheSize() int {
	globalCacheManager.mu.Lock()
	defer globalCacheManager.mu.Unlock()
	return globalCacheManager.cacheList.Len()
}
