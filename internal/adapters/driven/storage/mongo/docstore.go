// Package mongo provides a MongoDB-backed document store for deployments
// that share one notice database between several kiitbot servers.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// CollectionName is the collection holding every document version.
const CollectionName = "documents"

const connectTimeout = 10 * time.Second

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// documentModel is the stored shape of one document version.
type documentModel struct {
	Key             string            `bson:"_id"`
	DocID           string            `bson:"doc_id"`
	Version         int               `bson:"version"`
	PreviousVersion int               `bson:"previous_version,omitempty"`
	Title           string            `bson:"title"`
	Body            string            `bson:"body"`
	SourceType      string            `bson:"source_type"`
	PublishedAt     *time.Time        `bson:"published_at,omitempty"`
	URL             string            `bson:"url,omitempty"`
	ContentHash     string            `bson:"content_hash,omitempty"`
	Metadata        map[string]string `bson:"metadata,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at"`
}

// versionKey is the _id of one version, "id@version".
func versionKey(id string, version int) string {
	return id + "@" + strconv.Itoa(version)
}

func toModel(doc *domain.Document) documentModel {
	m := documentModel{
		Key:             versionKey(doc.ID, doc.Version),
		DocID:           doc.ID,
		Version:         doc.Version,
		PreviousVersion: doc.PreviousVersion,
		Title:           doc.Title,
		Body:            doc.Body,
		SourceType:      string(doc.SourceType),
		URL:             doc.URL,
		ContentHash:     doc.ContentHash,
		Metadata:        doc.Metadata,
		CreatedAt:       doc.CreatedAt.UTC(),
		UpdatedAt:       doc.UpdatedAt.UTC(),
	}
	if !doc.PublishedAt.IsZero() {
		published := doc.PublishedAt.UTC()
		m.PublishedAt = &published
	}
	return m
}

func (m documentModel) toDomain() domain.Document {
	doc := domain.Document{
		ID:              m.DocID,
		Version:         m.Version,
		PreviousVersion: m.PreviousVersion,
		Title:           m.Title,
		Body:            m.Body,
		SourceType:      domain.SourceType(m.SourceType),
		URL:             m.URL,
		ContentHash:     m.ContentHash,
		Metadata:        m.Metadata,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if m.PublishedAt != nil {
		doc.PublishedAt = m.PublishedAt.UTC()
	}
	return doc
}

// latestPipeline groups versions by document and keeps the highest one.
// Source types are matched in the database; dates are checked afterwards
// with domain.Filters.Matches.
func latestPipeline(filters *domain.Filters) mongo.Pipeline {
	var pipeline mongo.Pipeline
	if filters != nil && len(filters.SourceTypes) > 0 {
		types := make([]string, len(filters.SourceTypes))
		for i, t := range filters.SourceTypes {
			types[i] = string(t)
		}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "source_type", Value: bson.D{{Key: "$in", Value: types}}},
		}}})
	}
	return append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "doc_id", Value: 1}, {Key: "version", Value: -1}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$doc_id"},
			{Key: "latest", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$latest"}}}},
	)
}

// DocumentStore implements driven.DocumentStore on a MongoDB collection.
type DocumentStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a client for uri, ensures the indexes exist and returns a
// store backed by database.documents.
func Connect(ctx context.Context, uri, database string) (*DocumentStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", domain.ErrInvalidInput)
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to mongo: %v", domain.ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: pinging mongo: %v", domain.ErrStoreUnavailable, err)
	}

	store := &DocumentStore{
		client:     client,
		collection: client.Database(database).Collection(CollectionName),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (s *DocumentStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doc_id", Value: 1}, {Key: "version", Value: -1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "source_type", Value: 1}}},
		{Keys: bson.D{{Key: "published_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *DocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// SaveDocument stores one version of a document.
func (s *DocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	m := toModel(doc)
	_, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: m.Key}}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument returns the latest version of a document.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	return s.findOne(ctx, bson.D{{Key: "doc_id", Value: id}}, opts)
}

// GetDocumentVersion returns a specific version of a document.
func (s *DocumentStore) GetDocumentVersion(ctx context.Context, id string, version int) (*domain.Document, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: versionKey(id, version)}}, options.FindOne())
}

func (s *DocumentStore) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptionsBuilder) (*domain.Document, error) {
	var m documentModel
	if err := s.collection.FindOne(ctx, filter, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding document: %w", err)
	}
	doc := m.toDomain()
	return &doc, nil
}

// ListVersions returns every version of a document, oldest first.
func (s *DocumentStore) ListVersions(ctx context.Context, id string) ([]domain.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.D{{Key: "doc_id", Value: id}}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	docs, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return docs, nil
}

// ListLatestDocuments returns the latest version of each document.
func (s *DocumentStore) ListLatestDocuments(ctx context.Context, filters *domain.Filters) ([]domain.Document, error) {
	cursor, err := s.collection.Aggregate(ctx, latestPipeline(filters))
	if err != nil {
		return nil, fmt.Errorf("listing latest documents: %w", err)
	}
	docs, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if filters != nil {
		kept := docs[:0]
		for _, doc := range docs {
			if filters.Matches(doc) {
				kept = append(kept, doc)
			}
		}
		docs = kept
	}
	domain.SortNewestFirst(docs)
	return docs, nil
}

// DeleteDocument removes every version of a document.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.collection.DeleteMany(ctx, bson.D{{Key: "doc_id", Value: id}})
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountDocuments returns the number of logical documents.
func (s *DocumentStore) CountDocuments(ctx context.Context) (int, error) {
	cursor, err := s.collection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$doc_id"}}}},
		bson.D{{Key: "$count", Value: "n"}},
	})
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		N int `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].N, nil
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]domain.Document, error) {
	defer cursor.Close(ctx)

	var models []documentModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}
	docs := make([]domain.Document, len(models))
	for i, m := range models {
		docs[i] = m.toDomain()
	}
	return docs, nil
}
