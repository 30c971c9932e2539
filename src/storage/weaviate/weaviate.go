package weaviate

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// SDK encapsulates all Weaviate operations
type SDK struct {
	client *weaviate.Client
}

// NewSDK creates a new instance of SDK
func NewSDK(client *weaviate.Client) *SDK {
	return &SDK{
		client: client,
	}
}

// EnsureSchema creates a class schema in Weaviate if it does not already exist
func (w *SDK) EnsureSchema(ctx context.Context, className string, properties []*models.Property) error {
	exists, err := w.classExists(ctx, className)
	if err != nil {
		return fmt.Errorf("failed to check if class exists: %v", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      className,
		Properties: properties,
		Vectorizer: "none",
	}

	err = w.client.Schema().ClassCreator().WithClass(class).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create Weaviate class: %v", err)
	}

	return nil
}

// classExists checks if a class exists in the schema
func (w *SDK) classExists(ctx context.Context, className string) (bool, error) {
	schema, err := w.client.Schema().Getter().Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get schema: %v", err)
	}

	for _, class := range schema.Classes {
		if class.Class == className {
			return true, nil
		}
	}

	return false, nil
}

// VectorObject represents a single object with its vector and properties.
// When ID is set the object is upserted under that ID, which makes repeated
// writes of the same logical object idempotent.
type VectorObject struct {
	ID         string
	Vector     []float32
	Properties map[string]interface{}
}

// AddVector adds a single vector object to a class
func (w *SDK) AddVector(ctx context.Context, className string, object VectorObject) error {
	creator := w.client.Data().Creator().
		WithClassName(className).
		WithProperties(object.Properties).
		WithVector(object.Vector)

	if object.ID != "" {
		creator = creator.WithID(object.ID)
	}

	_, err := creator.Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to add vector: %v", err)
	}

	return nil
}

// BatchAddVectors adds multiple vector objects to a class in a single operation
func (w *SDK) BatchAddVectors(ctx context.Context, className string, objects []VectorObject) error {
	objs := make([]*models.Object, len(objects))
	for i, obj := range objects {
		objs[i] = &models.Object{
			Class:      className,
			ID:         strfmt.UUID(obj.ID),
			Properties: obj.Properties,
			Vector:     obj.Vector,
		}
	}

	batcher := w.client.Batch().ObjectsBatcher()
	resp, err := batcher.WithObjects(objs...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to batch add vectors: %v", err)
	}
	if len(resp) == 0 {
		return fmt.Errorf("batch operation returned no results")
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch object %s failed: %s", r.ID, r.Result.Errors.Error[0].Message)
		}
	}

	return nil
}

// QueryConfig represents configuration for class queries
type QueryConfig struct {
	Fields    []string              // Fields to return in the result
	Limit     int                   // Maximum number of results
	Distance  float64               // Optional distance threshold
	Certainty float64               // Optional certainty threshold (1/distance)
	Where     *filters.WhereBuilder // Optional structured filter
}

const DefaultQueryLimit = 20

// QueryResult represents a single result from a class query
type QueryResult struct {
	ID         string
	Score      float64 // Distance score; zero for non-vector queries
	Properties map[string]interface{}
}

// QueryVectors performs vector similarity search in a class
func (w *SDK) QueryVectors(ctx context.Context, className string, vector []float32, config QueryConfig) ([]QueryResult, error) {
	nearVectorBuilder := w.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	if config.Distance > 0 {
		nearVectorBuilder.WithDistance(float32(config.Distance))
	}
	if config.Certainty > 0 {
		nearVectorBuilder.WithCertainty(float32(config.Certainty))
	}

	if config.Limit <= 0 {
		config.Limit = DefaultQueryLimit
	}

	query := w.client.GraphQL().Get().
		WithClassName(className).
		WithFields(w.graphQLFields(config.Fields)...).
		WithNearVector(nearVectorBuilder).
		WithLimit(config.Limit)

	if config.Where != nil {
		query = query.WithWhere(config.Where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %v", err)
	}
	if err := graphQLErrors(result); err != nil {
		return nil, err
	}

	return w.parseResults(className, result), nil
}

// QueryObjects lists objects of a class without vector search, optionally
// narrowed by a where filter. Used for catalog scans.
func (w *SDK) QueryObjects(ctx context.Context, className string, config QueryConfig) ([]QueryResult, error) {
	if config.Limit <= 0 {
		config.Limit = DefaultQueryLimit
	}

	query := w.client.GraphQL().Get().
		WithClassName(className).
		WithFields(w.graphQLFields(config.Fields)...).
		WithLimit(config.Limit)

	if config.Where != nil {
		query = query.WithWhere(config.Where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %v", err)
	}
	if err := graphQLErrors(result); err != nil {
		return nil, err
	}

	return w.parseResults(className, result), nil
}

func (w *SDK) graphQLFields(names []string) []graphql.Field {
	fields := make([]graphql.Field, len(names))
	for i, field := range names {
		fields[i] = graphql.Field{Name: field}
	}
	// _additional carries object id and similarity metadata
	return append(fields, graphql.Field{Name: "_additional { id distance }"})
}

func graphQLErrors(result *models.GraphQLResponse) error {
	if len(result.Errors) > 0 {
		return fmt.Errorf("graphql query failed: %s", result.Errors[0].Message)
	}
	return nil
}

func (w *SDK) parseResults(className string, result *models.GraphQLResponse) []QueryResult {
	var queryResults []QueryResult
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return queryResults
	}
	objects, ok := data[className].([]interface{})
	if !ok {
		return queryResults
	}

	for _, obj := range objects {
		objMap, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		qr := QueryResult{Properties: make(map[string]interface{})}
		for k, v := range objMap {
			if k != "_additional" {
				qr.Properties[k] = v
			}
		}
		if additional, ok := objMap["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				qr.ID = id
			}
			if distance, ok := additional["distance"].(float64); ok {
				qr.Score = distance
			}
		}

		queryResults = append(queryResults, qr)
	}

	return queryResults
}

// DeleteByFilter deletes every object of a class matching the where filter
func (w *SDK) DeleteByFilter(ctx context.Context, className string, where *filters.WhereBuilder) error {
	_, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(className).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete by filter: %v", err)
	}

	return nil
}
