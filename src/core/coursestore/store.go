package coursestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	wvfilters "github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"

	"coursechat/src/core/course"
	"coursechat/src/log"
	"coursechat/src/storage/weaviate"
)

const (
	CatalogClass = "CourseCatalog"
	ContentClass = "CourseContent"

	DefaultMaxResults = 5

	// ResolveVector matches a fuzzy course name by embedding similarity
	// over the catalog; ResolveSubstring by case-insensitive substring.
	ResolveVector    = "vector"
	ResolveSubstring = "substring"

	catalogListLimit = 1000
)

// StorageError wraps a vector store backend failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// VectorBackend is the slice of the Weaviate SDK the store depends on
type VectorBackend interface {
	EnsureSchema(ctx context.Context, className string, properties []*models.Property) error
	AddVector(ctx context.Context, className string, object weaviate.VectorObject) error
	BatchAddVectors(ctx context.Context, className string, objects []weaviate.VectorObject) error
	QueryVectors(ctx context.Context, className string, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error)
	QueryObjects(ctx context.Context, className string, config weaviate.QueryConfig) ([]weaviate.QueryResult, error)
	DeleteByFilter(ctx context.Context, className string, where *wvfilters.WhereBuilder) error
}

// Embedder turns text into an embedding vector
type Embedder interface {
	GetEmbedding(ctx context.Context, model string, text string) ([]float32, error)
}

// SearchResult is one content chunk returned by Search
type SearchResult struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
	Score        float64
}

// Store keeps course metadata and content chunks in two Weaviate classes
// and answers filtered similarity queries over them.
type Store struct {
	backend        VectorBackend
	embedder       Embedder
	embeddingModel string
	maxResults     int
	resolution     string
}

// Option configures a Store
type Option func(*Store)

// WithMaxResults sets the default search result limit
func WithMaxResults(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithResolution selects the fuzzy course-name resolution strategy,
// ResolveVector or ResolveSubstring
func WithResolution(strategy string) Option {
	return func(s *Store) {
		if strategy == ResolveVector || strategy == ResolveSubstring {
			s.resolution = strategy
		}
	}
}

// NewStore creates a Store over the given backend and embedder
func NewStore(backend VectorBackend, embedder Embedder, embeddingModel string, opts ...Option) *Store {
	s := &Store{
		backend:        backend,
		embedder:       embedder,
		embeddingModel: embeddingModel,
		maxResults:     DefaultMaxResults,
		resolution:     ResolveVector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureReady creates both classes if missing
func (s *Store) EnsureReady(ctx context.Context) error {
	catalogProps := []*models.Property{
		{Name: "title", DataType: []string{"text"}},
		{Name: "instructor", DataType: []string{"text"}},
		{Name: "courseLink", DataType: []string{"text"}},
		{Name: "lessonsJSON", DataType: []string{"text"}},
		{Name: "lessonCount", DataType: []string{"int"}},
	}
	if err := s.backend.EnsureSchema(ctx, CatalogClass, catalogProps); err != nil {
		return &StorageError{Op: "ensure catalog schema", Err: err}
	}

	contentProps := []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "courseTitle", DataType: []string{"text"}},
		{Name: "lessonNumber", DataType: []string{"int"}},
		{Name: "chunkIndex", DataType: []string{"int"}},
	}
	if err := s.backend.EnsureSchema(ctx, ContentClass, contentProps); err != nil {
		return &StorageError{Op: "ensure content schema", Err: err}
	}

	return nil
}

// AddCourseMetadata upserts the catalog entry for a course. The object id
// is derived from the title, so re-adding a course overwrites its entry.
func (s *Store) AddCourseMetadata(ctx context.Context, c *course.Course) error {
	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return &StorageError{Op: "encode lessons", Err: err}
	}

	vector, err := s.embedder.GetEmbedding(ctx, s.embeddingModel, c.Title)
	if err != nil {
		return &StorageError{Op: "embed course title", Err: err}
	}

	obj := weaviate.VectorObject{
		ID:     catalogID(c.Title),
		Vector: vector,
		Properties: map[string]interface{}{
			"title":       c.Title,
			"instructor":  c.Instructor,
			"courseLink":  c.Link,
			"lessonsJSON": string(lessonsJSON),
			"lessonCount": len(c.Lessons),
		},
	}
	if err := s.backend.AddVector(ctx, CatalogClass, obj); err != nil {
		return &StorageError{Op: "add course metadata", Err: err}
	}

	return nil
}

// AddCourseChunks embeds and stores content chunks. Object ids are derived
// from course title and chunk index, so re-ingestion upserts in place.
func (s *Store) AddCourseChunks(ctx context.Context, chunks []course.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	objects := make([]weaviate.VectorObject, 0, len(chunks))
	for _, ch := range chunks {
		vector, err := s.embedder.GetEmbedding(ctx, s.embeddingModel, ch.Content)
		if err != nil {
			return &StorageError{Op: fmt.Sprintf("embed chunk %d of %q", ch.Index, ch.CourseTitle), Err: err}
		}

		props := map[string]interface{}{
			"content":     ch.Content,
			"courseTitle": ch.CourseTitle,
			"chunkIndex":  ch.Index,
		}
		if ch.LessonNumber != nil {
			props["lessonNumber"] = *ch.LessonNumber
		}

		objects = append(objects, weaviate.VectorObject{
			ID:         contentID(ch.CourseTitle, ch.Index),
			Vector:     vector,
			Properties: props,
		})
	}

	if err := s.backend.BatchAddVectors(ctx, ContentClass, objects); err != nil {
		return &StorageError{Op: "add course chunks", Err: err}
	}

	return nil
}

// Search embeds the query and returns the closest content chunks,
// optionally restricted to one exact course title and one lesson number.
// An empty result is not an error.
func (s *Store) Search(ctx context.Context, query string, courseTitle string, lessonNumber *int, limit int) ([]SearchResult, error) {
	vector, err := s.embedder.GetEmbedding(ctx, s.embeddingModel, query)
	if err != nil {
		return nil, &StorageError{Op: "embed query", Err: err}
	}

	if limit <= 0 {
		limit = s.maxResults
	}

	config := weaviate.QueryConfig{
		Fields: []string{"content", "courseTitle", "lessonNumber", "chunkIndex"},
		Limit:  limit,
		Where:  contentFilter(courseTitle, lessonNumber),
	}

	results, err := s.backend.QueryVectors(ctx, ContentClass, vector, config)
	if err != nil {
		return nil, &StorageError{Op: "search content", Err: err}
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		sr := SearchResult{
			Content:     stringProp(r.Properties, "content"),
			CourseTitle: stringProp(r.Properties, "courseTitle"),
			Score:       r.Score,
		}
		if n, ok := intProp(r.Properties, "chunkIndex"); ok {
			sr.ChunkIndex = n
		}
		if n, ok := intProp(r.Properties, "lessonNumber"); ok {
			sr.LessonNumber = &n
		}
		out = append(out, sr)
	}

	return out, nil
}

// CourseExists reports whether a course with this exact title is cataloged
func (s *Store) CourseExists(ctx context.Context, title string) (bool, error) {
	results, err := s.backend.QueryObjects(ctx, CatalogClass, weaviate.QueryConfig{
		Fields: []string{"title"},
		Limit:  1,
		Where:  titleFilter(title),
	})
	if err != nil {
		return false, &StorageError{Op: "check course", Err: err}
	}

	return len(results) > 0, nil
}

// DeleteCourse removes the catalog entry and every content chunk of the
// course. Used before re-ingestion so replacement is wholesale.
func (s *Store) DeleteCourse(ctx context.Context, title string) error {
	contentWhere := wvfilters.Where().
		WithPath([]string{"courseTitle"}).
		WithOperator(wvfilters.Equal).
		WithValueText(title)
	if err := s.backend.DeleteByFilter(ctx, ContentClass, contentWhere); err != nil {
		return &StorageError{Op: "delete course content", Err: err}
	}

	if err := s.backend.DeleteByFilter(ctx, CatalogClass, titleFilter(title)); err != nil {
		return &StorageError{Op: "delete course catalog entry", Err: err}
	}

	return nil
}

// ListCourseTitles returns every cataloged course title
func (s *Store) ListCourseTitles(ctx context.Context) ([]string, error) {
	results, err := s.backend.QueryObjects(ctx, CatalogClass, weaviate.QueryConfig{
		Fields: []string{"title"},
		Limit:  catalogListLimit,
	})
	if err != nil {
		return nil, &StorageError{Op: "list courses", Err: err}
	}

	titles := make([]string, 0, len(results))
	for _, r := range results {
		if title := stringProp(r.Properties, "title"); title != "" {
			titles = append(titles, title)
		}
	}

	return titles, nil
}

// GetCourseOutline fetches the catalog entry for an exact title, including
// the parsed lesson list. Returns (nil, nil) when the course is unknown.
func (s *Store) GetCourseOutline(ctx context.Context, title string) (*course.Course, error) {
	results, err := s.backend.QueryObjects(ctx, CatalogClass, weaviate.QueryConfig{
		Fields: []string{"title", "instructor", "courseLink", "lessonsJSON"},
		Limit:  1,
		Where:  titleFilter(title),
	})
	if err != nil {
		return nil, &StorageError{Op: "get course outline", Err: err}
	}
	if len(results) == 0 {
		return nil, nil
	}

	props := results[0].Properties
	c := &course.Course{
		Title:      stringProp(props, "title"),
		Instructor: stringProp(props, "instructor"),
		Link:       stringProp(props, "courseLink"),
	}
	if raw := stringProp(props, "lessonsJSON"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Lessons); err != nil {
			log.Error(err, "failed to decode cataloged lessons", "course", c.Title)
		}
	}

	return c, nil
}

// ResolveCourseName maps a possibly partial course name to an exact
// cataloged title. Returns "" when nothing matches.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	if s.resolution == ResolveSubstring {
		return s.resolveBySubstring(ctx, name)
	}
	return s.resolveByVector(ctx, name)
}

func (s *Store) resolveByVector(ctx context.Context, name string) (string, error) {
	vector, err := s.embedder.GetEmbedding(ctx, s.embeddingModel, name)
	if err != nil {
		return "", &StorageError{Op: "embed course name", Err: err}
	}

	results, err := s.backend.QueryVectors(ctx, CatalogClass, vector, weaviate.QueryConfig{
		Fields: []string{"title"},
		Limit:  1,
	})
	if err != nil {
		return "", &StorageError{Op: "resolve course name", Err: err}
	}
	if len(results) == 0 {
		return "", nil
	}

	return stringProp(results[0].Properties, "title"), nil
}

func (s *Store) resolveBySubstring(ctx context.Context, name string) (string, error) {
	titles, err := s.ListCourseTitles(ctx)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(name)
	for _, title := range titles {
		if strings.EqualFold(title, name) {
			return title, nil
		}
	}
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), needle) {
			return title, nil
		}
	}

	return "", nil
}

func titleFilter(title string) *wvfilters.WhereBuilder {
	return wvfilters.Where().
		WithPath([]string{"title"}).
		WithOperator(wvfilters.Equal).
		WithValueText(title)
}

func contentFilter(courseTitle string, lessonNumber *int) *wvfilters.WhereBuilder {
	var operands []*wvfilters.WhereBuilder
	if courseTitle != "" {
		operands = append(operands, wvfilters.Where().
			WithPath([]string{"courseTitle"}).
			WithOperator(wvfilters.Equal).
			WithValueText(courseTitle))
	}
	if lessonNumber != nil {
		operands = append(operands, wvfilters.Where().
			WithPath([]string{"lessonNumber"}).
			WithOperator(wvfilters.Equal).
			WithValueInt(int64(*lessonNumber)))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return wvfilters.Where().
			WithOperator(wvfilters.And).
			WithOperands(operands)
	}
}

func catalogID(title string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("course-catalog/"+title)).String()
}

func contentID(title string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("course-content/%s/%d", title, index))).String()
}

func stringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func intProp(props map[string]interface{}, key string) (int, bool) {
	switch v := props[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
