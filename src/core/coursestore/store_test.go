package coursestore_test

import (
	"context"
	"errors"
	"testing"

	wvfilters "github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"

	"coursechat/src/core/course"
	"coursechat/src/core/coursestore"
	"coursechat/src/storage/weaviate"
)

type fakeEmbedder struct {
	calls []string
	err   error
}

func (f *fakeEmbedder) GetEmbedding(_ context.Context, _ string, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeBackend struct {
	added        map[string][]weaviate.VectorObject
	queryResults []weaviate.QueryResult
	lastConfig   weaviate.QueryConfig
	deleted      []string
	err          error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{added: make(map[string][]weaviate.VectorObject)}
}

func (f *fakeBackend) EnsureSchema(context.Context, string, []*models.Property) error {
	return f.err
}

func (f *fakeBackend) AddVector(_ context.Context, className string, object weaviate.VectorObject) error {
	if f.err != nil {
		return f.err
	}
	f.added[className] = append(f.added[className], object)
	return nil
}

func (f *fakeBackend) BatchAddVectors(_ context.Context, className string, objects []weaviate.VectorObject) error {
	if f.err != nil {
		return f.err
	}
	f.added[className] = append(f.added[className], objects...)
	return nil
}

func (f *fakeBackend) QueryVectors(_ context.Context, _ string, _ []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error) {
	f.lastConfig = config
	return f.queryResults, f.err
}

func (f *fakeBackend) QueryObjects(_ context.Context, _ string, config weaviate.QueryConfig) ([]weaviate.QueryResult, error) {
	f.lastConfig = config
	return f.queryResults, f.err
}

func (f *fakeBackend) DeleteByFilter(_ context.Context, className string, _ *wvfilters.WhereBuilder) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, className)
	return nil
}

func intPtr(n int) *int { return &n }

func TestSearchMapsResults(t *testing.T) {
	backend := newFakeBackend()
	backend.queryResults = []weaviate.QueryResult{
		{
			ID:    "abc",
			Score: 0.12,
			Properties: map[string]interface{}{
				"content":      "chunk text",
				"courseTitle":  "Course A",
				"lessonNumber": float64(2),
				"chunkIndex":   float64(7),
			},
		},
		{
			ID:    "def",
			Score: 0.31,
			Properties: map[string]interface{}{
				"content":     "preamble text",
				"courseTitle": "Course A",
				"chunkIndex":  float64(0),
			},
		},
	}
	store := coursestore.NewStore(backend, &fakeEmbedder{}, "nomic-embed-text")

	results, err := store.Search(context.Background(), "what is a chunk", "", nil, 0)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	first := results[0]
	if first.Content != "chunk text" || first.CourseTitle != "Course A" || first.ChunkIndex != 7 {
		t.Errorf("unexpected first result: %+v", first)
	}
	if first.LessonNumber == nil || *first.LessonNumber != 2 {
		t.Errorf("first result lesson = %v, want 2", first.LessonNumber)
	}
	if results[1].LessonNumber != nil {
		t.Errorf("second result lesson = %v, want nil for preamble chunks", *results[1].LessonNumber)
	}
	if backend.lastConfig.Where != nil {
		t.Error("unfiltered search should not carry a where filter")
	}
}

func TestSearchAppliesFilters(t *testing.T) {
	tests := []struct {
		name       string
		courseName string
		lesson     *int
		wantWhere  bool
	}{
		{"no filters", "", nil, false},
		{"course only", "Course A", nil, true},
		{"lesson only", "", intPtr(3), true},
		{"both", "Course A", intPtr(3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			store := coursestore.NewStore(backend, &fakeEmbedder{}, "m")

			if _, err := store.Search(context.Background(), "q", tt.courseName, tt.lesson, 5); err != nil {
				t.Fatalf("Search returned error: %v", err)
			}
			if got := backend.lastConfig.Where != nil; got != tt.wantWhere {
				t.Errorf("where filter present = %v, want %v", got, tt.wantWhere)
			}
		})
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	store := coursestore.NewStore(newFakeBackend(), &fakeEmbedder{}, "m")

	results, err := store.Search(context.Background(), "nothing matches", "", nil, 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchWrapsBackendErrors(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errors.New("connection refused")
	store := coursestore.NewStore(backend, &fakeEmbedder{}, "m")

	_, err := store.Search(context.Background(), "q", "", nil, 5)
	var storageErr *coursestore.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("got error %v, want *StorageError", err)
	}
	if !errors.Is(err, backend.err) {
		t.Error("StorageError does not wrap the backend error")
	}
}

func TestAddCourseChunksDeterministicIDs(t *testing.T) {
	chunks := []course.Chunk{
		{Content: "first", CourseTitle: "Course A", Index: 0},
		{Content: "second", CourseTitle: "Course A", LessonNumber: intPtr(1), Index: 1},
	}

	backendA := newFakeBackend()
	backendB := newFakeBackend()
	if err := coursestore.NewStore(backendA, &fakeEmbedder{}, "m").AddCourseChunks(context.Background(), chunks); err != nil {
		t.Fatalf("AddCourseChunks returned error: %v", err)
	}
	if err := coursestore.NewStore(backendB, &fakeEmbedder{}, "m").AddCourseChunks(context.Background(), chunks); err != nil {
		t.Fatalf("AddCourseChunks returned error: %v", err)
	}

	objsA := backendA.added[coursestore.ContentClass]
	objsB := backendB.added[coursestore.ContentClass]
	if len(objsA) != 2 || len(objsB) != 2 {
		t.Fatalf("got %d and %d objects, want 2 each", len(objsA), len(objsB))
	}
	for i := range objsA {
		if objsA[i].ID == "" {
			t.Errorf("object %d has empty id", i)
		}
		if objsA[i].ID != objsB[i].ID {
			t.Errorf("object %d ids differ across ingestions: %s vs %s", i, objsA[i].ID, objsB[i].ID)
		}
	}

	if _, ok := objsA[0].Properties["lessonNumber"]; ok {
		t.Error("preamble chunk should not carry lessonNumber")
	}
	if got, ok := objsA[1].Properties["lessonNumber"]; !ok || got != 1 {
		t.Errorf("lesson chunk lessonNumber = %v, want 1", got)
	}
}

func TestDeleteCourseRemovesContentAndCatalog(t *testing.T) {
	backend := newFakeBackend()
	store := coursestore.NewStore(backend, &fakeEmbedder{}, "m")

	if err := store.DeleteCourse(context.Background(), "Course A"); err != nil {
		t.Fatalf("DeleteCourse returned error: %v", err)
	}

	if len(backend.deleted) != 2 {
		t.Fatalf("got %d delete calls, want 2", len(backend.deleted))
	}
	if backend.deleted[0] != coursestore.ContentClass || backend.deleted[1] != coursestore.CatalogClass {
		t.Errorf("deleted classes = %v", backend.deleted)
	}
}

func TestCourseExists(t *testing.T) {
	backend := newFakeBackend()
	store := coursestore.NewStore(backend, &fakeEmbedder{}, "m")

	exists, err := store.CourseExists(context.Background(), "Course A")
	if err != nil {
		t.Fatalf("CourseExists returned error: %v", err)
	}
	if exists {
		t.Error("empty catalog reports course as existing")
	}

	backend.queryResults = []weaviate.QueryResult{{Properties: map[string]interface{}{"title": "Course A"}}}
	exists, err = store.CourseExists(context.Background(), "Course A")
	if err != nil {
		t.Fatalf("CourseExists returned error: %v", err)
	}
	if !exists {
		t.Error("cataloged course reported missing")
	}
}

func TestResolveCourseNameSubstring(t *testing.T) {
	backend := newFakeBackend()
	backend.queryResults = []weaviate.QueryResult{
		{Properties: map[string]interface{}{"title": "MCP: Build Rich-Context AI Apps"}},
		{Properties: map[string]interface{}{"title": "Introduction to Vector Search"}},
	}
	store := coursestore.NewStore(backend, &fakeEmbedder{}, "m",
		coursestore.WithResolution(coursestore.ResolveSubstring))

	tests := []struct {
		name string
		want string
	}{
		{"MCP", "MCP: Build Rich-Context AI Apps"},
		{"vector search", "Introduction to Vector Search"},
		{"introduction to vector search", "Introduction to Vector Search"},
		{"quantum knitting", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := store.ResolveCourseName(context.Background(), tt.name)
		if err != nil {
			t.Fatalf("ResolveCourseName(%q) returned error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ResolveCourseName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGetCourseOutlineDecodesLessons(t *testing.T) {
	backend := newFakeBackend()
	backend.queryResults = []weaviate.QueryResult{{
		Properties: map[string]interface{}{
			"title":       "Course A",
			"instructor":  "Ada",
			"courseLink":  "https://example.com/a",
			"lessonsJSON": `[{"number":0,"title":"Intro","link":"https://example.com/a/0"},{"number":1,"title":"Depth"}]`,
		},
	}}
	store := coursestore.NewStore(backend, &fakeEmbedder{}, "m")

	c, err := store.GetCourseOutline(context.Background(), "Course A")
	if err != nil {
		t.Fatalf("GetCourseOutline returned error: %v", err)
	}
	if c == nil {
		t.Fatal("GetCourseOutline returned nil course")
	}
	if len(c.Lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(c.Lessons))
	}
	if c.Lessons[0].Link != "https://example.com/a/0" {
		t.Errorf("lesson 0 link = %q", c.Lessons[0].Link)
	}

	backend.queryResults = nil
	c, err = store.GetCourseOutline(context.Background(), "Missing")
	if err != nil {
		t.Fatalf("GetCourseOutline returned error: %v", err)
	}
	if c != nil {
		t.Errorf("outline of unknown course = %+v, want nil", c)
	}
}
