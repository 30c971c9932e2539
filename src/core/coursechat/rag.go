package coursechat

import (
	"context"
	"fmt"
	"path/filepath"

	"coursechat/src/core/course"
	"coursechat/src/core/session"
	"coursechat/src/fsutil"
	"coursechat/src/log"
)

// CourseStore is the full store surface the orchestrator needs
type CourseStore interface {
	SearchStore
	EnsureReady(ctx context.Context) error
	CourseExists(ctx context.Context, title string) (bool, error)
	DeleteCourse(ctx context.Context, title string) error
	AddCourseMetadata(ctx context.Context, c *course.Course) error
	AddCourseChunks(ctx context.Context, chunks []course.Chunk) error
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// AnswerGenerator produces an answer and its backing sources for one
// query given rendered history
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, history string, tools *ToolManager) (string, []Source, error)
}

// Pinger probes the embedding backend. Matches the Ollama client.
type Pinger interface {
	Models(ctx context.Context) ([]string, error)
}

// Analytics summarizes the ingested catalog
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// ComponentStatus is the health of one backing service
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

// HealthStatus reports overall and per-component health
type HealthStatus struct {
	Status     string `json:"status"`
	Components struct {
		Weaviate ComponentStatus `json:"weaviate"`
		Ollama   ComponentStatus `json:"ollama"`
	} `json:"components"`
}

// System wires the document processor, course store, tools, generator and
// session manager into the question answering flow.
type System struct {
	processor *course.Processor
	store     CourseStore
	generator AnswerGenerator
	sessions  *session.Manager
	tools     *ToolManager
	files     fsutil.FileStore
	pinger    Pinger
}

// SystemOption configures a System
type SystemOption func(*System)

// WithFileStore overrides the filesystem access used to load documents
func WithFileStore(fs fsutil.FileStore) SystemOption {
	return func(s *System) {
		s.files = fs
	}
}

// WithPinger sets the embedding backend probe used by CheckHealth
func WithPinger(p Pinger) SystemOption {
	return func(s *System) {
		s.pinger = p
	}
}

// NewSystem creates a System. The default tool set is the course search
// and course outline tools over the store.
func NewSystem(processor *course.Processor, store CourseStore, generator AnswerGenerator, sessions *session.Manager, opts ...SystemOption) *System {
	s := &System{
		processor: processor,
		store:     store,
		generator: generator,
		sessions:  sessions,
		tools:     NewToolManager(),
		files:     fsutil.NewLocalFileStore(),
	}
	s.tools.Register(NewCourseSearchTool(store))
	s.tools.Register(NewCourseOutlineTool(store))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListDocuments returns the course document paths under dir
func (s *System) ListDocuments(dir string) ([]string, error) {
	return s.files.ListFiles(dir, ".txt")
}

// LoadDocument ingests one course document. Documents whose course is
// already stored are skipped unless force is set, in which case the stored
// course is replaced wholesale. Returns the course title and whether the
// document was ingested.
func (s *System) LoadDocument(ctx context.Context, path string, force bool) (string, bool, error) {
	data, err := s.files.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}

	c, chunks, err := s.processor.Process(filepath.Base(path), string(data))
	if err != nil {
		return "", false, err
	}

	exists, err := s.store.CourseExists(ctx, c.Title)
	if err != nil {
		return c.Title, false, err
	}
	if exists {
		if !force {
			return c.Title, false, nil
		}
		if err := s.store.DeleteCourse(ctx, c.Title); err != nil {
			return c.Title, false, err
		}
	}

	if err := s.store.AddCourseMetadata(ctx, c); err != nil {
		return c.Title, false, err
	}
	if err := s.store.AddCourseChunks(ctx, chunks); err != nil {
		return c.Title, false, err
	}

	log.Info("ingested course document", "course", c.Title, "lessons", len(c.Lessons), "chunks", len(chunks))
	return c.Title, true, nil
}

// LoadDocuments ingests every course document under dir. A failing
// document is logged and skipped; it never aborts the rest of the load.
func (s *System) LoadDocuments(ctx context.Context, dir string, force bool) (added int, skipped int, err error) {
	paths, err := s.ListDocuments(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("list documents in %s: %w", dir, err)
	}

	for _, path := range paths {
		_, ingested, err := s.LoadDocument(ctx, path, force)
		if err != nil {
			log.Error(err, "skipping course document", "path", path)
			skipped++
			continue
		}
		if ingested {
			added++
		} else {
			skipped++
		}
	}

	return added, skipped, nil
}

// Query answers one user question. A missing session id creates a new
// session. The sources collected during the exchange's tool runs
// accompany the answer.
func (s *System) Query(ctx context.Context, query string, sessionID string) (string, []Source, string, error) {
	if sessionID == "" {
		sessionID = s.sessions.Create()
	}
	history := s.sessions.History(sessionID)

	answer, sources, err := s.generator.Generate(ctx, query, history, s.tools)
	if err != nil {
		return "", nil, sessionID, err
	}

	s.sessions.AddExchange(sessionID, query, answer)

	return answer, sources, sessionID, nil
}

// Analytics reports the cataloged course count and titles
func (s *System) Analytics(ctx context.Context) (*Analytics, error) {
	titles, err := s.store.ListCourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{TotalCourses: len(titles), CourseTitles: titles}, nil
}

// CheckHealth probes the vector store and, when configured, the embedding
// backend
func (s *System) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{Status: "healthy"}
	status.Components.Weaviate = StatusDown
	status.Components.Ollama = StatusDown

	if _, err := s.store.ListCourseTitles(ctx); err == nil {
		status.Components.Weaviate = StatusUp
	}
	if s.pinger != nil {
		if _, err := s.pinger.Models(ctx); err == nil {
			status.Components.Ollama = StatusUp
		}
	}

	if status.Components.Weaviate == StatusDown || status.Components.Ollama == StatusDown {
		status.Status = "unhealthy"
	}

	return status
}
