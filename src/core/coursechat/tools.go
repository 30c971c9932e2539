package coursechat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"coursechat/src/core/course"
	"coursechat/src/core/coursestore"
	"coursechat/src/log"
)

// Source points back at the material an answer drew on
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Tool is one capability the model may invoke. Execute returns the text
// fed back to the model plus the sources backing it.
type Tool interface {
	Definition() llms.Tool
	Execute(ctx context.Context, args map[string]interface{}) (string, []Source, error)
}

// ToolManager registers tools and dispatches executions. It holds no
// per-exchange state; sources flow back through Execute so concurrent
// queries stay independent.
type ToolManager struct {
	mu    sync.Mutex
	tools map[string]Tool
	order []string
}

// NewToolManager creates an empty ToolManager
func NewToolManager() *ToolManager {
	return &ToolManager{tools: make(map[string]Tool)}
}

// Register adds a tool under its definition name, replacing any previous
// tool with the same name
func (m *ToolManager) Register(t Tool) {
	name := t.Definition().Function.Name

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tools[name]; !exists {
		m.order = append(m.order, name)
	}
	m.tools[name] = t
}

// Definitions returns the registered tool definitions in registration order
func (m *ToolManager) Definitions() []llms.Tool {
	m.mu.Lock()
	defer m.mu.Unlock()

	defs := make([]llms.Tool, 0, len(m.order))
	for _, name := range m.order {
		defs = append(defs, m.tools[name].Definition())
	}
	return defs
}

// Execute runs the named tool and returns its result text and sources.
// Unknown names yield an *UnknownToolError.
func (m *ToolManager) Execute(ctx context.Context, name string, args map[string]interface{}) (string, []Source, error) {
	m.mu.Lock()
	tool, ok := m.tools[name]
	m.mu.Unlock()
	if !ok {
		return "", nil, &UnknownToolError{Name: name}
	}

	return tool.Execute(ctx, args)
}

// SearchStore is the store surface the course tools need
type SearchStore interface {
	Search(ctx context.Context, query string, courseTitle string, lessonNumber *int, limit int) ([]coursestore.SearchResult, error)
	ResolveCourseName(ctx context.Context, name string) (string, error)
	GetCourseOutline(ctx context.Context, title string) (*course.Course, error)
}

// CourseSearchTool answers content questions by semantic search with
// optional course and lesson filters
type CourseSearchTool struct {
	store SearchStore
}

// NewCourseSearchTool creates a CourseSearchTool over the store
func NewCourseSearchTool(store SearchStore) *CourseSearchTool {
	return &CourseSearchTool{store: store}
}

func (t *CourseSearchTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "search_course_content",
			Description: "Search course materials with smart course name matching and lesson filtering",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "What to search for in the course content",
					},
					"course_name": map[string]interface{}{
						"type":        "string",
						"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
					},
					"lesson_number": map[string]interface{}{
						"type":        "integer",
						"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, []Source, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", nil, fmt.Errorf("search_course_content requires a query")
	}
	courseName, _ := args["course_name"].(string)
	lessonNumber := intArg(args, "lesson_number")

	courseTitle := ""
	if courseName != "" {
		resolved, err := t.store.ResolveCourseName(ctx, courseName)
		if err != nil {
			return "", nil, err
		}
		if resolved == "" {
			return fmt.Sprintf("No course found matching '%s'", courseName), nil, nil
		}
		courseTitle = resolved
	}

	results, err := t.store.Search(ctx, query, courseTitle, lessonNumber, 0)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return emptySearchMessage(courseTitle, lessonNumber), nil, nil
	}

	links := t.lessonLinks(ctx, courseTitle, results)

	var formatted []string
	var sources []Source
	for _, r := range results {
		header := fmt.Sprintf("[%s]", r.CourseTitle)
		label := r.CourseTitle
		if r.LessonNumber != nil {
			header = fmt.Sprintf("[%s - Lesson %d]", r.CourseTitle, *r.LessonNumber)
			label = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, *r.LessonNumber)
		}
		formatted = append(formatted, header+"\n"+r.Content)

		source := Source{Text: label}
		if r.LessonNumber != nil {
			source.Link = links[lessonKey(r.CourseTitle, *r.LessonNumber)]
		}
		sources = append(sources, source)
	}

	return strings.Join(formatted, "\n\n"), sources, nil
}

// lessonLinks resolves lesson links for the courses present in results.
// Link lookup is best effort; failures only cost the link.
func (t *CourseSearchTool) lessonLinks(ctx context.Context, courseTitle string, results []coursestore.SearchResult) map[string]string {
	titles := map[string]bool{}
	if courseTitle != "" {
		titles[courseTitle] = true
	} else {
		for _, r := range results {
			titles[r.CourseTitle] = true
		}
	}

	links := make(map[string]string)
	for title := range titles {
		c, err := t.store.GetCourseOutline(ctx, title)
		if err != nil || c == nil {
			if err != nil {
				log.Debug("lesson link lookup failed", "course", title, "error", err)
			}
			continue
		}
		for _, lesson := range c.Lessons {
			if lesson.Link != "" {
				links[lessonKey(title, lesson.Number)] = lesson.Link
			}
		}
	}
	return links
}

func lessonKey(title string, lesson int) string {
	return fmt.Sprintf("%s#%d", title, lesson)
}

func emptySearchMessage(courseTitle string, lessonNumber *int) string {
	msg := "No relevant content found"
	if courseTitle != "" {
		msg += fmt.Sprintf(" in course '%s'", courseTitle)
	}
	if lessonNumber != nil {
		msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
	}
	return msg + "."
}

// CourseOutlineTool reports a course's link and lesson list
type CourseOutlineTool struct {
	store SearchStore
}

// NewCourseOutlineTool creates a CourseOutlineTool over the store
func NewCourseOutlineTool(store SearchStore) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "get_course_outline",
			Description: "Get the outline of a course: its title, link, and complete lesson list",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"course_name": map[string]interface{}{
						"type":        "string",
						"description": "Course title (partial matches work)",
					},
				},
				"required": []string{"course_name"},
			},
		},
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]interface{}) (string, []Source, error) {
	courseName, _ := args["course_name"].(string)
	if courseName == "" {
		return "", nil, fmt.Errorf("get_course_outline requires a course_name")
	}

	resolved, err := t.store.ResolveCourseName(ctx, courseName)
	if err != nil {
		return "", nil, err
	}
	if resolved == "" {
		return fmt.Sprintf("No course found matching '%s'", courseName), nil, nil
	}

	c, err := t.store.GetCourseOutline(ctx, resolved)
	if err != nil {
		return "", nil, err
	}
	if c == nil {
		return fmt.Sprintf("No course found matching '%s'", courseName), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", c.Link)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(c.Lessons))
	for _, lesson := range c.Lessons {
		fmt.Fprintf(&b, "  %d. %s\n", lesson.Number, lesson.Title)
	}

	source := Source{Text: c.Title, Link: c.Link}
	return strings.TrimRight(b.String(), "\n"), []Source{source}, nil
}

func intArg(args map[string]interface{}, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	}
	return nil
}
