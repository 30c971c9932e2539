package course

import "fmt"

// Course is the parsed metadata of one course document
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is one numbered lesson inside a course
type Lesson struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// Chunk is one embeddable slice of course text. LessonNumber is nil for
// text that appears before the first lesson header. Index is course-scoped
// and contiguous across lessons.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Index        int
}

// MalformedDocumentError reports a document that does not follow the
// expected header convention.
type MalformedDocumentError struct {
	Path   string
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed course document %s: %s", e.Path, e.Reason)
}
