package course

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

var lessonHeaderRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Processor parses course documents and splits their text into
// overlapping chunks. It performs no storage side effects.
type Processor struct {
	chunkSize    int
	chunkOverlap int
}

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor)

// WithChunkSize sets the maximum chunk size in characters
func WithChunkSize(size int) ProcessorOption {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks in characters.
// Values >= the chunk size are clamped below it.
func WithChunkOverlap(overlap int) ProcessorOption {
	return func(p *Processor) {
		p.chunkOverlap = overlap
	}
}

// NewProcessor creates a Processor with the given options
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.chunkSize < 1 {
		p.chunkSize = DefaultChunkSize
	}
	if p.chunkOverlap < 0 {
		p.chunkOverlap = 0
	}
	if p.chunkOverlap >= p.chunkSize {
		p.chunkOverlap = p.chunkSize - 1
	}
	return p
}

// Process parses one course document. The expected layout is a
// "Course Title:" header, optional "Course Link:" and "Course Instructor:"
// lines, then repeated "Lesson N: Title" sections each with an optional
// "Lesson Link:" line. A missing title header yields a
// *MalformedDocumentError.
func (p *Processor) Process(path string, text string) (*Course, []Chunk, error) {
	lines := strings.Split(text, "\n")

	c := &Course{}
	i := 0

	// skip leading blank lines
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) {
		return nil, nil, &MalformedDocumentError{Path: path, Reason: "empty document"}
	}

	title, ok := headerValue(lines[i], "Course Title:")
	if !ok || title == "" {
		return nil, nil, &MalformedDocumentError{Path: path, Reason: "missing Course Title header"}
	}
	c.Title = title
	i++

	// optional metadata lines before the first lesson
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if v, ok := headerValue(line, "Course Link:"); ok {
			c.Link = v
			i++
			continue
		}
		if v, ok := headerValue(line, "Course Instructor:"); ok {
			c.Instructor = v
			i++
			continue
		}
		break
	}

	type section struct {
		lesson *Lesson // nil for preamble text
		lines  []string
	}
	sections := []section{{}}

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if m := lessonHeaderRe.FindStringSubmatch(line); m != nil {
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, &MalformedDocumentError{Path: path, Reason: "invalid lesson number in " + line}
			}
			sections = append(sections, section{lesson: &Lesson{Number: number, Title: strings.TrimSpace(m[2])}})
			continue
		}

		current := &sections[len(sections)-1]
		if current.lesson != nil && current.lesson.Link == "" && blankOnly(current.lines) {
			if v, ok := headerValue(line, "Lesson Link:"); ok {
				current.lesson.Link = v
				continue
			}
		}
		current.lines = append(current.lines, lines[i])
	}

	var chunks []Chunk
	index := 0
	for _, sec := range sections {
		var lessonNumber *int
		if sec.lesson != nil {
			n := sec.lesson.Number
			lessonNumber = &n
			c.Lessons = append(c.Lessons, *sec.lesson)
		}

		body := strings.TrimSpace(strings.Join(sec.lines, "\n"))
		if body == "" {
			continue
		}
		for _, piece := range p.Split(body) {
			chunks = append(chunks, Chunk{
				Content:      piece,
				CourseTitle:  c.Title,
				LessonNumber: lessonNumber,
				Index:        index,
			})
			index++
		}
	}

	return c, chunks, nil
}

// Split cuts text into chunks of at most chunkSize characters on word
// boundaries, each chunk sharing roughly chunkOverlap trailing characters
// with its successor. Whitespace is normalized to single spaces; joining
// the chunks with the shared words removed reproduces the normalized text.
func (p *Processor) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end := start
		length := 0
		for end < len(words) {
			wordLen := len(words[end])
			if end > start {
				wordLen++ // separating space
			}
			if length+wordLen > p.chunkSize && end > start {
				break
			}
			length += wordLen
			end++
		}

		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}

		// back off from the cut point until the overlap budget is spent,
		// always keeping at least one word of forward progress
		next := end
		run := 0
		for next > start+1 {
			cand := len(words[next-1])
			if run > 0 {
				cand++
			}
			if run+cand > p.chunkOverlap {
				break
			}
			run += cand
			next--
		}
		start = next
	}

	return chunks
}

// blankOnly reports whether no body text has been collected yet, so a
// "Lesson Link:" line separated from its header by blank lines still
// counts as metadata rather than content
func blankOnly(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

func headerValue(line string, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}
