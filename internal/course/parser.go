package course

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoStructure indicates a document without recognizable course structure
// markers. It is recoverable: callers skip the document and continue the
// batch instead of aborting ingestion.
var ErrNoStructure = errors.New("no course structure markers found")

// Document structure markers. A course document starts with a header block
//
//	Course Title: Intro to Testing
//	Course Link: https://example.com/courses/intro
//	Course Instructor: Ada Lovelace
//
// followed by lesson sections introduced by "Lesson N: title" lines, each
// optionally followed by a "Lesson Link:" line.
const (
	markerTitle       = "course title:"
	markerCourseLink  = "course link:"
	markerInstructor  = "course instructor:"
	markerDescription = "course description:"
	markerLessonLink  = "lesson link:"
)

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// ParseDocument parses a raw course document into a Course. The name is used
// only for error messages. A document without a course title header returns
// ErrNoStructure. A document with a header but no lesson markers yields a
// single lesson 0 titled "Overview" containing the whole body.
func ParseDocument(name string, r io.Reader) (*Course, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	c := &Course{}
	var current *Lesson
	var content strings.Builder
	headerDone := false

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(content.String())
		c.Lessons = append(c.Lessons, *current)
		current = nil
		content.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if !headerDone {
			switch {
			case strings.HasPrefix(lower, markerTitle):
				c.Title = strings.TrimSpace(trimmed[len(markerTitle):])
				continue
			case strings.HasPrefix(lower, markerCourseLink):
				c.Link = strings.TrimSpace(trimmed[len(markerCourseLink):])
				continue
			case strings.HasPrefix(lower, markerInstructor):
				c.Instructor = strings.TrimSpace(trimmed[len(markerInstructor):])
				continue
			case strings.HasPrefix(lower, markerDescription):
				c.Description = strings.TrimSpace(trimmed[len(markerDescription):])
				continue
			}
		}

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			headerDone = true
			flush()
			num, err := strconv.Atoi(m[1])
			if err != nil {
				// Regex guarantees digits; overflow is the only failure mode.
				return nil, fmt.Errorf("document %q: lesson number %q: %w", name, m[1], err)
			}
			current = &Lesson{Number: num, Title: strings.TrimSpace(m[2])}
			continue
		}

		if current != nil && strings.HasPrefix(lower, markerLessonLink) && content.Len() == 0 {
			current.Link = strings.TrimSpace(trimmed[len(markerLessonLink):])
			continue
		}

		if trimmed == "" && current == nil {
			continue
		}

		if current == nil {
			// Body text before any lesson marker: collect it as an implicit
			// lesson 0 so header-only documents remain searchable.
			headerDone = true
			current = &Lesson{Number: 0, Title: "Overview"}
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("document %q: %w", name, err)
	}
	flush()

	if c.Title == "" {
		return nil, fmt.Errorf("document %q: %w", name, ErrNoStructure)
	}

	return c, nil
}

// Outline returns the structural view of the course without lesson content.
func (c *Course) Outline() *Outline {
	o := &Outline{
		CourseTitle: c.Title,
		CourseLink:  c.Link,
		Instructor:  c.Instructor,
		Lessons:     make([]LessonInfo, 0, len(c.Lessons)),
	}
	for _, l := range c.Lessons {
		o.Lessons = append(o.Lessons, LessonInfo{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	return o
}
