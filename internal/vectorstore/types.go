package vectorstore

import "errors"

var (
	// ErrCourseNotFound indicates no indexed course matched the requested name,
	// neither exactly nor by semantic similarity.
	ErrCourseNotFound = errors.New("course not found")

	// ErrEmptyQuery indicates a search with an empty query string.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoChunks indicates an attempt to add a course without any content
	// chunks. The catalog must never reference a course that has no
	// searchable content.
	ErrNoChunks = errors.New("course has no content chunks")
)

// SearchResult is one content chunk returned by semantic search, with enough
// provenance to cite it back to a course and lesson.
type SearchResult struct {
	Content     string
	CourseTitle string
	Lesson      int
	LessonLink  string
	ChunkIndex  int

	// Similarity is the cosine similarity between the query and the chunk,
	// higher is closer.
	Similarity float32
}

// CourseMatch is one catalog entry returned by course-level semantic search.
type CourseMatch struct {
	Title      string
	Similarity float32
}

// Filter narrows a content search. Zero values mean no restriction.
type Filter struct {
	// CourseTitle restricts results to a single course. It must be the
	// canonical indexed title; use ResolveCourseName for fuzzy input.
	CourseTitle string

	// Lesson restricts results to a single lesson number. Nil means all
	// lessons; note that lesson 0 is a valid number.
	Lesson *int
}
