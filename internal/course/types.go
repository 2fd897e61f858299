// Package course defines the course material data model and the document
// processing pipeline that turns raw course documents into indexable chunks.
package course

// Course represents one ingested course. The title is the unique identifier;
// a course is immutable once ingested and re-ingestion of the same title is
// a no-op (duplicate detection happens in the vector store).
type Course struct {
	Title       string
	Link        string
	Instructor  string
	Description string
	Lessons     []Lesson
}

// Lesson is a numbered section of a course. It is owned exclusively by its
// course; the number is unique within the course.
type Lesson struct {
	Number  int
	Title   string
	Link    string
	Content string
}

// Chunk is a contiguous span of lesson text, the unit of vector-search
// retrieval. Chunks are immutable once created and traceable to exactly one
// (CourseTitle, Lesson) pair; Index orders chunks within a lesson.
type Chunk struct {
	CourseTitle string
	Lesson      int
	Index       int
	Content     string
}

// Outline is the structural view of a course: its header metadata plus the
// ordered lesson list, without lesson content.
type Outline struct {
	CourseTitle string       `json:"course_title"`
	CourseLink  string       `json:"course_link,omitempty"`
	Instructor  string       `json:"instructor,omitempty"`
	Lessons     []LessonInfo `json:"lessons"`
}

// LessonInfo is one outline entry.
type LessonInfo struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}
