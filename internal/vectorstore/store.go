// Package vectorstore persists course material in an embedded vector database
// and serves semantic search over it.
//
// Two collections back the store:
//   - course_catalog: one document per course, embedding the course metadata
//     (title, instructor, description, lesson titles). Used for fuzzy course
//     name resolution and outline lookups.
//   - course_content: one document per chunk, embedding the chunk text. Used
//     for content search with optional course/lesson filters.
//
// The invariant between them: a course present in the catalog always has its
// chunks present in course_content. Writes touch content first and the
// catalog last, rolling back chunks if the catalog write fails.
package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/coursepilot/coursepilot/internal/course"
	"github.com/coursepilot/coursepilot/internal/log"
)

// Collection names within the chromem database.
const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"
)

// Metadata keys on catalog documents.
const (
	metaTitle       = "title"
	metaLink        = "link"
	metaInstructor  = "instructor"
	metaLessonCount = "lesson_count"
	metaLessonsJSON = "lessons_json"
)

// Metadata keys on content documents.
const (
	metaCourseTitle = "course_title"
	metaLesson      = "lesson"
	metaLessonLink  = "lesson_link"
	metaChunkIndex  = "chunk_index"
)

// Store manages the dual-collection course index.
//
// Reads are safe for concurrent use. Writes (AddCourse, DeleteCourse) are
// serialized internally so the catalog/content invariant holds even under
// concurrent ingestion.
type Store struct {
	db      *chromem.DB
	catalog *chromem.Collection
	content *chromem.Collection
	embed   chromem.EmbeddingFunc
	logger  log.Logger

	// mu serializes dual-collection writes.
	mu sync.Mutex
}

// Open opens (or creates) a persistent store at path.
func Open(path string, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store at %q: %w", path, err)
	}
	return newStore(db, embed, logger)
}

// NewInMemory creates a store without persistence. Test use mostly, but also
// handy for one-shot indexing experiments.
func NewInMemory(embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	return newStore(chromem.NewDB(), embed, logger)
}

func newStore(db *chromem.DB, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	catalog, err := db.GetOrCreateCollection(catalogCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", catalogCollection, err)
	}
	content, err := db.GetOrCreateCollection(contentCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", contentCollection, err)
	}

	return &Store{
		db:      db,
		catalog: catalog,
		content: content,
		embed:   embed,
		logger:  logger,
	}, nil
}

// courseID derives the deterministic catalog document ID for a course title.
func courseID(title string) string {
	sum := sha256.Sum256([]byte(title))
	return "course_" + hex.EncodeToString(sum[:16])
}

// chunkID derives the deterministic content document ID for a chunk.
func chunkID(title string, lesson, index int) string {
	sum := sha256.Sum256([]byte(title))
	return fmt.Sprintf("chunk_%s_%d_%d", hex.EncodeToString(sum[:16]), lesson, index)
}

// HasCourse reports whether a course with this exact title is indexed.
func (s *Store) HasCourse(ctx context.Context, title string) bool {
	_, err := s.catalog.GetByID(ctx, courseID(title))
	return err == nil
}

// AddCourse indexes a course and its pre-chunked content. The returned bool
// is false when the course title was already indexed; re-ingestion is a
// no-op, never a duplicate.
//
// Chunks are written before the catalog entry; if the catalog write fails the
// chunks are rolled back so a half-indexed course is never searchable by name.
func (s *Store) AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) (bool, error) {
	if len(chunks) == 0 {
		return false, fmt.Errorf("course %q: %w", c.Title, ErrNoChunks)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.HasCourse(ctx, c.Title) {
		s.logger.Debug("course already indexed, skipping", "course", c.Title)
		return false, nil
	}

	lessonLinks := make(map[int]string, len(c.Lessons))
	for _, l := range c.Lessons {
		if l.Link != "" {
			lessonLinks[l.Number] = l.Link
		}
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, ch := range chunks {
		meta := map[string]string{
			metaCourseTitle: ch.CourseTitle,
			metaLesson:      strconv.Itoa(ch.Lesson),
			metaChunkIndex:  strconv.Itoa(ch.Index),
		}
		if link, ok := lessonLinks[ch.Lesson]; ok {
			meta[metaLessonLink] = link
		}
		docs = append(docs, chromem.Document{
			ID:       chunkID(ch.CourseTitle, ch.Lesson, ch.Index),
			Content:  ch.Content,
			Metadata: meta,
		})
	}

	if err := s.content.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		// Remove whatever subset made it in.
		if delErr := s.content.Delete(ctx, map[string]string{metaCourseTitle: c.Title}, nil); delErr != nil {
			s.logger.Error("rollback of content chunks failed", "course", c.Title, "error", delErr)
		}
		return false, fmt.Errorf("failed to add content for course %q: %w", c.Title, err)
	}

	catalogDoc, err := buildCatalogDoc(c)
	if err != nil {
		return false, err
	}
	if err := s.catalog.AddDocument(ctx, catalogDoc); err != nil {
		if delErr := s.content.Delete(ctx, map[string]string{metaCourseTitle: c.Title}, nil); delErr != nil {
			s.logger.Error("rollback of content chunks failed", "course", c.Title, "error", delErr)
		}
		return false, fmt.Errorf("failed to add catalog entry for course %q: %w", c.Title, err)
	}

	s.logger.Info("course indexed",
		"course", c.Title,
		"lessons", len(c.Lessons),
		"chunks", len(chunks))
	return true, nil
}

// buildCatalogDoc builds the single catalog document for a course. The
// embedded text carries the metadata a user would mention when naming a
// course loosely: title, instructor, description and lesson titles.
func buildCatalogDoc(c *course.Course) (chromem.Document, error) {
	outline := c.Outline()
	lessonsJSON, err := json.Marshal(outline.Lessons)
	if err != nil {
		return chromem.Document{}, fmt.Errorf("failed to marshal lessons for course %q: %w", c.Title, err)
	}

	var text strings.Builder
	text.WriteString(c.Title)
	if c.Instructor != "" {
		text.WriteString("\nInstructor: " + c.Instructor)
	}
	if c.Description != "" {
		text.WriteString("\n" + c.Description)
	}
	for _, l := range outline.Lessons {
		fmt.Fprintf(&text, "\nLesson %d: %s", l.Number, l.Title)
	}

	return chromem.Document{
		ID:      courseID(c.Title),
		Content: text.String(),
		Metadata: map[string]string{
			metaTitle:       c.Title,
			metaLink:        c.Link,
			metaInstructor:  c.Instructor,
			metaLessonCount: strconv.Itoa(len(outline.Lessons)),
			metaLessonsJSON: string(lessonsJSON),
		},
	}, nil
}

// Search performs semantic search over course content. The filter narrows by
// exact course title and/or lesson number. Results come back ordered by
// similarity, ties broken by original chunk order, at most topK of them. An
// empty index or a filter matching nothing yields empty results, not an error.
func (s *Store) Search(ctx context.Context, query string, topK int, f Filter) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK < 1 {
		topK = 1
	}

	total := s.content.Count()
	if total == 0 {
		return nil, nil
	}
	n := topK
	if n > total {
		n = total
	}

	var where map[string]string
	if f.CourseTitle != "" || f.Lesson != nil {
		where = make(map[string]string, 2)
		if f.CourseTitle != "" {
			where[metaCourseTitle] = f.CourseTitle
		}
		if f.Lesson != nil {
			where[metaLesson] = strconv.Itoa(*f.Lesson)
		}
	}

	results, err := s.content.Query(ctx, query, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("content search failed: %w", err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		lesson, _ := strconv.Atoi(r.Metadata[metaLesson])
		index, _ := strconv.Atoi(r.Metadata[metaChunkIndex])
		out = append(out, SearchResult{
			Content:     r.Content,
			CourseTitle: r.Metadata[metaCourseTitle],
			Lesson:      lesson,
			LessonLink:  r.Metadata[metaLessonLink],
			ChunkIndex:  index,
			Similarity:  r.Similarity,
		})
	}

	// chromem orders by similarity; make ties deterministic by chunk identity.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].CourseTitle != out[j].CourseTitle {
			return out[i].CourseTitle < out[j].CourseTitle
		}
		if out[i].Lesson != out[j].Lesson {
			return out[i].Lesson < out[j].Lesson
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})

	if len(out) > topK {
		out = out[:topK]
	}

	s.logger.Debug("content search",
		"query_len", len(query),
		"course_filter", f.CourseTitle,
		"results", len(out))
	return out, nil
}

// SearchCourses performs semantic search over the course catalog, returning
// up to topK matches ordered by similarity.
func (s *Store) SearchCourses(ctx context.Context, name string, topK int) ([]CourseMatch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyQuery
	}
	total := s.catalog.Count()
	if total == 0 {
		return nil, nil
	}
	if topK < 1 {
		topK = 1
	}
	if topK > total {
		topK = total
	}

	results, err := s.catalog.Query(ctx, name, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	matches := make([]CourseMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, CourseMatch{
			Title:      r.Metadata[metaTitle],
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

// ResolveCourseName maps a possibly partial or misspelled course name to the
// canonical indexed title. Exact matches short-circuit; otherwise the best
// semantic catalog match wins. Returns ErrCourseNotFound when the catalog is
// empty or yields no match.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	if doc, err := s.catalog.GetByID(ctx, courseID(name)); err == nil {
		return doc.Metadata[metaTitle], nil
	}

	matches, err := s.SearchCourses(ctx, name, 1)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%q: %w", name, ErrCourseNotFound)
	}

	s.logger.Debug("resolved course name",
		"input", name,
		"resolved", matches[0].Title,
		"similarity", matches[0].Similarity)
	return matches[0].Title, nil
}

// Outline returns the structural view of an indexed course by exact title.
func (s *Store) Outline(ctx context.Context, title string) (*course.Outline, error) {
	doc, err := s.catalog.GetByID(ctx, courseID(title))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", title, ErrCourseNotFound)
	}

	var lessons []course.LessonInfo
	if raw := doc.Metadata[metaLessonsJSON]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &lessons); err != nil {
			return nil, fmt.Errorf("corrupt lesson metadata for course %q: %w", title, err)
		}
	}

	return &course.Outline{
		CourseTitle: doc.Metadata[metaTitle],
		CourseLink:  doc.Metadata[metaLink],
		Instructor:  doc.Metadata[metaInstructor],
		Lessons:     lessons,
	}, nil
}

// CourseCount returns the number of indexed courses.
func (s *Store) CourseCount() int {
	return s.catalog.Count()
}

// ChunkCount returns the number of indexed content chunks.
func (s *Store) ChunkCount() int {
	return s.content.Count()
}

// CourseTitles returns the titles of all indexed courses, sorted
// alphabetically.
//
// chromem has no listing API, so this queries the catalog for all documents
// with a neutral query text and reads titles off the metadata.
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	total := s.catalog.Count()
	if total == 0 {
		return nil, nil
	}

	results, err := s.catalog.Query(ctx, "course", total, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Metadata[metaTitle])
	}
	sort.Strings(titles)
	return titles, nil
}

// DeleteCourse removes a course and all its chunks by exact title. The
// catalog entry goes first so the course stops resolving immediately; its
// chunks follow.
func (s *Store) DeleteCourse(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.HasCourse(ctx, title) {
		return fmt.Errorf("%q: %w", title, ErrCourseNotFound)
	}

	if err := s.catalog.Delete(ctx, nil, nil, courseID(title)); err != nil {
		return fmt.Errorf("failed to delete catalog entry for %q: %w", title, err)
	}
	if err := s.content.Delete(ctx, map[string]string{metaCourseTitle: title}, nil); err != nil {
		return fmt.Errorf("failed to delete content for %q: %w", title, err)
	}

	s.logger.Info("course deleted", "course", title)
	return nil
}
