// Package ingest reads course documents from disk and feeds them through the
// parse/chunk/index pipeline.
//
// Ingestion is idempotent: a course title already present in the index is
// skipped, so pointing the ingester at the same directory twice never
// duplicates content. Malformed documents are skipped with a warning and the
// batch continues.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/coursepilot/coursepilot/internal/course"
	"github.com/coursepilot/coursepilot/internal/log"
)

// Indexer is the slice of the vector store the ingester needs.
type Indexer interface {
	AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) (bool, error)
}

// Result summarizes one ingestion run.
type Result struct {
	CoursesAdded   int
	ChunksAdded    int
	CoursesSkipped int // already indexed
	FilesSkipped   int // unreadable or without course structure
}

// Ingester turns course documents into indexed chunks.
type Ingester struct {
	store   Indexer
	chunker *course.Chunker
	logger  log.Logger
}

// New creates an Ingester.
func New(store Indexer, chunker *course.Chunker, logger log.Logger) *Ingester {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingester{store: store, chunker: chunker, logger: logger}
}

// supportedExt reports whether the file extension is an ingestible document
// type.
func supportedExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

// IngestDirectory ingests every supported document in dir, in lexical file
// order so repeated runs behave identically. Files that cannot be parsed are
// counted and skipped; only directory-level failures or context cancellation
// abort the run.
func (i *Ingester) IngestDirectory(ctx context.Context, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents directory: %w", err)
	}

	res := &Result{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if entry.IsDir() || !supportedExt(filepath.Ext(entry.Name())) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		added, chunks, err := i.IngestFile(ctx, path)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			i.logger.Warn("skipping document", "file", entry.Name(), "error", err)
			res.FilesSkipped++
		case !added:
			res.CoursesSkipped++
		default:
			res.CoursesAdded++
			res.ChunksAdded += chunks
		}
	}

	i.logger.Info("ingestion finished",
		"dir", dir,
		"courses_added", res.CoursesAdded,
		"chunks_added", res.ChunksAdded,
		"courses_skipped", res.CoursesSkipped,
		"files_skipped", res.FilesSkipped)
	return res, nil
}

// IngestFile parses, chunks and indexes a single document. The bool reports
// whether the course was newly added; false with a nil error means the course
// title was already indexed.
func (i *Ingester) IngestFile(ctx context.Context, path string) (bool, int, error) {
	c, err := i.parseFile(path)
	if err != nil {
		return false, 0, err
	}

	chunks := i.chunker.ChunkCourse(c)
	if len(chunks) == 0 {
		return false, 0, fmt.Errorf("document %q: no indexable content", filepath.Base(path))
	}

	added, err := i.store.AddCourse(ctx, c, chunks)
	if err != nil {
		return false, 0, err
	}
	if !added {
		i.logger.Debug("course already indexed", "file", filepath.Base(path), "course", c.Title)
		return false, 0, nil
	}
	return true, len(chunks), nil
}

// parseFile extracts the document text by type and parses it into a Course.
func (i *Ingester) parseFile(path string) (*course.Course, error) {
	name := filepath.Base(path)

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := extractPDFText(path)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", name, err)
		}
		return course.ParseDocument(name, strings.NewReader(text))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", name, err)
	}
	defer f.Close()

	return course.ParseDocument(name, f)
}

// extractPDFText pulls the plain text out of a PDF file.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}
