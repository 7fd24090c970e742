package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/metrics"
)

const (
	chapterNotesSQL = `SELECT id, "courseId", "chapterId", COALESCE(notes, '') AS notes
FROM "chapterNotes"
WHERE "courseId" = $1
ORDER BY id`

	studyContentsSQL = `SELECT id, "courseId", type,
	COALESCE(content, '[]'::jsonb) AS content,
	COALESCE(status, '') AS status
FROM study_type_content
WHERE "courseId" = $1`

	studyContentsByTypeSQL = studyContentsSQL + ` AND type = $2`
)

// PostgresContentStore 读取 chapterNotes 与 study_type_content 表。
type PostgresContentStore struct {
	db *sqlx.DB
}

func NewPostgresContentStore(db *sqlx.DB) *PostgresContentStore {
	return &PostgresContentStore{db: db}
}

func (s *PostgresContentStore) ChapterNotes(ctx context.Context, courseID string) (notes []core.ChapterNote, err error) {
	defer func() { metrics.RecordStoreOperation("postgres", "chapter_notes", err) }()

	notes = []core.ChapterNote{}
	if err := s.db.SelectContext(ctx, &notes, chapterNotesSQL, courseID); err != nil {
		return nil, fmt.Errorf("select chapter notes: %w", err)
	}
	return notes, nil
}

func (s *PostgresContentStore) StudyContents(ctx context.Context, courseID, studyType string) (contents []core.StudyContent, err error) {
	defer func() { metrics.RecordStoreOperation("postgres", "study_contents", err) }()

	contents = []core.StudyContent{}
	if studyType == "" {
		err = s.db.SelectContext(ctx, &contents, studyContentsSQL, courseID)
	} else {
		err = s.db.SelectContext(ctx, &contents, studyContentsByTypeSQL, courseID, studyType)
	}
	if err != nil {
		return nil, fmt.Errorf("select study contents: %w", err)
	}
	return contents, nil
}
