package core

import "encoding/json"

// 学习内容类型（study_type_content.type）。
const (
	StudyTypeAll       = "ALL"
	StudyTypeNotes     = "notes"
	StudyTypeFlashcard = "Flashcard"
	StudyTypeQuiz      = "Quiz"
	StudyTypeQA        = "QA"
)

// ChapterNote 对应 chapterNotes 表的一行。
type ChapterNote struct {
	ID        int64  `json:"id" db:"id"`
	CourseID  string `json:"courseId" db:"courseId"`
	ChapterID string `json:"chapterId" db:"chapterId"`
	Notes     string `json:"notes" db:"notes"`
}

// StudyContent 对应 study_type_content 表的一行；Content 为 AI 生成的 JSON 原文。
type StudyContent struct {
	ID       string          `json:"id" db:"id"`
	CourseID string          `json:"courseId" db:"courseId"`
	Type     string          `json:"type" db:"type"`
	Content  json.RawMessage `json:"content" db:"content"`
	Status   string          `json:"status" db:"status"`
}
