package api

import (
	"context"
	stdjson "encoding/json"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
)

// Ranker 是 HTTP 层依赖的排序能力，由 ranker.Ranker 实现。
type Ranker interface {
	Rank(ctx context.Context, key core.RecommendationKey) ([]core.Recommendation, error)
	Lookup(ctx context.Context, key core.RecommendationKey) ([]core.Recommendation, error)
	Ping(ctx context.Context) error
}

// Handler 持有各路由的依赖
type Handler struct {
	ranker  Ranker
	content core.StudyContentStore
}

// NewHandler 创建 Handler。content 为 nil 时不提供学习内容接口。
func NewHandler(ranker Ranker, content core.StudyContentStore) *Handler {
	return &Handler{ranker: ranker, content: content}
}

const (
	msgKeyRequired       = "Course ID and topic are required"
	msgStudyTypeRequired = "Missing courseId or studyType"
)

type recommendRequest struct {
	CourseID string `json:"courseId" validate:"required"`
	Topic    string `json:"topic" validate:"required"`
}

type recommendResponse struct {
	Recommendations []core.Recommendation `json:"recommendations"`
}

// Recommend 处理 POST /api/youtube-recommendations
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgKeyRequired)
		return
	}
	if err := validateRequest(&req, msgKeyRequired); err != nil {
		respondDomainError(r, w, err)
		return
	}

	recs, err := h.ranker.Rank(r.Context(), core.RecommendationKey{CourseID: req.CourseID, Topic: req.Topic})
	if err != nil {
		respondDomainError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, recommendResponse{Recommendations: nonNil(recs)})
}

// LookupRecommendations 处理 GET /api/youtube-recommendations?courseId=&topic=
func (h *Handler) LookupRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := recommendRequest{CourseID: q.Get("courseId"), Topic: q.Get("topic")}
	if err := validateRequest(&req, msgKeyRequired); err != nil {
		respondDomainError(r, w, err)
		return
	}

	recs, err := h.ranker.Lookup(r.Context(), core.RecommendationKey{CourseID: req.CourseID, Topic: req.Topic})
	if err != nil {
		respondDomainError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, recommendResponse{Recommendations: nonNil(recs)})
}

type studyTypeRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	StudyType string `json:"studyType" validate:"required"`
}

type allStudyContent struct {
	Notes     []core.ChapterNote  `json:"notes"`
	Flashcard []core.StudyContent `json:"flashcard"`
	Quiz      []core.StudyContent `json:"quiz"`
	QA        []core.StudyContent `json:"qa"`
}

type notesContent struct {
	Notes []core.ChapterNote `json:"notes"`
}

// typedContent 的 Content 与 core.StudyContent.Content 同为 encoding/json 的 RawMessage，原样输出
type typedContent struct {
	Content stdjson.RawMessage `json:"content"`
}

var emptyContent = stdjson.RawMessage("[]")

// StudyType 处理 POST /api/study-type
//
//	ALL    -> {notes, flashcard, quiz, qa}
//	notes  -> {notes}
//	其他   -> {content}，取该类型第一条记录的 content，不存在或为 null 时为 []
func (h *Handler) StudyType(w http.ResponseWriter, r *http.Request) {
	var req studyTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgStudyTypeRequired)
		return
	}
	if err := validateRequest(&req, msgStudyTypeRequired); err != nil {
		respondDomainError(r, w, err)
		return
	}

	ctx := r.Context()
	var (
		result any
		err    error
	)
	switch req.StudyType {
	case core.StudyTypeAll:
		result, err = h.allContent(ctx, req.CourseID)
	case core.StudyTypeNotes:
		var notes []core.ChapterNote
		notes, err = h.content.ChapterNotes(ctx, req.CourseID)
		result = notesContent{Notes: nonNil(notes)}
	default:
		result, err = h.typedContent(ctx, req.CourseID, req.StudyType)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("course_id", req.CourseID).Str("study_type", req.StudyType).Msg("study content lookup failed")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) allContent(ctx context.Context, courseID string) (allStudyContent, error) {
	notes, err := h.content.ChapterNotes(ctx, courseID)
	if err != nil {
		return allStudyContent{}, err
	}
	contents, err := h.content.StudyContents(ctx, courseID, "")
	if err != nil {
		return allStudyContent{}, err
	}

	out := allStudyContent{
		Notes:     nonNil(notes),
		Flashcard: []core.StudyContent{},
		Quiz:      []core.StudyContent{},
		QA:        []core.StudyContent{},
	}
	for _, c := range contents {
		switch c.Type {
		case core.StudyTypeFlashcard:
			out.Flashcard = append(out.Flashcard, c)
		case core.StudyTypeQuiz:
			out.Quiz = append(out.Quiz, c)
		case core.StudyTypeQA:
			out.QA = append(out.QA, c)
		}
	}
	return out, nil
}

func (h *Handler) typedContent(ctx context.Context, courseID, studyType string) (typedContent, error) {
	contents, err := h.content.StudyContents(ctx, courseID, studyType)
	if err != nil {
		return typedContent{}, err
	}
	if len(contents) == 0 {
		return typedContent{Content: emptyContent}, nil
	}
	raw := strings.TrimSpace(string(contents[0].Content))
	if raw == "" || raw == "null" {
		return typedContent{Content: emptyContent}, nil
	}
	return typedContent{Content: contents[0].Content}, nil
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health 存活检查
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Ready 就绪检查：存储不可达时返回 503
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ranker.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "ready"})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
