package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondJSON 以 goccy/go-json 编码响应体
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondDomainError 把领域错误映射为 HTTP 状态：参数错误 400，其余 500。
func respondDomainError(r *http.Request, w http.ResponseWriter, err error) {
	if core.IsInvalidInput(err) {
		msg := err.Error()
		if de := core.GetDomainError(err); de != nil {
			msg = de.Message
		}
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	respondError(w, http.StatusInternalServerError, err.Error())
}
