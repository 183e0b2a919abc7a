package standingshttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	standingsservice "github.com/Black-And-White-Club/judge-standings/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageCount     = 50
	defaultProblemTopCnt = 20
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handlers serves the standings read API.
type Handlers struct {
	service standingsservice.Service
	logger  *slog.Logger
}

func NewHandlers(service standingsservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", standingsdomain.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidArg("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidArg("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// rankListRequest reads contestID, view, role and as_of. The judge view needs a
// judge token.
func (h *Handlers) rankListRequest(r *http.Request) (standingsservice.RankListRequest, int, error) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		return standingsservice.RankListRequest{}, http.StatusBadRequest, err
	}
	req := standingsservice.RankListRequest{ContestID: contestID, View: standingsdomain.ViewPublic}

	q := r.URL.Query()
	switch q.Get("view") {
	case "", "public":
	case "judge":
		if !isJudge(r.Context()) {
			return req, http.StatusForbidden, ErrForbidden
		}
		req.View = standingsdomain.ViewJudge
	default:
		return req, http.StatusBadRequest, invalidArg("unknown view %q", q.Get("view"))
	}

	if raw := q.Get("role"); raw != "" {
		role, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, http.StatusBadRequest, invalidArg("role must be an integer, got %q", raw)
		}
		req.RoleID = &role
	}

	if raw := q.Get("as_of"); raw != "" {
		asOf, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, http.StatusBadRequest, invalidArg("as_of must be RFC3339, got %q", raw)
		}
		req.AsOf = asOf
	}
	return req, 0, nil
}

func (h *Handlers) requestOrFail(w http.ResponseWriter, r *http.Request) (standingsservice.RankListRequest, bool) {
	req, status, err := h.rankListRequest(r)
	if err == nil {
		return req, true
	}
	if status == http.StatusForbidden {
		writeJSON(w, status, errorBody{Error: err.Error()})
	} else {
		h.writeError(w, r, err)
	}
	return req, false
}

func (h *Handlers) GetRankList(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requestOrFail(w, r)
	if !ok {
		return
	}
	list, err := h.service.GetRankList(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) ExportRankList(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requestOrFail(w, r)
	if !ok {
		return
	}
	data, err := h.service.ExportRankListXLSX(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBinary(w, xlsxContentType, fmt.Sprintf("contest-%d-standings.xlsx", req.ContestID), data)
}

func (h *Handlers) GetRankListEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requestOrFail(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.service.GetRankListEntry(r.Context(), req, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handlers) GetContestStatistics(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.service.GetContestStatistics(r.Context(), contestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) GetContestStatisticsChart(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	img, err := h.service.RenderContestStatisticsChart(r.Context(), contestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBinary(w, "image/png", "", img)
}

func (h *Handlers) GetUserStatistics(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.service.GetUserStatistics(r.Context(), contestID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) GetProblemStatistics(w http.ResponseWriter, r *http.Request) {
	problemID, err := pathID(r, "problemID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	count, err := queryInt(r, "count", defaultProblemTopCnt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.service.GetProblemStatistics(r.Context(), problemID, r.URL.Query().Get("order_by"), count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) GetProblemsetRankList(w http.ResponseWriter, r *http.Request) {
	problemsetID, err := pathID(r, "problemsetID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	count, err := queryInt(r, "count", defaultPageCount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.service.GetProblemsetRankList(r.Context(), problemsetID, offset, count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) Invalidate(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := standingsservice.WithInvalidationSource(r.Context(), "http")
	if err := h.service.Invalidate(ctx, contestID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.service.ListContests(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contests)
}

func (h *Handlers) ListProblemsets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.ListProblemsets(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (h *Handlers) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.service.ListLanguages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, languages)
}

func (h *Handlers) ListJudgeReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.service.ListJudgeReplies(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}
