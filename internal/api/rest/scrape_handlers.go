package rest

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/puckline/internal/backfill"
)

type apiScrapeRequest struct {
	GameID    string   `json:"game_id"`
	GameIDs   []string `json:"game_ids"`
	Season    int      `json:"season"`
	GameType  int      `json:"game_type"`
	First     int      `json:"first"`
	Last      int      `json:"last"`
	Live      bool     `json:"live"`
	Providers []string `json:"providers"`
}

// CreateScrape handles POST /api/v1/scrapes
func (h *Handler) CreateScrape(w http.ResponseWriter, r *http.Request) {
	var req apiScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	scrapeReq := backfill.Request{
		GameIDs:  req.GameIDs,
		Season:   req.Season,
		GameType: req.GameType,
		First:    req.First,
		Last:     req.Last,
		Live:     req.Live,
	}
	if req.GameID != "" {
		scrapeReq.GameIDs = append(scrapeReq.GameIDs, req.GameID)
	}
	for _, p := range req.Providers {
		scrapeReq.Providers = append(scrapeReq.Providers, backfill.Provider(p))
	}

	job, err := h.jobs.Enqueue(r.Context(), scrapeReq)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue scrape job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// GetScrape handles GET /api/v1/scrapes/{jobID}
func (h *Handler) GetScrape(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), mux.Vars(r)["jobID"])
	if errors.Is(err, backfill.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "Job not found", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch job", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"job": jobPayload(job)})
}

// ListScrapes handles GET /api/v1/scrapes
func (h *Handler) ListScrapes(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListJobs(r.Context(), queryInt(r, "limit", 0, 100))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}
	out := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, jobPayload(job))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": out})
}

// CancelScrape handles POST /api/v1/scrapes/{jobID}/cancel
func (h *Handler) CancelScrape(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Cancel(r.Context(), mux.Vars(r)["jobID"])
	switch {
	case errors.Is(err, backfill.ErrJobNotFound):
		respondError(w, http.StatusNotFound, "Job not found", err)
		return
	case errors.Is(err, backfill.ErrJobFinished):
		respondError(w, http.StatusConflict, "Job already finished", err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Failed to cancel job", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"job": jobPayload(job)})
}

// ScrapeStatus handles GET /api/v1/scrapes/status
func (h *Handler) ScrapeStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.jobs.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}
	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

func buildStatusPayload(summary *backfill.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}
	response["history"] = history
	return response
}

func jobPayload(job *backfill.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"job_type":         job.JobType,
		"status":           job.Status,
		"game_ids":         []string(job.GameIDs),
		"providers":        []string(job.Providers),
		"live":             job.Live,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"succeeded":        job.Succeeded,
		"failed":           job.Failed,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
