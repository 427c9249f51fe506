package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/wavedeck/wavedeck/internal/chapter"
	"github.com/wavedeck/wavedeck/internal/timecode"
)

// GetChapters handles GET /tracks/{id}/chapters requests.
func (h *Handlers) GetChapters(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	chapters, err := h.tracks.Chapters(r.Context(), trackID)
	if err != nil {
		h.respondServiceError(w, err, "get chapters", "CHAPTER_FETCH_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ChaptersResponse{Chapters: toChapterPayloads(chapters)})
}

// ReplaceChapters handles PUT /tracks/{id}/chapters requests, replacing the
// chapter list wholesale.
func (h *Handlers) ReplaceChapters(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req ReplaceChaptersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	chapters := make([]chapter.Chapter, 0, len(req.Chapters))
	for _, p := range req.Chapters {
		chapters = append(chapters, fromChapterPayload(p))
	}

	tr, err := h.tracks.ReplaceChapters(r.Context(), trackID, chapters)
	if err != nil {
		h.respondServiceError(w, err, "replace chapters", "CHAPTER_UPDATE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ChaptersResponse{Chapters: toChapterPayloads(tr.Chapters)})
}

// AddChapter handles POST /tracks/{id}/chapters requests, appending one
// chapter mark.
func (h *Handlers) AddChapter(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req ChapterPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	tr, err := h.tracks.AddChapter(r.Context(), trackID, fromChapterPayload(req))
	if err != nil {
		h.respondServiceError(w, err, "add chapter", "CHAPTER_UPDATE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ChaptersResponse{Chapters: toChapterPayloads(tr.Chapters)})
}

// SortChapters handles POST /tracks/{id}/chapters/sort requests, ordering
// chapters by time.
func (h *Handlers) SortChapters(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	tr, err := h.tracks.SortChapters(r.Context(), trackID)
	if err != nil {
		h.respondServiceError(w, err, "sort chapters", "CHAPTER_UPDATE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ChaptersResponse{Chapters: toChapterPayloads(tr.Chapters)})
}

// ImportChapters handles POST /tracks/{id}/chapters/import requests,
// replacing the chapter list from YouTube description text.
func (h *Handlers) ImportChapters(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req ImportChaptersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	tr, err := h.tracks.ImportYouTube(r.Context(), trackID, req.Text)
	if err != nil {
		h.respondServiceError(w, err, "import chapters", "CHAPTER_IMPORT_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ChaptersResponse{Chapters: toChapterPayloads(tr.Chapters)})
}

// LoadChapters handles POST /tracks/{id}/chapters/load requests. The body
// is optional; without a path the media file's default chapter path is read.
func (h *Handlers) LoadChapters(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req ChapterFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	tr, err := h.tracks.LoadChapters(r.Context(), trackID, req.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "chapter file not found", "CHAPTER_FILE_NOT_FOUND")
			return
		}
		h.respondServiceError(w, err, "load chapters", "CHAPTER_LOAD_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ChaptersResponse{Chapters: toChapterPayloads(tr.Chapters)})
}

// SaveChapters handles POST /tracks/{id}/chapters/save requests. The body
// is optional; without a path the media file's default chapter path is
// written.
func (h *Handlers) SaveChapters(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req ChapterFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	path, err := h.tracks.SaveChapters(r.Context(), trackID, req.Path)
	if err != nil {
		h.respondServiceError(w, err, "save chapters", "CHAPTER_SAVE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, SaveChaptersResponse{Path: path})
}

// ExportChapters handles GET /tracks/{id}/chapters/export requests,
// rendering the chapter list in chapter file format.
func (h *Handlers) ExportChapters(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.tracks.ExportChapters(r.Context(), trackID, &buf); err != nil {
		h.respondServiceError(w, err, "export chapters", "CHAPTER_EXPORT_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ExportChaptersResponse{Text: buf.String()})
}

// toChapterPayloads converts domain chapters into their HTTP representation.
func toChapterPayloads(chapters []chapter.Chapter) []ChapterPayload {
	out := make([]ChapterPayload, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ChapterPayload{
			Time:     ch.At.Seconds(),
			Timecode: timecode.FormatMillis(ch.At),
			Title:    ch.Title,
		})
	}
	return out
}

// fromChapterPayload converts an HTTP chapter into its domain form.
func fromChapterPayload(p ChapterPayload) chapter.Chapter {
	return chapter.Chapter{
		At:    time.Duration(p.Time * float64(time.Second)),
		Title: p.Title,
	}
}
