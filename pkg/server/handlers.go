package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matzehuels/hdlviz/pkg/buildinfo"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/notify"
	"github.com/matzehuels/hdlviz/pkg/snapshot"
)

const noPageText = "No diagram yet. Run `hdlviz visualize <file.hdl>` or POST /api/visualize.\n"

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cfg.Store.Latest(r.Context())
	if errors.Is(err, snapshot.ErrNotFound) {
		http.Error(w, noPageText, http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(snap.HTML)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cfg.Store.Latest(r.Context())
	if errors.Is(err, snapshot.ErrNotFound) || (err == nil && snap.Graph == nil) {
		http.Error(w, "no graph\n", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := graph.Write(snap.Graph, w); err != nil {
		s.logger.Error("write graph", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"viewers": s.Viewers(r.Context()),
	})
}

type visualizeRequest struct {
	Path string `json:"path"`
}

type visualizeResponse struct {
	Module    string        `json:"module"`
	GraphHash string        `json:"graph_hash"`
	Nodes     int           `json:"nodes"`
	Edges     int           `json:"edges"`
	Cached    bool          `json:"cached"`
	Duration  time.Duration `json:"duration_ns"`
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	var req visualizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, hdlerrors.Wrap(hdlerrors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}

	start := time.Now()
	res, err := s.Visualize(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visualizeResponse{
		Module:    res.Module.Name,
		GraphHash: res.GraphHash,
		Nodes:     res.Stats.NodeCount,
		Edges:     res.Stats.EdgeCount,
		Cached:    res.CacheHit,
		Duration:  time.Since(start),
	})
}

// handleEvents streams live-reload events until the client leaves or an
// end event is sent.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel, err := s.cfg.Notifier.Subscribe(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, e); err != nil {
				return
			}
			flusher.Flush()
			if e.Type == notify.EventEnd {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, e notify.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
	return err
}

// errorResponse is the JSON body of every API error.
type errorResponse struct {
	Code  hdlerrors.Code `json:"code"`
	Error string         `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := hdlerrors.GetCode(err)
	if code == "" {
		code = hdlerrors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: hdlerrors.UserMessage(err)})
}

func statusFor(code hdlerrors.Code) int {
	switch code {
	case hdlerrors.ErrCodeInvalidInput, hdlerrors.ErrCodeInvalidPath, hdlerrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case hdlerrors.ErrCodeFileNotFound, hdlerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case hdlerrors.ErrCodeParse, hdlerrors.ErrCodeUnresolvedWidth, hdlerrors.ErrCodeInvalidWidthSpec,
		hdlerrors.ErrCodeInvalidConnection, hdlerrors.ErrCodeInvalidChip:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
