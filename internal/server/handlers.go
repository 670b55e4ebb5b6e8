package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jdemeulenaere/compose-driver/internal/driver"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/store"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request, _ url.Values) error {
	return writeOK(w)
}

// handleReset recreates the content, switching to ?composable= when given.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, q url.Values) error {
	name := q.Get("composable")
	err := s.driver.Perform(r.Context(), "reset", nil, func(t *driver.Target) error {
		return t.Harness().Reset(name)
	})
	if err != nil {
		return err
	}
	return writeOK(w)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request, q url.Values) error {
	sel, err := driver.SelectorFromQuery(q)
	if err != nil {
		return err
	}
	frame, err := driver.Call(r.Context(), s.driver, "screenshot", sel, func(t *driver.Target) (*ui.Frame, error) {
		n, err := t.Node()
		if err != nil {
			return nil, err
		}
		return n.Capture()
	})
	if err != nil {
		return err
	}
	return writeFrame(w, frame)
}

// handlePrintTree dumps the selected subtree, or every root when no selector
// is given. maxDepth limits the dump; negative means unlimited.
func (s *Server) handlePrintTree(w http.ResponseWriter, r *http.Request, q url.Values) error {
	sel, err := driver.SelectorFromQuery(q)
	if err != nil {
		return err
	}
	depth, err := intParam(q, "maxDepth", -1)
	if err != nil {
		return err
	}
	tree, err := driver.Call(r.Context(), s.driver, "printTree", sel, func(t *driver.Target) (string, error) {
		nodes, err := t.Nodes()
		if err != nil {
			return "", err
		}
		return ui.PrintTree(nodes, depth), nil
	})
	if err != nil {
		return err
	}
	writeText(w, http.StatusOK, tree)
	return nil
}

func (s *Server) handleWaitForIdle(w http.ResponseWriter, r *http.Request, _ url.Values) error {
	err := s.driver.Perform(r.Context(), "waitForIdle", nil, func(*driver.Target) error {
		return nil
	})
	if err != nil {
		return err
	}
	return writeOK(w)
}

func (s *Server) handleWaitForNode(w http.ResponseWriter, r *http.Request, q url.Values) error {
	sel, err := driver.SelectorFromQuery(q)
	if err != nil {
		return err
	}
	timeout, ok, err := millisParam(q, "timeout")
	if err != nil {
		return err
	}
	if !ok {
		timeout = s.opts.WaitTimeout
	}
	if timeout < 0 {
		return fault.Validation("timeout", "timeout must not be negative, was %d", timeout.Milliseconds())
	}
	if err := s.driver.WaitForNode(r.Context(), sel, timeout); err != nil {
		return err
	}
	return writeOK(w)
}

// requestJSON is the wire form of a logged request.
type requestJSON struct {
	Seq        int64      `json:"seq"`
	ID         string     `json:"id"`
	Endpoint   string     `json:"endpoint"`
	Params     url.Values `json:"params"`
	Status     int        `json:"status"`
	Message    string     `json:"message,omitempty"`
	VirtualMs  int64      `json:"virtualMs"`
	DurationUs int64      `json:"durationUs"`
}

// handleRequests returns the most recent logged requests, newest first.
func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request, q url.Values) error {
	limit, err := intParam(q, "limit", 50)
	if err != nil {
		return err
	}
	var rows []store.Request
	if s.opts.Store != nil {
		rows, err = s.opts.Store.RecentRequests(r.Context(), limit)
		if err != nil {
			return err
		}
	}
	out := make([]requestJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, requestJSON{
			Seq:        row.Seq,
			ID:         row.ID,
			Endpoint:   row.Endpoint,
			Params:     row.Params,
			Status:     row.Status,
			Message:    row.Message,
			VirtualMs:  row.Virtual.Milliseconds(),
			DurationUs: row.Duration.Microseconds(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(out)
}
