package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/tool"
)

// Dispatcher is the subset of *tool.Dispatcher the handlers need.
type Dispatcher interface {
	Invoke(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Registry() *tool.Registry
}

type ToolHandler struct {
	dispatcher Dispatcher
	logger     logrus.FieldLogger
}

func NewToolHandler(d Dispatcher, logger logrus.FieldLogger) *ToolHandler {
	return &ToolHandler{dispatcher: d, logger: logger}
}

type toolResponse struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Cacheable   bool            `json:"cacheable"`
	TTLSeconds  int64           `json:"ttlSeconds,omitempty"`
}

// ListTools handles GET /api/v1/tools.
func (h *ToolHandler) ListTools(w http.ResponseWriter, _ *http.Request) {
	descs := h.dispatcher.Registry().List()

	out := make([]toolResponse, 0, len(descs))
	for _, d := range descs {
		resp := toolResponse{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema(),
			Cacheable:   d.Cacheable,
		}
		if d.Cacheable {
			resp.TTLSeconds = int64(d.TTL.Seconds())
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": out, "meta": map[string]int{"total": len(out)}})
}

// InvokeTool handles POST /api/v1/tools/{name}. The body is the argument
// object; an empty body means no arguments.
func (h *ToolHandler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args, err := decodeArgs(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, &tool.Error{Kind: tool.KindInvalidParams, Message: "request body must be a JSON object"})
		return
	}

	entry := h.logger.WithField("operation", name)
	if caller, err := ctxkeys.CallerFrom(r.Context()); err == nil {
		entry = entry.WithFields(logrus.Fields{"auth_scheme": caller.Scheme, "subject": caller.Subject})
	}
	entry.Debug("http tool invocation")

	out, err := h.dispatcher.Invoke(r.Context(), name, args)
	if err != nil {
		writeError(w, tool.ToError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"data": out})
}

func decodeArgs(body io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	if args == nil {
		return nil, errors.New("arguments must be an object")
	}
	return args, nil
}
