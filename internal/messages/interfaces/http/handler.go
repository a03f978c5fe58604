package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"bustrack/internal/audit"
	"bustrack/internal/auth"
	messageapp "bustrack/internal/messages/application"
	messages "bustrack/internal/messages/domain"
)

const maxMessageBody = 16 << 10

type submitRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

type dataEnvelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Handler serves the contact message endpoints.
type Handler struct {
	service     *messageapp.Service
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *messageapp.Service, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("messages handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP handles /api/auth/send-message, get-messages and delete-message.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/api/auth/send-message":
		h.allow(w, r, http.MethodPost, h.handleSubmit)
	case "/api/auth/get-messages":
		h.allow(w, r, http.MethodGet, h.handleList)
	case "/api/auth/delete-message":
		h.allow(w, r, http.MethodDelete, h.handleDelete)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) allow(w http.ResponseWriter, r *http.Request, method string, next http.HandlerFunc) {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next(w, r)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBody))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Message: "Invalid message format", Status: http.StatusBadRequest, Error: err.Error()})
		return
	}

	msg, err := h.service.Submit(r.Context(), req.FullName, req.Email, req.Message)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataEnvelope{Message: "Message sent successfully", Data: msg})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Message: "Messages fetched successfully", Data: list})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Message: "id is required", Status: http.StatusBadRequest})
		return
	}
	msg, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.logAudit(r, msg.ID)
	writeJSON(w, http.StatusOK, dataEnvelope{Message: "Message deleted successfully", Data: msg})
}

func (h *Handler) logAudit(r *http.Request, messageID string) {
	if h.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{"message_id": messageID})
	if err := h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "message.delete",
		ResourceType: "contact_message",
		ResourceID:   messageID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	}); err != nil {
		h.logger.Printf("messages: audit error: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messages.ErrInvalidMessage):
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Message: "All fields are required", Status: http.StatusBadRequest, Error: err.Error()})
	case errors.Is(err, messages.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorEnvelope{Message: "Message not found", Status: http.StatusNotFound})
	default:
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Message: "Internal server error", Status: http.StatusInternalServerError})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
