package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/schema"
)

// SchemaDescriber renders catalog fragments. schema.KnowledgeBase implements it.
type SchemaDescriber interface {
	SchemaForTopic(topic string) string
	Topics() []string
}

// SchemaResponse is the body of GET /api/schema.
type SchemaResponse struct {
	Topic  string   `json:"topic"`
	Schema string   `json:"schema"`
	Topics []string `json:"topics"`
}

// SchemaHandler exposes the catalog text the reasoning service sees.
type SchemaHandler struct {
	catalog SchemaDescriber
	logger  *zap.Logger
}

func NewSchemaHandler(catalog SchemaDescriber, logger *zap.Logger) *SchemaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaHandler{catalog: catalog, logger: logger.Named("schema-handler")}
}

// RegisterRoutes registers GET /api/schema.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux, authWrap func(http.Handler) http.Handler) {
	mux.Handle("GET /api/schema", authWrap(http.HandlerFunc(h.Get)))
}

// Get handles GET /api/schema?topic=. Unknown topics fall back to GENERAL.
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	topic := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("topic")))
	if topic == "" {
		topic = schema.DefaultTopic
	}

	resp := SchemaResponse{
		Topic:  topic,
		Schema: h.catalog.SchemaForTopic(topic),
		Topics: h.catalog.Topics(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resp}); err != nil {
		h.logger.Error("Failed to encode schema response", zap.Error(err))
	}
}
