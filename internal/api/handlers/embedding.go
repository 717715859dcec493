package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Beor18/real-state-matches-sub000/internal/domain/ai"
)

// EmbeddingService is the embedding contract consumed by this handler.
// ai.Service satisfies it.
type EmbeddingService interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingHandler handles embedding and similarity requests.
type EmbeddingHandler struct {
	service EmbeddingService
}

// NewEmbeddingHandler creates a new EmbeddingHandler instance.
func NewEmbeddingHandler(service EmbeddingService) *EmbeddingHandler {
	return &EmbeddingHandler{service: service}
}

// EmbedRequest is the request body for an embedding.
type EmbedRequest struct {
	Text string `json:"text"`
}

// EmbedResponse is the response body for an embedding.
type EmbedResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// Embed computes a vector for the given text via the primary provider.
// POST /api/v1/ai/embed
func (h *EmbeddingHandler) Embed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	vec, err := h.service.CreateEmbedding(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmbedResponse{Embedding: vec, Dimensions: len(vec)})
}

// SimilarityRequest is the request body for a cosine similarity computation.
type SimilarityRequest struct {
	A []float32 `json:"a"`
	B []float32 `json:"b"`
}

// SimilarityResponse is the response body for a cosine similarity computation.
type SimilarityResponse struct {
	Similarity float64 `json:"similarity"`
}

// Similarity computes the cosine similarity of two vectors.
// POST /api/v1/ai/similarity
func (h *EmbeddingHandler) Similarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if len(req.A) == 0 || len(req.B) == 0 {
		writeError(w, http.StatusBadRequest, "both vectors are required")
		return
	}

	sim, err := ai.CosineSimilarity(req.A, req.B)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SimilarityResponse{Similarity: sim})
}
