package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerStats - источник статистики Kafka reader
type ConsumerStats interface {
	GetStats() kafka.ReaderStats
}

type HealthCheckHandler struct {
	consumer ConsumerStats
}

func NewHealthCheckHandler(consumer ConsumerStats) *HealthCheckHandler {
	return &HealthCheckHandler{consumer: consumer}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Topic     string    `json:"topic"`
	Messages  int64     `json:"messages"`
	Errors    int64     `json:"errors"`
	Lag       int64     `json:"lag"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.consumer.GetStats()

	response := HealthResponse{
		Status:    "healthy",
		Topic:     stats.Topic,
		Messages:  stats.Messages,
		Errors:    stats.Errors,
		Lag:       stats.Lag,
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/liveness", h.Liveness)
}
