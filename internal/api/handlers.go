package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/record"
	"github.com/sajjad-MoBe/logkv/internal/shared"
)

// storageOp runs fn against the store with tracing and metrics. A request
// whose context is already done never reaches the store.
func (s *Server) storageOp(ctx context.Context, operation string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return kvErr.New(kvErr.ErrorTypeInternal, "request cancelled", err)
	}

	start := time.Now()
	err := s.tracer.TraceStorageOperation(ctx, operation, func(context.Context) error {
		return fn()
	})
	s.metrics.RecordStorageMetrics(operation, time.Since(start), err)

	m := s.store.Metrics()
	s.metrics.UpdateStorageMetrics(m.LogSize, m.TotalKeys)
	return err
}

// handleSetRecord handles POST|PUT /set with a record body
func (s *Server) handleSetRecord(w http.ResponseWriter, r *http.Request) {
	var rec record.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		handleError(w, kvErr.New(kvErr.ErrorTypeInvalidInput, "invalid request body", err))
		return
	}
	if err := shared.ValidateKey(rec.Key); err != nil {
		handleError(w, err)
		return
	}

	err := s.storageOp(r.Context(), "set", func() error {
		return s.store.Set(rec.Key, rec.Value)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
}

// handleGetRaw handles GET /get/{key} and returns the raw value bytes
func (s *Server) handleGetRaw(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := shared.ValidateKey(key); err != nil {
		handleError(w, err)
		return
	}

	var value []byte
	err := s.storageOp(r.Context(), "get", func() (err error) {
		value, err = s.store.Get(key)
		return err
	})
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

// handleListKeys handles GET /api/v1/keys
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	var keys []string
	err := s.storageOp(r.Context(), "keys", func() error {
		keys = s.store.Keys()
		return nil
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"keys":  keys,
		"count": len(keys),
	}, http.StatusOK)
}

// handleGetValue handles GET /api/v1/keys/{key}
func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := shared.ValidateKey(key); err != nil {
		handleError(w, err)
		return
	}

	var value []byte
	err := s.storageOp(r.Context(), "get", func() (err error) {
		value, err = s.store.Get(key)
		return err
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"key":   key,
		"value": string(value),
	}, http.StatusOK)
}

// handleSetValue handles PUT /api/v1/keys/{key}
func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := shared.ValidateKey(key); err != nil {
		handleError(w, err)
		return
	}

	var request struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		handleError(w, kvErr.New(kvErr.ErrorTypeInvalidInput, "invalid request body", err))
		return
	}

	err := s.storageOp(r.Context(), "set", func() error {
		return s.store.Set(key, []byte(request.Value))
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
}

// handleDeleteValue handles DELETE /api/v1/keys/{key}
func (s *Server) handleDeleteValue(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := shared.ValidateKey(key); err != nil {
		handleError(w, err)
		return
	}

	err := s.storageOp(r.Context(), "remove", func() error {
		return s.store.Remove(key)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "healthy",
		"keys":   s.store.Len(),
	}, http.StatusOK)
}
