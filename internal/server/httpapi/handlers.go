package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
)

const maxBodyBytes = 8 << 20

type handler struct {
	ks  Keystore
	log logging.Logger
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrorValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	typ, status := shared.ErrorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = ""
	}
	writeJSON(w, status, shared.ErrorResponse{Error: shared.ErrorBody{Type: typ, Message: msg}})
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req shared.CreateRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.ks.Create(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shared.CreateResponse{Identifier: rec.Identifier, SharedKey: rec.SharedKey})
}

func (h *handler) load(w http.ResponseWriter, r *http.Request) {
	var req shared.LoadRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.ks.Load(r.Context(), req.Identifier)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shared.LoadResponse{
		Identifier:    rec.Identifier,
		EncryptedData: rec.EncryptedData,
		Email:         rec.Email,
	})
}

func (h *handler) checkLoad(w http.ResponseWriter, r *http.Request) {
	var req shared.LoadRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	id, err := h.ks.CheckLoad(r.Context(), req.Identifier)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shared.IdentifierResponse{Identifier: id})
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	var req shared.UpdateRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Identifier == "" {
		h.fail(w, r, fmt.Errorf("%w: empty identifier", shared.ErrorValidation))
		return
	}

	id, err := h.ks.Update(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shared.IdentifierResponse{Identifier: id})
}
