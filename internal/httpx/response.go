package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Envelope is the body of every /api response. EC is 0 on success.
type Envelope struct {
	DT any    `json:"DT"`
	EC int    `json:"EC"`
	EM string `json:"EM"`
}

var validate = validator.New()

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, dt any, msg string) {
	writeJSON(w, http.StatusOK, Envelope{DT: dt, EC: 0, EM: msg})
}

// fail reports a business error: HTTP 200 with a non-zero EC.
func fail(w http.ResponseWriter, ec int, msg string) {
	writeJSON(w, http.StatusOK, Envelope{DT: "", EC: ec, EM: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Envelope{DT: "", EC: -1, EM: msg})
}

func serverError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, Envelope{DT: "", EC: -1, EM: "error from server"})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func queryID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
