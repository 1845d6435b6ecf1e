package apitest

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

type fieldError struct {
	field string
	msg   string
}

// respondValidation writes a 422 in the backend's list-of-errors shape.
func respondValidation(w http.ResponseWriter, errs ...fieldError) {
	items := make([]map[string]interface{}, 0, len(errs))
	for _, e := range errs {
		items = append(items, map[string]interface{}{
			"loc":  []string{"body", e.field},
			"msg":  e.msg,
			"type": "value_error",
		})
	}
	respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": items})
}
