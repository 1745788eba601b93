package utils

import (
	"encoding/json"
	"net/http"

	"mocca-storefront/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	SendJSON(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
	})
}

// SendValidationError writes a 400 carrying the per-field messages.
func SendValidationError(w http.ResponseWriter, verr *models.ValidationError) {
	SendJSON(w, http.StatusBadRequest, models.APIResponse{
		Status:  "error",
		Message: "Please correct the highlighted fields",
		Errors:  verr.Fields,
	})
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	SendJSON(w, http.StatusOK, response)
}

func SendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
