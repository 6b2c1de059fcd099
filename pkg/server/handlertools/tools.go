package handlertools

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/models"
)

var log = internal.GetLogger()

// EncodeJSON encodes data into JSON and writes it to the response writer.
func EncodeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into the provided data struct.
func DecodeJSON(r *http.Request, data interface{}) error {
	return json.NewDecoder(r.Body).Decode(&data)
}

// RenderError renders an error response.
func RenderError(w http.ResponseWriter, err error, status int) {
	if err.Error() == "http: request body too large" {
		status = http.StatusRequestEntityTooLarge
		err = fmt.Errorf(
			"request body too large. reduce the document size or raise server.max_request_size",
		)
	}

	if status != http.StatusNotFound {
		// Don't log not found errors
		log.Error(err)
	}

	if errors.Is(err, models.ErrBadRequest) {
		status = http.StatusBadRequest
	}
	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		status = http.StatusBadRequest
	}

	http.Error(w, err.Error(), status)
}
