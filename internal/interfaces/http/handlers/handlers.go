package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/manorfm/identity-server/internal/domain"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeAndValidate decodes a JSON body into req and runs the struct
// validation tags. It answers the request itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(req); err != nil {
		httperrors.RespondValidationError(w, validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) []httperrors.ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]httperrors.ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, httperrors.ErrorDetail{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
		})
	}
	return details
}

func parseID(r *http.Request, param string) (ulid.ULID, error) {
	return domain.ParseULID(chi.URLParam(r, param))
}

// readParams returns the request body parameters. Form encoded and flat
// JSON object bodies are both accepted.
func readParams(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	params := make(url.Values, len(body))
	for key, raw := range body {
		switch v := raw.(type) {
		case string:
			params.Set(key, v)
		case bool:
			params.Set(key, strconv.FormatBool(v))
		case float64:
			params.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
		case nil:
		default:
			return nil, fmt.Errorf("parameter %q must be a scalar", key)
		}
	}
	return params, nil
}
