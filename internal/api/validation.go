package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

var errMalformedBody = errors.New("malformed request body")

// decodeRequest reads a JSON body into dst and runs its validate tags. A
// malformed body returns errMalformedBody; failed tags return the
// validator.ValidationErrors.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errMalformedBody)
		}
		return fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	return getValidator().Struct(dst)
}

// bindRequest decodes and validates, answering 400 with message on failure.
// It reports whether the handler should continue.
func bindRequest(w http.ResponseWriter, r *http.Request, dst interface{}, message string) bool {
	if err := decodeRequest(w, r, dst); err != nil {
		if errors.Is(err, errMalformedBody) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return false
		}
		respondError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}
