package errs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrResponse is the body written by HTTPErrorResponse.
type ErrResponse struct {
	Error ServiceError `json:"error"`
}

// ServiceError has fields for Service errors. All fields with no data will
// be omitted.
type ServiceError struct {
	Kind    string `json:"kind,omitempty"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTPErrorResponse takes a writer, logger and error and writes the error
// to the response with a status code derived from the error Kind.
func HTTPErrorResponse(w http.ResponseWriter, logger zerolog.Logger, err error) {
	if err == nil {
		nilErrorResponse(w, logger)
		return
	}

	var e *Error
	if !errors.As(err, &e) {
		unknownErrorResponse(w, logger, err)
		return
	}

	kind := kindOf(e)

	logger.Error().
		Stack().
		Err(err).
		Str("kind", kind.String()).
		Str("param", string(e.Param)).
		Strs("ops", OpStack(err)).
		Msg("error response sent to client")

	errResponse := ErrResponse{
		Error: ServiceError{
			Kind:  kind.String(),
			Param: string(paramOf(e)),
		},
	}

	// Internal details stay in the log.
	if kind != Internal && kind != Database {
		errResponse.Error.Message = e.Error()
	}

	writeJSON(w, httpStatusCode(kind), errResponse)
}

func kindOf(e *Error) Kind {
	for e != nil {
		if e.Kind != Other {
			return e.Kind
		}

		var next *Error
		if !errors.As(e.Err, &next) {
			break
		}

		e = next
	}

	return Other
}

func paramOf(e *Error) Parameter {
	for e != nil {
		if e.Param != "" {
			return e.Param
		}

		var next *Error
		if !errors.As(e.Err, &next) {
			break
		}

		e = next
	}

	return ""
}

func httpStatusCode(k Kind) int {
	switch k {
	case InvalidRequest, Validation:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized:
		return http.StatusForbidden
	case NotExist:
		return http.StatusNotFound
	case IO:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func unknownErrorResponse(w http.ResponseWriter, logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("unknown error")

	writeJSON(w, http.StatusInternalServerError, ErrResponse{
		Error: ServiceError{
			Kind: Other.String(),
		},
	})
}

func nilErrorResponse(w http.ResponseWriter, logger zerolog.Logger) {
	logger.Error().Msg("nil error, no response body sent")

	w.WriteHeader(http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(v)
}
