package inference

import "fmt"

// ErrorKind classifies a RemoteError.
type ErrorKind string

const (
	// KindNetwork covers transport-level failures: connection refused,
	// timeouts, a canceled context, or an unreadable response body.
	KindNetwork ErrorKind = "network"

	// KindStatus covers non-success HTTP statuses other than 503.
	KindStatus ErrorKind = "status"

	// KindModelLoading is the upstream 503 returned while the model is
	// still warming up. The call may succeed if repeated later; this
	// client never retries on its own.
	KindModelLoading ErrorKind = "model_loading"

	// KindPayload covers responses that are not the expected detection
	// array: an {"error": ...} object, malformed JSON, or detections with
	// a missing label, score, or box field.
	KindPayload ErrorKind = "payload"
)

// RemoteError describes a failed call to the inference service.
type RemoteError struct {
	Kind    ErrorKind
	Status  int // HTTP status code, 0 for transport failures
	Message string
	cause   error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("inference service: %s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("inference service: %s: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.cause
}
