package invoice

// Result is the envelope every public operation returns. StatusCode follows
// HTTP semantics (200/201/400/404/500) so transports can map it directly.
// Errors never cross this boundary as panics or raw error values.
type Result[T any] struct {
	Succeeded  bool   `json:"succeeded"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
	Result     T      `json:"result,omitempty"`
}

func succeed[T any](code int, v T) Result[T] {
	return Result[T]{Succeeded: true, StatusCode: code, Result: v}
}

func fail[T any](code int, msg string) Result[T] {
	return Result[T]{Succeeded: false, StatusCode: code, Error: msg}
}
