package services

// ServiceError is a typed error with an HTTP status code. Services return it
// instead of a bare error so controllers can map failures to responses
// without inspecting error chains.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }
