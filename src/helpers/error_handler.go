package helpers

import (
	"fmt"
	"time"

	"mse-harvester/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type HarvesterError struct {
	Message string
	Cause   error
}

func (e *HarvesterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *HarvesterError) Unwrap() error {
	return e.Cause
}

// Distinct error types for type assertions.
// NetworkError covers unreachable-source failures, DatabaseError covers
// store write failures; both are entity-scoped in the sync engine.
type ConfigurationError struct{ HarvesterError }
type NetworkError struct{ HarvesterError }
type DataSourceError struct{ HarvesterError }
type DatabaseError struct{ HarvesterError }
type ValidationError struct{ HarvesterError }

// -----------------------------------------------------------------------------

func NewNetworkError(message string, cause error) *NetworkError {
	return &NetworkError{HarvesterError{Message: message, Cause: cause}}
}

func NewDataSourceError(message string, cause error) *DataSourceError {
	return &DataSourceError{HarvesterError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{HarvesterError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
func RetryWithBackoff(log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<attempt)
			log.Warning("%s failed (attempt %d/%d): %v. Retrying in %v", operation, attempt+1, maxRetries, lastErr, delay)
			time.Sleep(delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}
