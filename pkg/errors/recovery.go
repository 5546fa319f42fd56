package errors

import (
	"fmt"
)

// RecoverPanic converts a recovered panic value into an error so consumer
// loops can treat it like any other processing failure.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}

	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic: %w", v)
	case string:
		return fmt.Errorf("panic: %s", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
