package charging

import (
	"errors"
	"fmt"
)

var (
	// ErrNilCharger is reported when a factory yields neither a charger nor an error.
	ErrNilCharger = errors.New("factory returned nil charger")

	// ErrChargerFault wraps errors, panics and invalid values from a charger call.
	ErrChargerFault = errors.New("charger fault")
)

// recovered converts a recovered panic value into an error.
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: panic: %w", ErrChargerFault, err)
	}
	return fmt.Errorf("%w: panic: %v", ErrChargerFault, v)
}
