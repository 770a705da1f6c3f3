package decoder

import (
	"errors"
	"fmt"
)

// Limits holds the thresholds used by the value probes and the record carver.
type Limits struct {
	// StringWindow is how many bytes after a field name are searched for a string tag.
	StringWindow int `yaml:"string_window"`

	// MaxStringLength is the exclusive upper bound on an accepted string length.
	MaxStringLength int `yaml:"max_string_length"`

	// DoubleWindow is how many bytes after a start offset are searched for a double tag.
	DoubleWindow int `yaml:"double_window"`

	// BoolWindow is how many bytes after a field name are searched for a boolean tag.
	BoolWindow int `yaml:"bool_window"`

	// MaxMagnitude is the exclusive bound on the absolute value of an accepted double.
	MaxMagnitude float64 `yaml:"max_magnitude"`

	// TransactionRadius is the record window radius around a transaction anchor.
	TransactionRadius int `yaml:"transaction_radius"`

	// AccountRadius is the record window radius around an account anchor.
	AccountRadius int `yaml:"account_radius"`
}

// DefaultLimits returns the thresholds tuned against the Copilot Money cache.
func DefaultLimits() Limits {
	return Limits{
		StringWindow:      50,
		MaxStringLength:   100,
		DoubleWindow:      20,
		BoolWindow:        20,
		MaxMagnitude:      10_000_000,
		TransactionRadius: 1500,
		AccountRadius:     1000,
	}
}

// Validate reports whether every threshold is usable.
func (l Limits) Validate() error {
	var errs []error
	check := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	check("string_window", l.StringWindow)
	check("max_string_length", l.MaxStringLength)
	check("double_window", l.DoubleWindow)
	check("bool_window", l.BoolWindow)
	check("transaction_radius", l.TransactionRadius)
	check("account_radius", l.AccountRadius)
	if !(l.MaxMagnitude > 0) {
		errs = append(errs, fmt.Errorf("max_magnitude must be positive, got %v", l.MaxMagnitude))
	}
	if l.MaxStringLength > 128 {
		// Longer strings carry a multi-byte length prefix.
		errs = append(errs, fmt.Errorf("max_string_length must be at most 128, got %d", l.MaxStringLength))
	}
	return errors.Join(errs...)
}
