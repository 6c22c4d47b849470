package circulation

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Recognized configuration keys for ConfigFromMap.
const (
	ConfigKeyMaxBooksPerPatron = "max_books_per_user"
	ConfigKeyLoanDurationDays  = "loan_duration_days"
	ConfigKeyFinePerDay        = "fine_per_day"
	ConfigKeyMaxRenewalCount   = "max_renewal_count"
)

const (
	defaultMaxBooksPerPatron = 5
	defaultLoanDurationDays  = 14
	defaultMaxRenewalCount   = 2
	defaultFinePerDay        = "0.50"
)

// ErrInvalidConfigValue is returned when a recognized configuration key
// carries a value that cannot be parsed or is out of range.
var ErrInvalidConfigValue = errors.New("invalid configuration value")

// Config carries the circulation policy knobs. It is an explicit value
// injected into the command handlers, not ambient global state, so tests
// can pin every rate and limit deterministically.
type Config struct {
	MaxBooksPerPatron int
	LoanDurationDays  int
	FinePerDay        decimal.Decimal
	MaxRenewalCount   int
}

// DefaultConfig returns the built-in policy defaults.
func DefaultConfig() Config {
	return Config{
		MaxBooksPerPatron: defaultMaxBooksPerPatron,
		LoanDurationDays:  defaultLoanDurationDays,
		FinePerDay:        decimal.RequireFromString(defaultFinePerDay),
		MaxRenewalCount:   defaultMaxRenewalCount,
	}
}

// ConfigFromMap builds a Config from the system settings key/value map,
// starting from the defaults and overriding with any recognized key present.
// Unrecognized keys are ignored - the settings table carries entries for the
// surrounding application too.
func ConfigFromMap(settings map[string]string) (Config, error) {
	config := DefaultConfig()

	if raw, ok := settings[ConfigKeyMaxBooksPerPatron]; ok {
		value, err := parsePositiveInt(ConfigKeyMaxBooksPerPatron, raw)
		if err != nil {
			return Config{}, err
		}
		config.MaxBooksPerPatron = value
	}

	if raw, ok := settings[ConfigKeyLoanDurationDays]; ok {
		value, err := parsePositiveInt(ConfigKeyLoanDurationDays, raw)
		if err != nil {
			return Config{}, err
		}
		config.LoanDurationDays = value
	}

	if raw, ok := settings[ConfigKeyMaxRenewalCount]; ok {
		value, err := parseNonNegativeInt(ConfigKeyMaxRenewalCount, raw)
		if err != nil {
			return Config{}, err
		}
		config.MaxRenewalCount = value
	}

	if raw, ok := settings[ConfigKeyFinePerDay]; ok {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidConfigValue, ConfigKeyFinePerDay, raw)
		}
		config.FinePerDay = rate
	}

	return config, nil
}

func parsePositiveInt(key string, raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidConfigValue, key, raw)
	}

	return value, nil
}

func parseNonNegativeInt(key string, raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidConfigValue, key, raw)
	}

	return value, nil
}
