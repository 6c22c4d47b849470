package circulation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

func Test_ConfigFromMap_DefaultsWhenEmpty(t *testing.T) {
	// act
	config, err := circulation.ConfigFromMap(nil)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 5, config.MaxBooksPerPatron)
	assert.Equal(t, 14, config.LoanDurationDays)
	assert.Equal(t, 2, config.MaxRenewalCount)
	assert.True(t, config.FinePerDay.Equal(decimal.RequireFromString("0.50")))
}

func Test_ConfigFromMap_OverridesRecognizedKeys(t *testing.T) {
	// arrange
	settings := map[string]string{
		"max_books_per_user": "3",
		"loan_duration_days": "21",
		"fine_per_day":       "1.25",
		"max_renewal_count":  "0",
	}

	// act
	config, err := circulation.ConfigFromMap(settings)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, config.MaxBooksPerPatron)
	assert.Equal(t, 21, config.LoanDurationDays)
	assert.Equal(t, 0, config.MaxRenewalCount)
	assert.True(t, config.FinePerDay.Equal(decimal.RequireFromString("1.25")))
}

func Test_ConfigFromMap_IgnoresUnrecognizedKeys(t *testing.T) {
	// arrange
	settings := map[string]string{
		"site_banner": "closed on sundays",
	}

	// act
	config, err := circulation.ConfigFromMap(settings)

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.DefaultConfig(), config)
}

func Test_ConfigFromMap_RejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name     string
		settings map[string]string
	}{
		{name: "non-numeric loan duration", settings: map[string]string{"loan_duration_days": "soon"}},
		{name: "zero loan duration", settings: map[string]string{"loan_duration_days": "0"}},
		{name: "negative loan limit", settings: map[string]string{"max_books_per_user": "-1"}},
		{name: "negative renewal count", settings: map[string]string{"max_renewal_count": "-2"}},
		{name: "negative fine rate", settings: map[string]string{"fine_per_day": "-0.50"}},
		{name: "malformed fine rate", settings: map[string]string{"fine_per_day": "fifty cents"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := circulation.ConfigFromMap(tc.settings)

			// assert
			assert.ErrorIs(t, err, circulation.ErrInvalidConfigValue)
		})
	}
}
