package shell

import "strconv"

// Metric names for command handler retry instrumentation.
const (
	CommandHandlerRetriesMetric           = "commandhandler_retries_total"
	CommandHandlerRetryDelayMetric        = "commandhandler_retry_delay_seconds"
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"
)

// Shared label keys.
const (
	LogAttrCommandType = "command_type"
	LogAttrError       = "error"
)

// BuildRetryLabels builds the label set for a retry attempt metric.
func BuildRetryLabels(commandType string, attempt int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		"attempt_number":   strconv.Itoa(attempt),
		"error_type":       errorType,
	}
}
