package gateway

import "strings"

// GenericErrorMessage replaces gateway messages that are unsafe to show.
const GenericErrorMessage = "Something went wrong. Please try again later."

const maxMessageLength = 200

var stackTraceMarkers = []string{"goroutine ", "Traceback", "Exception"}

var internalMarkers = []string{"sql", "database", "connection", "ECONN", "timeout", "mongo", "redis"}

// SanitizeMessage returns msg when it is fit for a viewer, and
// GenericErrorMessage when it is empty, too long, or leaks a stack trace or
// infrastructure detail.
func SanitizeMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" || len(msg) > maxMessageLength {
		return GenericErrorMessage
	}
	if looksLikeStackTrace(msg) {
		return GenericErrorMessage
	}
	lower := strings.ToLower(msg)
	for _, marker := range internalMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return GenericErrorMessage
		}
	}
	return msg
}

func looksLikeStackTrace(msg string) bool {
	for _, marker := range stackTraceMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	// "at foo.bar(file:12)" frames: "at " followed by a call on the same line.
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "at ") && strings.Contains(line, "(") {
			return true
		}
	}
	return false
}
