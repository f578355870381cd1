package message

// errors.go maps technical errors to user-facing messages with codes that
// users can quote to support staff.
//
// Codes are grouped by category:
//
//	DB001-DB007    database constraints and connectivity
//	VAL001-VAL102  record validation (see the catalog IDs in message.go)
//	VAL900         upload rejected because records failed validation
//	FILE001-FILE006 uploaded file problems
//	UPL002-UPL005  upload lifecycle (busy, cancelled, timed out)
//	QUE001         background jobs unavailable
//	TGT001         unknown import target
//	ERR000         fallback
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database
	{"duplicate key", UserMessage{"A record with this key already exists", "Remove duplicate records and upload again", "DB001"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your file for duplicate key values", "DB002"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Ensure parent records are uploaded first", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// Validation
	{"records failed validation", UserMessage{"Some records failed validation", "Fix the listed lines and upload the file again", "VAL900"}},

	// File
	{"file too large", UserMessage{"File exceeds maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{"layout", UserMessage{"The file layout could not be applied", "Check that the file matches the expected layout", "FILE002"}},
	{"read upload", UserMessage{"The uploaded file could not be read", "Upload the file again", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a file to upload", "FILE004"}},
	{"contains no records", UserMessage{"The uploaded file is empty", "Please upload a file with data records", "FILE005"}},
	{"unsupported file type", UserMessage{"This file type is not accepted", "Upload a .txt, .csv or .xlsx file", "FILE006"}},

	// Upload lifecycle
	{"too many concurrent uploads", UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try uploading a smaller file or check your connection", "UPL005"}},
	{"timeout", UserMessage{"Operation timed out", "Try uploading a smaller file or try again later", "DB006"}},

	// Queue
	{"background jobs are disabled", UserMessage{"Background processing is not available", "Upload the file without the async option", "QUE001"}},

	// Targets
	{"unknown target", UserMessage{"Unknown import target", "This import target is not configured", "TGT001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    IDUnknownMessage,
}

// MapError converts a technical error to a user-friendly message.
// Unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
