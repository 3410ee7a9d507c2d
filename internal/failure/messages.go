// Package failure maps technical errors to support codes.
//
// # Error Codes Reference
//
// Every per-record import failure and every API error carries a code that
// can be quoted to support. Codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: a show with this ID already exists
//	        SQLSTATE 23505 on a primary key, or "duplicate key"
//	DB002 - Unique constraint: a value must be unique but already exists
//	        SQLSTATE 23505 on any other constraint, or "violates unique"
//	DB003 - Foreign key: referenced row does not exist
//	        SQLSTATE 23503, or "foreign key constraint"
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout (SQLSTATE 57014, or "timeout")
//	DB007 - Deadlock (SQLSTATE 40P01, or "deadlock")
//	DB008 - Missing table (SQLSTATE 42P01, or "does not exist")
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date (SQLSTATE 22007/22008, or "invalid date")
//	VAL002 - Invalid number (SQLSTATE 22P02/22003, or "invalid number")
//	VAL003 - Required field empty (SQLSTATE 23502, or "required field")
//	VAL004 - Missing column: "missing required column"
//	VAL005 - Invalid show id: "invalid show id"
//	VAL006 - Invalid query parameter: "invalid parameter"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Source not found: "no such file"
//	FILE002 - Invalid CSV: "invalid csv"
//	FILE003 - Encoding error: "encoding error"
//	FILE004 - S3 not configured: "no s3 client"
//	FILE005 - Empty file: "empty file"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Cancelled: "context canceled"
//	RUN002 - Deadline exceeded: "context deadline exceeded"
//
// # Not Found (NF001-NF099)
//
//	NF001 - Show not found: "show not found"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error. Check the logs for the technical error.
//
// # Matching
//
// A *pgconn.PgError anywhere in the chain is classified by SQLSTATE first.
// Otherwise patterns are matched case-insensitively with strings.Contains;
// the first match wins, so specific patterns come before general ones.
package failure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	duplicateShow = UserMessage{
		Message: "A show with this ID already exists",
		Action:  "Re-run the import; existing shows are skipped",
		Code:    "DB001",
	}
	uniqueValue = UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for concurrent writers on the catalog tables",
		Code:    "DB002",
	}
	foreignKey = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check that the show row was inserted before its links",
		Code:    "DB003",
	}
	connRefused = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Check DATABASE_URL and that PostgreSQL is running",
		Code:    "DB004",
	}
	connReset = UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Re-run the import; committed batches are skipped",
		Code:    "DB005",
	}
	timeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB006",
	}
	deadlock = UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}
	missingTable = UserMessage{
		Message: "Catalog table does not exist",
		Action:  "Create the catalog schema before importing",
		Code:    "DB008",
	}
	invalidDate = UserMessage{
		Message: "Invalid date format detected",
		Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024",
		Code:    "VAL001",
	}
	invalidNumber = UserMessage{
		Message: "Invalid number format detected",
		Action:  "Use plain digits with an optional decimal point",
		Code:    "VAL002",
	}
	requiredField = UserMessage{
		Message: "Required field is empty",
		Action:  "Ensure every row has an ID",
		Code:    "VAL003",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database
	{"duplicate key", duplicateShow},
	{"unique constraint", uniqueValue},
	{"violates unique", uniqueValue},
	{"foreign key constraint", foreignKey},
	{"violates foreign key", foreignKey},
	{"connection refused", connRefused},
	{"connection reset", connReset},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Raise the timeout or try again",
		Code:    "RUN002",
	}},
	{"timeout", timeout},
	{"deadlock", deadlock},

	// Validation
	{"invalid date", invalidDate},
	{"invalid show id", UserMessage{
		Message: "Show ID is not a whole number",
		Action:  "Check the ID column of this row",
		Code:    "VAL005",
	}},
	{"invalid number", invalidNumber},
	{"required field", requiredField},
	{"missing required column", UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Check that the file has an ID column",
		Code:    "VAL004",
	}},
	{"invalid parameter", UserMessage{
		Message: "Invalid query parameter",
		Action:  "Check the parameter values and try again",
		Code:    "VAL006",
	}},

	// File
	{"no such file", UserMessage{
		Message: "Source file not found",
		Action:  "Check IMPORT_FILE or the --file flag",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure file is comma-separated with consistent quoting",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}},
	{"no s3 client", UserMessage{
		Message: "S3 source requested but S3 is not configured",
		Action:  "Set S3_REGION and AWS credentials",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The source file is empty",
		Action:  "Provide a CSV file with a header and data rows",
		Code:    "FILE005",
	}},

	// Run
	{"context canceled", UserMessage{
		Message: "Operation was cancelled",
		Action:  "Re-run when ready; committed batches are skipped",
		Code:    "RUN001",
	}},

	// Not found
	{"show not found", UserMessage{
		Message: "Show not found",
		Action:  "Check the show ID",
		Code:    "NF001",
	}},
	{"does not exist", missingTable},

	// Rate limiting
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// Map converts a technical error to a user-friendly message.
// It returns the zero UserMessage for a nil error.
//
// Example:
//
//	msg := failure.Map(errors.New("invalid date \"31/31/2020\""))
//	// msg.Code == "VAL001"
func Map(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := mapSQLState(pgErr); ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapSQLState(pgErr *pgconn.PgError) (UserMessage, bool) {
	switch pgErr.Code {
	case "23505":
		if strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
			return duplicateShow, true
		}
		return uniqueValue, true
	case "23503":
		return foreignKey, true
	case "23502":
		return requiredField, true
	case "22007", "22008":
		return invalidDate, true
	case "22P02", "22003":
		return invalidNumber, true
	case "40P01":
		return deadlock, true
	case "57014":
		return timeout, true
	case "42P01":
		return missingTable, true
	}
	return UserMessage{}, false
}

// Format creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func Format(err error) string {
	msg := Map(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsKnown reports whether err maps to a specific code rather than ERR000.
func IsKnown(err error) bool {
	return err != nil && Map(err).Code != defaultMessage.Code
}
