// Package core provides the in-memory table pipeline for the apartment price
// viewer.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Messages are shown to users in Korean; codes and patterns stay
// ASCII so logs remain greppable.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - No data source: neither CSV_URL nor SHEET_ID is set
//	         Action: Set CSV_URL or SHEET_ID and restart
//	         Patterns: "no data source configured"
//
//	CFG002 - Column registry: the column registry document is invalid
//	         Action: Check TABLE_COLUMNS_FILE
//	         Patterns: "column registry"
//
// # Source Errors (SRC001-SRC099, CSV001)
//
// Any failure here is shown with the single generic load-failure status.
//
//	SRC002 - Unexpected status: the sheet endpoint did not return 2xx
//	         Patterns: "unexpected status"
//
//	CSV001 - Invalid CSV: the response body could not be parsed
//	         Patterns: "invalid csv"
//
//	SRC003 - Empty sheet: the sheet returned no records
//	         Patterns: "empty sheet"
//
//	SRC001 - Fetch failed: the sheet could not be downloaded
//	         Patterns: "fetch sheet"
//
// # Data Errors (DAT001-DAT099)
//
//	DAT001 - Not loaded: the dataset has not been loaded yet
//	         Patterns: "dataset not loaded"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - No rows: the filtered table is empty
//	         Patterns: "no rows to export"
//
//	EXP002 - Exporter unavailable: workbook export is disabled
//	         Patterns: "exporter unavailable"
//
//	EXP003 - Busy: every export slot stayed occupied
//	         Action: Retry shortly
//	         Patterns: "too many concurrent exports"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled        Patterns: "context canceled"
//	REQ002 - Request timeout          Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests       Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Configuration Errors (CFG001-CFG002)
	// =========================================================================
	{
		pattern: "no data source configured",
		msg: UserMessage{
			Message: MsgUnconfigured,
			Action:  "CSV_URL 또는 SHEET_ID 환경 변수를 설정한 뒤 다시 시작하세요",
			Code:    "CFG001",
		},
	},
	{
		pattern: "column registry",
		msg: UserMessage{
			Message: "컬럼 설정 파일을 읽을 수 없습니다",
			Action:  "TABLE_COLUMNS_FILE 경로와 내용을 확인하세요",
			Code:    "CFG002",
		},
	},

	// =========================================================================
	// Export Errors (EXP001-EXP003)
	// =========================================================================
	{
		pattern: "no rows to export",
		msg: UserMessage{
			Message: "내보낼 데이터가 없습니다",
			Action:  "필터를 조정한 뒤 다시 시도하세요",
			Code:    "EXP001",
		},
	},
	{
		pattern: "exporter unavailable",
		msg: UserMessage{
			Message: "엑셀 내보내기를 사용할 수 없습니다",
			Action:  "관리자에게 문의하세요",
			Code:    "EXP002",
		},
	},

	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "다른 내보내기 요청을 처리하는 중입니다",
			Action:  "잠시 후 다시 시도하세요",
			Code:    "EXP003",
		},
	},

	// =========================================================================
	// Data Errors (DAT001)
	// =========================================================================
	{
		pattern: "dataset not loaded",
		msg: UserMessage{
			Message: MsgLoading,
			Action:  "잠시 후 새로고침하세요",
			Code:    "DAT001",
		},
	},

	// =========================================================================
	// Source Errors (SRC001-SRC003, CSV001)
	// All of these share the generic load-failure message.
	// =========================================================================
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "스프레드시트가 웹에 게시되어 있는지 확인하세요",
			Code:    "SRC002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "스프레드시트 공개 설정을 확인하세요",
			Code:    "CSV001",
		},
	},
	{
		pattern: "empty sheet",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "스프레드시트에 데이터가 있는지 확인하세요",
			Code:    "SRC003",
		},
	},
	{
		pattern: "fetch sheet",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "네트워크 상태를 확인한 뒤 다시 불러오세요",
			Code:    "SRC001",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "요청이 취소되었습니다",
			Action:  "다시 시도하세요",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "요청 시간이 초과되었습니다",
			Action:  "잠시 후 다시 시도하세요",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "요청이 너무 많습니다",
			Action:  "잠시 후 다시 시도하세요",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "알 수 없는 오류가 발생했습니다",
	Action:  "다시 시도하거나 관리자에게 문의하세요",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
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

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}
