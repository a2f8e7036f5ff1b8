package util

import (
	"fmt"
	"io"
	"os"
)

var GLOBAL_LOG_LEVEL = LogLevelInfo
var GLOBAL_LOG_CATEGORIES = LogWorld | LogSnapshot | LogSystem

// LogOutput receives every emitted line.
var LogOutput io.Writer = os.Stderr

type LogLevel int

const (
	LogLevelError LogLevel = 1 << iota
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

type LogCategory int

const (
	LogNumeric LogCategory = 1 << iota
	LogCollision
	LogIntegrator
	LogSnapshot
	LogWorld
	LogSystem
)

// LogEnabled lets callers skip building expensive messages.
func LogEnabled(cat LogCategory, lvl LogLevel) bool {
	return lvl <= GLOBAL_LOG_LEVEL && GLOBAL_LOG_CATEGORIES&cat != 0
}

func log(cat LogCategory, lvl LogLevel, txt string) {
	if !LogEnabled(cat, lvl) {
		return
	}
	fmt.Fprintln(LogOutput, txt)
}

func LogNumericWarning(txt string) {
	log(LogNumeric, LogLevelWarning, txt)
}

func LogCollisionDebug(txt string) {
	log(LogCollision, LogLevelDebug, txt)
}

func LogCollisionError(txt string) {
	log(LogCollision, LogLevelError, txt)
}

func LogIntegratorDebug(txt string) {
	log(LogIntegrator, LogLevelDebug, txt)
}

func LogIntegratorWarning(txt string) {
	log(LogIntegrator, LogLevelWarning, txt)
}

func LogIntegratorError(txt string) {
	log(LogIntegrator, LogLevelError, txt)
}

func LogSnapshotInfo(txt string) {
	log(LogSnapshot, LogLevelInfo, txt)
}

func LogSnapshotError(txt string) {
	log(LogSnapshot, LogLevelError, txt)
}

func LogWorldInfo(txt string) {
	log(LogWorld, LogLevelInfo, txt)
}

func LogWorldDebug(txt string) {
	log(LogWorld, LogLevelDebug, txt)
}

func LogWorldError(txt string) {
	log(LogWorld, LogLevelError, txt)
}

func LogSystemInfo(txt string) {
	log(LogSystem, LogLevelInfo, txt)
}

func LogSystemError(txt string) {
	log(LogSystem, LogLevelError, txt)
}
