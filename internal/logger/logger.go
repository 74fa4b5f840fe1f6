/**
 * @description
 * Logger for the Glimpse backend.
 * Info and warnings go to stdout so hosting platforms don't label them as errors;
 * errors go to stderr.
 *
 * @dependencies
 * - standard "log"
 * - standard "fmt"
 */

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	// InfoLogger writes to stdout
	InfoLogger *log.Logger
	// ErrorLogger writes to stderr
	ErrorLogger *log.Logger
)

func init() {
	InfoLogger = log.New(os.Stdout, "", log.LstdFlags)
	ErrorLogger = log.New(os.Stderr, "", log.LstdFlags)
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	InfoLogger.Println(fmt.Sprintf(format, v...))
}

// Warn logs a recoverable problem (bad upstream data, cache misses that failed) to stdout
func Warn(format string, v ...interface{}) {
	InfoLogger.Println("WARN " + fmt.Sprintf(format, v...))
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	ErrorLogger.Println(fmt.Sprintf(format, v...))
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	ErrorLogger.Fatalln(fmt.Sprintf(format, v...))
}

// SetOutput redirects both loggers, e.g. to silence or capture output in tests
func SetOutput(w io.Writer) {
	InfoLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
}
