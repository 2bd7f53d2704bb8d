package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceName is attached to every log line
const ServiceName = "vercel-deploy-wf"

// InitLogger initializes zerolog with the specified configuration
func InitLogger(level string, format string) {
	InitLoggerTo(os.Stdout, level, format)
}

// InitLoggerTo initializes zerolog writing to w
func InitLoggerTo(w io.Writer, level string, format string) {
	// Set time format
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Parse log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	if format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		// JSON format (default)
		log.Logger = zerolog.New(w).With().
			Timestamp().
			Caller().
			Logger()
	}

	log.Logger = log.With().
		Str("service", ServiceName).
		Logger()
}

// VercelLogger creates a logger for Vercel API operations
func VercelLogger() zerolog.Logger {
	return log.With().
		Str("component", "vercel").
		Logger()
}

// WaiterLogger creates a logger for a wait on a single commit
func WaiterLogger(commit string) zerolog.Logger {
	return log.With().
		Str("component", "waiter").
		Str("commit", commit).
		Logger()
}

// WorkflowLogger creates a logger for Temporal workflow clients
func WorkflowLogger(workflowID string, runID string) zerolog.Logger {
	return log.With().
		Str("workflow_id", workflowID).
		Str("run_id", runID).
		Str("component", "workflow").
		Logger()
}

// ActivityLogger creates a logger for Temporal activities
func ActivityLogger(activityName string, workflowID string, runID string) zerolog.Logger {
	return log.With().
		Str("activity", activityName).
		Str("workflow_id", workflowID).
		Str("run_id", runID).
		Str("component", "activity").
		Logger()
}

// GitHubLogger creates a logger for GitHub API operations
func GitHubLogger() zerolog.Logger {
	return log.With().
		Str("component", "github").
		Logger()
}

// WorkerLogger creates a logger for the Temporal worker process
func WorkerLogger(taskQueue string) zerolog.Logger {
	return log.With().
		Str("component", "worker").
		Str("task_queue", taskQueue).
		Logger()
}
