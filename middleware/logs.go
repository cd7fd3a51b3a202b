package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Log files under the configured directory, read back by the log viewer
const (
	RequestLogFile = "requests.log"
	ErrorLogFile   = "errors.log"
)

// Body fields never written to the logs
var redactedFields = []string{"password", "motDePasse", "token"}

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	// Directory holding the log file
	Dir string
	// File name inside Dir
	File string
	// Only record requests that failed
	ErrorsOnly bool
	// Include the JSON request body, with credentials redacted
	IncludeBody bool
	// Skip logging for specific paths
	SkipPaths []string
}

// LogData is one JSON line of requests.log or errors.log
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	RequestBody   interface{}   `json:"request_body,omitempty"`
	Error         string        `json:"error,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	Username      string        `json:"username"`
	ContentLength int64         `json:"content_length"`
}

// LoggingMiddleware appends one JSON line per request to cfg.Dir/cfg.File.
func LoggingMiddleware(cfg LogConfig) fiber.Handler {
	if cfg.File == "" {
		cfg.File = RequestLogFile
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
	}
	path := filepath.Join(cfg.Dir, cfg.File)

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *fiber.Ctx) error {
		if skip[c.Path()] {
			return c.Next()
		}
		start := time.Now()

		// The first logger in the chain owns the request id
		requestID, _ := c.Locals("requestid").(string)
		if requestID == "" {
			requestID = c.Get(fiber.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Set(fiber.HeaderXRequestID, requestID)
			c.Locals("requestid", requestID)
		}

		var body interface{}
		if cfg.IncludeBody && c.Method() != fiber.MethodGet {
			body = redactBody(c.Body())
		}

		err := c.Next()

		data := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			RequestID:     requestID,
			RequestBody:   body,
			ContentLength: int64(len(c.Response().Body())),
		}
		if user, ok := CurrentUser(c); ok {
			data.UserID = user.ID
			data.Username = user.Nom
		}
		// The error handler sets the status after us
		if err != nil {
			data.Error = err.Error()
			data.Status = errorStatus(err)
		}

		if !cfg.ErrorsOnly || data.Status >= fiber.StatusBadRequest {
			appendLine(path, data)
		}
		return err
	}
}

// RequestLogger records every request except health checks.
func RequestLogger(dir string) fiber.Handler {
	return LoggingMiddleware(LogConfig{
		Dir:       dir,
		File:      RequestLogFile,
		SkipPaths: []string{"/health"},
	})
}

// ErrorLogger records failed requests with their body so rejected payloads can
// be inspected from the log viewer.
func ErrorLogger(dir string) fiber.Handler {
	return LoggingMiddleware(LogConfig{
		Dir:         dir,
		File:        ErrorLogFile,
		ErrorsOnly:  true,
		IncludeBody: true,
		SkipPaths:   []string{"/health"},
	})
}

func redactBody(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Multipart uploads and other non-JSON bodies are not kept
		return nil
	}
	for _, key := range redactedFields {
		if _, ok := fields[key]; ok {
			fields[key] = "***"
		}
	}
	return fields
}

var fileMu sync.Mutex

func appendLine(path string, data LogData) {
	line, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error encoding log entry: %v\n", err)
		return
	}

	fileMu.Lock()
	defer fileMu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}

func errorStatus(err error) int {
	var e *fiber.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return fiber.StatusInternalServerError
}
