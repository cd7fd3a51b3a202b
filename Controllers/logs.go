package Controllers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"FleetDesk/middleware"

	"github.com/gofiber/fiber/v2"
)

// LogEntry represents a single log entry
type LogEntry = middleware.LogData

// LogGroup represents a group of logs by path
type LogGroup struct {
	Path        string     `json:"path"`
	Method      string     `json:"method"`
	Count       int        `json:"count"`
	AvgLatency  float64    `json:"avg_latency_ms"`
	MinLatency  float64    `json:"min_latency_ms"`
	MaxLatency  float64    `json:"max_latency_ms"`
	SuccessRate float64    `json:"success_rate"`
	Logs        []LogEntry `json:"logs"`
}

// LogsResponse represents the response structure for logs API
type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// LogController reads back the JSON lines written by the request loggers
type LogController struct {
	Dir string
}

func NewLogController(dir string) *LogController {
	return &LogController{Dir: dir}
}

// GetLogs retrieves logs with pagination, date filtering, and grouping.
// ?file=errors reads the error log instead of the request log.
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	page, pageSize := pagination(c.Query("page", "1"), c.Query("page_size", "50"), 50)

	dateFrom, dateTo, err := logDateRange(c.Query("date_from", ""), c.Query("date_to", ""))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogsFromFile(lc.file(c.Query("file")), dateFrom, dateTo)
	if err != nil {
		log.Printf("Error reading logs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read logs",
		})
	}

	filteredLogs := filterLogs(logs, c.Query("path", ""), c.Query("method", ""), c.Query("status", ""))
	groups := groupLogsByPath(filteredLogs)

	totalGroups := len(groups)
	start, end := pageBounds(page, pageSize, totalGroups)

	response := LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   len(filteredLogs),
		TotalGroups: totalGroups,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (totalGroups + pageSize - 1) / pageSize,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	}
	return c.JSON(response)
}

// GetLogStats returns statistics about logs
func (lc *LogController) GetLogStats(c *fiber.Ctx) error {
	dateFrom, dateTo, err := logDateRange(c.Query("date_from", ""), c.Query("date_to", ""))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogsFromFile(lc.file(""), dateFrom, dateTo)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read logs",
		})
	}

	var totalRequests, successfulRequests, errorRequests int
	var totalLatency, minLatency, maxLatency time.Duration
	methodStats := make(map[string]int)
	statusStats := make(map[int]int)
	pathStats := make(map[string]int)

	for i, entry := range logs {
		totalRequests++

		if entry.Status >= 200 && entry.Status < 300 {
			successfulRequests++
		} else if entry.Status >= 400 {
			errorRequests++
		}

		totalLatency += entry.Latency
		if i == 0 || entry.Latency < minLatency {
			minLatency = entry.Latency
		}
		if entry.Latency > maxLatency {
			maxLatency = entry.Latency
		}

		methodStats[entry.Method]++
		statusStats[entry.Status]++
		pathStats[entry.Path]++
	}

	avgLatency := time.Duration(0)
	successRate := 0.0
	if totalRequests > 0 {
		avgLatency = totalLatency / time.Duration(totalRequests)
		successRate = float64(successfulRequests) / float64(totalRequests) * 100
	}

	type pathCount struct {
		Path  string `json:"path"`
		Count int    `json:"count"`
	}
	topPaths := make([]pathCount, 0, len(pathStats))
	for path, count := range pathStats {
		topPaths = append(topPaths, pathCount{path, count})
	}
	sort.Slice(topPaths, func(i, j int) bool {
		if topPaths[i].Count != topPaths[j].Count {
			return topPaths[i].Count > topPaths[j].Count
		}
		return topPaths[i].Path < topPaths[j].Path
	})
	if len(topPaths) > 10 {
		topPaths = topPaths[:10]
	}

	return c.JSON(fiber.Map{
		"total_requests":      totalRequests,
		"successful_requests": successfulRequests,
		"error_requests":      errorRequests,
		"success_rate":        successRate,
		"avg_latency_ms":      milliseconds(avgLatency),
		"min_latency_ms":      milliseconds(minLatency),
		"max_latency_ms":      milliseconds(maxLatency),
		"method_stats":        methodStats,
		"status_stats":        statusStats,
		"top_paths":           topPaths,
		"date_from":           dateFrom,
		"date_to":             dateTo,
	})
}

func (lc *LogController) file(kind string) string {
	if kind == "errors" {
		return filepath.Join(lc.Dir, middleware.ErrorLogFile)
	}
	return filepath.Join(lc.Dir, middleware.RequestLogFile)
}

// logDateRange defaults to today when both bounds are empty.
func logDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	if fromStr == "" && toStr == "" {
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return from, from.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}

	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	to := now
	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, now.Location())
		if err != nil {
			return from, to, fmt.Errorf("Invalid date_from format. Use YYYY-MM-DD")
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, now.Location())
		if err != nil {
			return from, to, fmt.Errorf("Invalid date_to format. Use YYYY-MM-DD")
		}
		// Set to end of day
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return from, to, nil
}

// readLogsFromFile reads logs from the specified file and filters by date
// range. A missing file means no logs yet.
func readLogsFromFile(filePath string, dateFrom, dateTo time.Time) ([]LogEntry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	logs := []LogEntry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Skip invalid JSON lines
			continue
		}

		if !entry.Timestamp.Before(dateFrom) && !entry.Timestamp.After(dateTo) {
			logs = append(logs, entry)
		}
	}
	return logs, scanner.Err()
}

// filterLogs filters logs by path, method, and status
func filterLogs(logs []LogEntry, pathFilter, methodFilter, statusFilter string) []LogEntry {
	filtered := []LogEntry{}
	status, statusErr := strconv.Atoi(statusFilter)

	for _, entry := range logs {
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(pathFilter)) {
			continue
		}
		if methodFilter != "" && !strings.EqualFold(entry.Method, methodFilter) {
			continue
		}
		if statusFilter != "" && statusErr == nil && entry.Status != status {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// groupLogsByPath groups logs by method and path and calculates statistics
func groupLogsByPath(logs []LogEntry) []LogGroup {
	groupMap := make(map[string]*LogGroup)
	successes := make(map[string]int)

	for _, entry := range logs {
		key := entry.Method + " " + entry.Path
		latencyMs := milliseconds(entry.Latency)

		group, exists := groupMap[key]
		if !exists {
			group = &LogGroup{Path: entry.Path, Method: entry.Method, MinLatency: latencyMs}
			groupMap[key] = group
		}

		group.Count++
		group.Logs = append(group.Logs, entry)
		group.AvgLatency += (latencyMs - group.AvgLatency) / float64(group.Count)
		if latencyMs < group.MinLatency {
			group.MinLatency = latencyMs
		}
		if latencyMs > group.MaxLatency {
			group.MaxLatency = latencyMs
		}
		if entry.Status >= 200 && entry.Status < 300 {
			successes[key]++
		}
		group.SuccessRate = float64(successes[key]) / float64(group.Count)
	}

	groups := make([]LogGroup, 0, len(groupMap))
	for _, group := range groupMap {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Method+groups[i].Path < groups[j].Method+groups[j].Path
	})
	return groups
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
