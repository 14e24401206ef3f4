package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-assistant/internal/storage"
)

// DailyStats summarizes one day of the interaction log.
type DailyStats struct {
	Date           string               `json:"date"`
	TotalMessages  int                  `json:"total_messages"`
	Replies        int                  `json:"replies"`
	Failures       int                  `json:"failures"`
	FailuresByKind map[string]int       `json:"failures_by_kind"`
	TotalTokens    int                  `json:"total_tokens"`
	UniqueUsers    int                  `json:"unique_users"`
	UserStats      map[string]UserStats `json:"user_stats"`
}

type UserStats struct {
	Username string `json:"username"`
	Messages int    `json:"messages"`
	Failures int    `json:"failures"`
	Tokens   int    `json:"tokens"`
}

// AnalyzeDailyLogs aggregates the events of targetDate's calendar date,
// bounded by UTC midnights.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:           startOfDay.Format("2006-01-02"),
		FailuresByKind: make(map[string]int),
		UserStats:      make(map[string]UserStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.UserMessage == "" {
			continue
		}

		stats.TotalMessages++
		userStat, ok := stats.UserStats[event.Username]
		if !ok {
			userStat = UserStats{Username: event.Username}
		}
		userStat.Messages++

		if event.ErrorKind != "" {
			stats.Failures++
			stats.FailuresByKind[event.ErrorKind]++
			userStat.Failures++
		} else {
			stats.Replies++
			stats.TotalTokens += event.TotalTokens
			userStat.Tokens += event.TotalTokens
		}
		stats.UserStats[event.Username] = userStat
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders the stats as plain text, users and failure
// kinds in sorted order.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage for %s\n\n", ds.Date)
	fmt.Fprintf(&b, "Messages: %d (replies %d, failures %d)\n", ds.TotalMessages, ds.Replies, ds.Failures)
	fmt.Fprintf(&b, "Tokens: %d\n", ds.TotalTokens)
	fmt.Fprintf(&b, "Users: %d\n", ds.UniqueUsers)

	if len(ds.FailuresByKind) > 0 {
		b.WriteString("\nFailures by kind:\n")
		for _, kind := range sortedKeys(ds.FailuresByKind) {
			fmt.Fprintf(&b, "- %s: %d\n", kind, ds.FailuresByKind[kind])
		}
	}

	if len(ds.UserStats) > 0 {
		b.WriteString("\nPer user:\n")
		names := make([]string, 0, len(ds.UserStats))
		for name := range ds.UserStats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			us := ds.UserStats[name]
			fmt.Fprintf(&b, "- %s: %d messages, %d failures, %d tokens\n", name, us.Messages, us.Failures, us.Tokens)
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
