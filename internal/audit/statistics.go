package audit

import (
	"sort"
	"sync"
)

// CommandCount pairs a command name with its recorded invocation count.
type CommandCount struct {
	Command string
	Count   int
}

// Statistics tracks gate outcomes by status and command. It backs the
// `deckctl audit` summary and lets tests assert that every gate path
// produced its audit record.
type Statistics struct {
	mu            sync.RWMutex
	totalCommands int
	statusCounts  map[string]int
	commandCounts map[string]int
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		statusCounts:  make(map[string]int),
		commandCounts: make(map[string]int),
	}
}

// RecordCommand records one gate outcome.
func (s *Statistics) RecordCommand(command, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalCommands++
	s.statusCounts[status]++
	s.commandCounts[command]++
}

// TotalCommands returns the total number of gate invocations recorded.
func (s *Statistics) TotalCommands() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalCommands
}

// StatusCounts returns a copy of the per-status counts.
func (s *Statistics) StatusCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.statusCounts))
	for status, count := range s.statusCounts {
		counts[status] = count
	}
	return counts
}

// BlockedCount returns the number of invocations rejected before exec.
func (s *Statistics) BlockedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusCounts[StatusBlockedCommand] + s.statusCounts[StatusBlockedArgument]
}

// TopCommands returns the most frequently invoked commands up to limit,
// ordered by count descending then name ascending for deterministic output.
func (s *Statistics) TopCommands(limit int) []CommandCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commands := make([]CommandCount, 0, len(s.commandCounts))
	for command, count := range s.commandCounts {
		commands = append(commands, CommandCount{Command: command, Count: count})
	}

	sort.Slice(commands, func(i, j int) bool {
		if commands[i].Count != commands[j].Count {
			return commands[i].Count > commands[j].Count
		}
		return commands[i].Command < commands[j].Command
	})

	if limit > 0 && limit < len(commands) {
		return commands[:limit]
	}
	return commands
}
