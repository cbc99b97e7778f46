package game

import (
	"fmt"
	"strings"
)

// LogSeverity ranks sim log entries.
type LogSeverity uint8

const (
	LogInfo LogSeverity = iota
	LogWarn
	LogError
)

// String returns a short severity tag.
func (s LogSeverity) String() string {
	switch s {
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Log channels used by the simulation core.
const (
	LogChannelWorld     = "world"
	LogChannelBuilding  = "building"
	LogChannelHouse     = "house"
	LogChannelUnit      = "unit"
	LogChannelPlacement = "placement"
	LogChannelUndoRedo  = "undo_redo"
	LogChannelSave      = "save"
	LogChannelSystems   = "systems"
)

// SimLogEntry is one recorded simulation event.
type SimLogEntry struct {
	Tick     int
	Severity LogSeverity
	Channel  string
	Message  string
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] WARN  house      no market in reach of house at (3,3)
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-5s %-10s %s", e.Tick, e.Severity, e.Channel, e.Message)
}

// SimLog is the bounded, channel-tagged event log read back by the debug UI
// and the world report. Old entries are evicted FIFO past maxEntries.
type SimLog struct {
	entries    []SimLogEntry
	maxEntries int
	tick       int
}

const defaultSimLogCapacity = 2048

// NewSimLog creates a log bounded at the given capacity (0 = default).
func NewSimLog(maxEntries int) *SimLog {
	if maxEntries <= 0 {
		maxEntries = defaultSimLogCapacity
	}
	return &SimLog{maxEntries: maxEntries}
}

// SetTick stamps subsequent entries with the current simulation tick.
func (sl *SimLog) SetTick(tick int) {
	sl.tick = tick
}

// Infof records an info entry on the given channel.
func (sl *SimLog) Infof(channel, format string, args ...interface{}) {
	sl.add(LogInfo, channel, format, args...)
}

// Warnf records a warning entry on the given channel.
func (sl *SimLog) Warnf(channel, format string, args ...interface{}) {
	sl.add(LogWarn, channel, format, args...)
}

// Errorf records an error entry on the given channel.
func (sl *SimLog) Errorf(channel, format string, args ...interface{}) {
	sl.add(LogError, channel, format, args...)
}

func (sl *SimLog) add(sev LogSeverity, channel, format string, args ...interface{}) {
	if len(sl.entries) >= sl.maxEntries {
		n := copy(sl.entries, sl.entries[1:])
		sl.entries = sl.entries[:n]
	}
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     sl.tick,
		Severity: sev,
		Channel:  channel,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Entries returns all retained entries, oldest first.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the channel and minimum severity. Pass an
// empty channel to match any.
func (sl *SimLog) Filter(channel string, minSeverity LogSeverity) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if channel != "" && e.Channel != channel {
			continue
		}
		if e.Severity < minSeverity {
			continue
		}
		out = append(out, e)
	}
	return out
}

// HasEntry reports whether any entry matches channel and message substring.
func (sl *SimLog) HasEntry(channel, messageSubstr string) bool {
	for _, e := range sl.entries {
		if channel != "" && e.Channel != channel {
			continue
		}
		if messageSubstr != "" && !strings.Contains(e.Message, messageSubstr) {
			continue
		}
		return true
	}
	return false
}

// Count returns how many entries match the channel (empty = all).
func (sl *SimLog) Count(channel string) int {
	if channel == "" {
		return len(sl.entries)
	}
	n := 0
	for _, e := range sl.entries {
		if e.Channel == channel {
			n++
		}
	}
	return n
}

// Clear drops every entry.
func (sl *SimLog) Clear() {
	sl.entries = sl.entries[:0]
}

// Format returns the full log as a single string for reports and t.Log.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
