// Package logger is the central diagnostics log. Chip code reports anomalies
// here (unknown command opcodes, command overruns, redirected register
// writes) instead of failing; front ends decide whether to echo or dump it.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// maxEntries bounds the central log. Older entries are dropped first.
const maxEntries = 256

// Entry is a single tagged log line. Consecutive identical entries are
// folded into one with a repeat count.
type Entry struct {
	Tag      string
	Detail   string
	Repeated int
}

func (e Entry) String() string {
	var s strings.Builder
	s.WriteString(e.Tag)
	s.WriteString(": ")
	s.WriteString(e.Detail)
	if e.Repeated > 0 {
		fmt.Fprintf(&s, " (repeat x%d)", e.Repeated+1)
	}
	s.WriteString("\n")
	return s.String()
}

type logger struct {
	crit    sync.Mutex
	entries []Entry
	echo    io.Writer
}

// only one central log for the whole program
var central = &logger{entries: make([]Entry, 0, maxEntries)}

func (l *logger) log(tag, detail string) {
	l.crit.Lock()
	defer l.crit.Unlock()

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].Repeated++
	} else {
		l.entries = append(l.entries, Entry{Tag: tag, Detail: detail})
	}

	if len(l.entries) > maxEntries {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-maxEntries:]...)
	}

	if l.echo != nil {
		io.WriteString(l.echo, l.entries[len(l.entries)-1].String())
	}
}

// Log adds an entry to the central log.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central log.
func Logf(tag, format string, args ...any) {
	central.log(tag, fmt.Sprintf(format, args...))
}

// Clear removes all entries.
func Clear() {
	central.crit.Lock()
	defer central.crit.Unlock()
	central.entries = central.entries[:0]
}

// Write writes every entry to output.
func Write(output io.Writer) {
	central.crit.Lock()
	defer central.crit.Unlock()
	for _, e := range central.entries {
		io.WriteString(output, e.String())
	}
}

// Tail writes the last n entries to output.
func Tail(output io.Writer, n int) {
	central.crit.Lock()
	defer central.crit.Unlock()
	if n > len(central.entries) {
		n = len(central.entries)
	}
	for _, e := range central.entries[len(central.entries)-n:] {
		io.WriteString(output, e.String())
	}
}

// Entries returns a copy of the current entries.
func Entries() []Entry {
	central.crit.Lock()
	defer central.crit.Unlock()
	c := make([]Entry, len(central.entries))
	copy(c, central.entries)
	return c
}

// SetEcho echoes every new entry to output. A nil output disables echo.
func SetEcho(output io.Writer) {
	central.crit.Lock()
	defer central.crit.Unlock()
	central.echo = output
}
