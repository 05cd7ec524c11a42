package main

import "sync"

// logBuffer keeps the most recent log entries for the log view.
type logBuffer struct {
	mutex   sync.Mutex
	entries [][]byte
	next    int
	full    bool
}

func newLogBuffer(size int) *logBuffer {
	if size < 1 {
		size = 1
	}
	return &logBuffer{entries: make([][]byte, size)}
}

func (b *logBuffer) WriteMessage(msg []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.entries[b.next] = msg
	b.next++
	if b.next == len(b.entries) {
		b.next = 0
		b.full = true
	}
}

// ReadLastMessages returns up to n most recent messages, oldest first.
func (b *logBuffer) ReadLastMessages(n int) [][]byte {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	count := b.next
	if b.full {
		count = len(b.entries)
	}
	if n > count {
		n = count
	}
	if n <= 0 {
		return nil
	}

	var out = make([][]byte, 0, n)
	start := b.next - n
	if start < 0 {
		start += len(b.entries)
	}
	for i := 0; i < n; i++ {
		out = append(out, b.entries[(start+i)%len(b.entries)])
	}
	return out
}
