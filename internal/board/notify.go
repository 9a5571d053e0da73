package board

import "time"

// Notifier receives user-facing outcome messages. The board injects its own
// notice log; tests inject a recorder.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// notice is one entry in the board's notice log.
type notice struct {
	Level string
	Text  string
	At    time.Time
}

// noticeLog is a bounded, newest-last list of notices rendered in the
// footer. It satisfies Notifier.
type noticeLog struct {
	entries []notice
	cap     int
	now     func() time.Time
}

func newNoticeLog(cap int) *noticeLog {
	if cap <= 0 {
		cap = 5
	}
	return &noticeLog{cap: cap, now: time.Now}
}

func (n *noticeLog) Info(msg string)  { n.push("info", msg) }
func (n *noticeLog) Error(msg string) { n.push("error", msg) }

func (n *noticeLog) push(level, msg string) {
	n.entries = append(n.entries, notice{Level: level, Text: msg, At: n.now()})
	if len(n.entries) > n.cap {
		n.entries = n.entries[len(n.entries)-n.cap:]
	}
}

// Latest returns the newest notice, if any.
func (n *noticeLog) Latest() (notice, bool) {
	if len(n.entries) == 0 {
		return notice{}, false
	}
	return n.entries[len(n.entries)-1], true
}

// nopNotifier drops everything.
type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Error(string) {}
