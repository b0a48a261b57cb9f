package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"vkbackup/pkg/backup"
	"vkbackup/pkg/models"
)

// ProgressDisplay renders a backup run on a terminal. It implements
// backup.ProgressReporter.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	bar       progress.Model
	total     int
	done      int
	failed    int
	folder    string
	current   string
	startTime time.Time
	isDebug   bool
	inline    bool
}

var _ backup.ProgressReporter = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display writing to out. In debug mode every
// item gets its own line instead of a redrawn bar.
func NewProgressDisplay(out io.Writer, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		startTime: time.Now(),
		isDebug:   debug,
		inline:    !debug,
	}
}

// stateMessages are printed when the run enters a state
var stateMessages = map[backup.State]string{
	backup.StateValidatingCredentials: "Checking tokens...",
	backup.StateFetchingMetadata:      "Fetching profile photos...",
	backup.StateProvisioningFolder:    "Preparing folder on Yandex.Disk...",
	backup.StateFinalizing:            "Writing manifest...",
}

// StateChanged prints a short line for the steps a user waits on
func (p *ProgressDisplay) StateChanged(state backup.State) {
	msg, ok := stateMessages[state]
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakLine()
	fmt.Fprintln(p.out, Dim("→ "+msg))
}

// Started records the number of items and the destination folder
func (p *ProgressDisplay) Started(total int, folder string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.folder = folder
	p.startTime = time.Now()
	fmt.Fprintf(p.out, "%s %s (%d photos)\n", Cyan("Uploading to"), Yellow(folder), total)
}

// ItemDone updates the bar after one item finished
func (p *ProgressDisplay) ItemDone(fileName string, err error, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total
	p.current = fileName
	if err != nil {
		p.failed++
	}

	if p.isDebug {
		if err != nil {
			fmt.Fprintf(p.out, "%s %s • %v\n", Red("✗"), displayName(fileName), err)
		} else {
			fmt.Fprintf(p.out, "%s %s\n", Green("✓"), fileName)
		}
		return
	}

	fmt.Fprintf(p.out, "\r%s", p.line())
}

// Finished prints the run summary
func (p *ProgressDisplay) Finished(result *models.BackupResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 && !p.isDebug {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintln(p.out, Summary(result))
}

// line renders the single progress line
func (p *ProgressDisplay) line() string {
	percent := 0.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total)
	}

	parts := []string{
		p.bar.ViewAs(percent),
		fmt.Sprintf("%d/%d", p.done, p.total),
		formatDuration(time.Since(p.startTime)),
	}
	if p.current != "" {
		parts = append(parts, p.current)
	}
	if p.failed > 0 {
		parts = append(parts, Red(fmt.Sprintf("%d failed", p.failed)))
	}
	return strings.Join(parts, " • ")
}

// breakLine ends a pending inline progress line
func (p *ProgressDisplay) breakLine() {
	if p.inline && p.done > 0 {
		fmt.Fprintln(p.out)
	}
}

func displayName(fileName string) string {
	if fileName == "" {
		return "(no size data)"
	}
	return fileName
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
