package acquire

import (
	"fmt"
	"io"
	"strings"
	"time"

	"radiograb/internal/services"
)

// Status is the outcome of the download stage for one item.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusPresent    Status = "present"
	StatusPlanned    Status = "planned"
	StatusFailed     Status = "failed"
)

// Item records what happened to one (rule, broadcast) pair.
type Item struct {
	Rule      string
	ID        string
	Title     string
	Scheduled time.Time

	Dir       string
	Original  string
	Converted string

	Status          Status
	Bytes           int64
	ConvertedNow    bool
	Tagged          bool
	OriginalRemoved bool

	// Err is the failure that stopped the item, if any.
	Err error
	// Warnings are non-fatal problems from later stages.
	Warnings []error
}

func (i Item) fail(err error) Item {
	i.Status = StatusFailed
	i.Err = err
	return i
}

func (i *Item) warn(err error) {
	i.Warnings = append(i.Warnings, err)
}

// Problem returns the item failure or its first warning.
func (i Item) Problem() error {
	if i.Err != nil {
		return i.Err
	}
	if len(i.Warnings) > 0 {
		return i.Warnings[0]
	}
	return nil
}

// Report collects the items of one ProcessAll call.
type Report struct {
	Items       []Item
	DryRun      bool
	Elapsed     time.Duration
	Interrupted error
}

// Downloaded lists the paths downloaded during the run.
func (r *Report) Downloaded() []string {
	var out []string
	for _, item := range r.Items {
		if item.Status == StatusDownloaded {
			out = append(out, item.Original)
		}
	}
	return out
}

// Converted lists the paths converted during the run.
func (r *Report) Converted() []string {
	var out []string
	for _, item := range r.Items {
		if item.ConvertedNow {
			out = append(out, item.Converted)
		}
	}
	return out
}

// Failed returns the items that did not complete the download stage.
func (r *Report) Failed() []Item {
	var out []Item
	for _, item := range r.Items {
		if item.Status == StatusFailed {
			out = append(out, item)
		}
	}
	return out
}

// Count returns how many items ended with status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// WarningCount returns the number of non-fatal problems across all items.
func (r *Report) WarningCount() int {
	n := 0
	for _, item := range r.Items {
		n += len(item.Warnings)
	}
	return n
}

// WriteSummary prints the downloaded and converted lists. Dry runs print nothing.
func (r *Report) WriteSummary(w io.Writer) error {
	if r.DryRun {
		return nil
	}
	var b strings.Builder
	writeList(&b, "downloaded:", "No files downloaded.", r.Downloaded())
	writeList(&b, "converted:", "No files converted.", r.Converted())
	for _, item := range r.Failed() {
		fmt.Fprintf(&b, "failed [%s] %s: %s\n", services.Classify(item.Err), item.Rule, item.Err)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, header, empty string, paths []string) {
	if len(paths) == 0 {
		b.WriteString(empty)
		b.WriteByte('\n')
		return
	}
	b.WriteString(header)
	b.WriteByte('\n')
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
}
