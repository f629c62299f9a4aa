// Package dashboard merges persisted commission and meeting metadata across
// every registered project into one sorted view. It is a pure reader: no
// network, no mutation of the files it scans.
package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GuildhallDir is the per-project directory holding mirrored daemon metadata.
const GuildhallDir = ".guildhall"

// Project names one registered project root to scan.
type Project struct {
	Name string
	Path string
}

// Commission mirrors the daemon-owned commission metadata document.
type Commission struct {
	CommissionID       string   `json:"commissionId"`
	ProjectName        string   `json:"projectName"`
	Title              string   `json:"title"`
	Status             string   `json:"status"`
	CurrentProgress    string   `json:"current_progress,omitempty"`
	WorkerDisplayTitle string   `json:"workerDisplayTitle,omitempty"`
	Date               string   `json:"date"`
	Dependencies       []string `json:"dependencies,omitempty"`
}

// Meeting mirrors the daemon-owned meeting metadata document.
type Meeting struct {
	MeetingID     string `json:"meetingId"`
	ProjectName   string `json:"projectName"`
	Status        string `json:"status"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	DeferredUntil string `json:"deferred_until,omitempty"`
	Agenda        string `json:"agenda,omitempty"`
}

// Open reports whether the meeting still wants attention. Any status other
// than "open" means closed.
func (m Meeting) Open() bool {
	return strings.EqualFold(strings.TrimSpace(m.Status), "open")
}

// Deferred reports whether the meeting is snoozed.
func (m Meeting) Deferred() bool {
	return strings.TrimSpace(m.DeferredUntil) != ""
}

// Snapshot is the merged cross-project view.
type Snapshot struct {
	Commissions []Commission `json:"commissions"`
	Meetings    []Meeting    `json:"meetings"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// Commission status tiers: running-like work first, then waiting work, then
// everything finished. Unrecognized statuses count as finished.
const (
	tierRunning = iota
	tierPending
	tierTerminal
)

func commissionTier(status string) int {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "in_progress", "dispatched":
		return tierRunning
	case "pending", "blocked":
		return tierPending
	default:
		return tierTerminal
	}
}

// SortCommissions orders commissions in place: by tier, then most recent
// date first inside a tier. The sort is stable, so commissions sharing a
// tier and an identical date string keep their input order.
func SortCommissions(commissions []Commission) {
	sort.SliceStable(commissions, func(i, j int) bool {
		ti, tj := commissionTier(commissions[i].Status), commissionTier(commissions[j].Status)
		if ti != tj {
			return ti < tj
		}
		return commissions[i].Date > commissions[j].Date
	})
}

// SortMeetings orders meetings in place: active meetings before deferred
// ones, deferred meetings by earliest deferral first, remaining ties by most
// recent date first.
func SortMeetings(meetings []Meeting) {
	sort.SliceStable(meetings, func(i, j int) bool {
		di, dj := meetings[i].Deferred(), meetings[j].Deferred()
		if di != dj {
			return !di
		}
		if di && dj && meetings[i].DeferredUntil != meetings[j].DeferredUntil {
			return meetings[i].DeferredUntil < meetings[j].DeferredUntil
		}
		return meetings[i].Date > meetings[j].Date
	})
}

// Aggregator reads the mirrored metadata of a fixed set of projects.
type Aggregator struct {
	projects []Project
	now      func() time.Time
}

// New builds an aggregator over the registered projects.
func New(projects []Project) *Aggregator {
	return &Aggregator{
		projects: append([]Project{}, projects...),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Load scans every project and returns the merged, sorted snapshot.
// A project without mirrored metadata contributes nothing; unreadable
// individual documents are skipped rather than failing the whole view.
func (a *Aggregator) Load() (Snapshot, error) {
	snap := Snapshot{
		Commissions: []Commission{},
		Meetings:    []Meeting{},
		GeneratedAt: a.now(),
	}
	for _, project := range a.projects {
		commissions, err := loadDocuments[Commission](filepath.Join(project.Path, GuildhallDir, "commissions"))
		if err != nil {
			return Snapshot{}, fmt.Errorf("dashboard: project %s: %w", project.Name, err)
		}
		for _, c := range commissions {
			if c.ProjectName == "" {
				c.ProjectName = project.Name
			}
			snap.Commissions = append(snap.Commissions, c)
		}
		meetings, err := loadDocuments[Meeting](filepath.Join(project.Path, GuildhallDir, "meetings"))
		if err != nil {
			return Snapshot{}, fmt.Errorf("dashboard: project %s: %w", project.Name, err)
		}
		for _, m := range meetings {
			if m.ProjectName == "" {
				m.ProjectName = project.Name
			}
			snap.Meetings = append(snap.Meetings, m)
		}
	}
	SortCommissions(snap.Commissions)
	SortMeetings(snap.Meetings)
	return snap, nil
}

func loadDocuments[T any](dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var docs []T
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var doc T
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
