package tui

import (
	"strings"
	"testing"

	"github.com/kingrea/guildhall/internal/dashboard"
)

func TestBoardItemsMeetingsBeforeCommissions(t *testing.T) {
	snap := dashboard.Snapshot{
		Commissions: []dashboard.Commission{
			{CommissionID: "c-1", Status: "in_progress", ProjectName: "demo"},
		},
		Meetings: []dashboard.Meeting{
			{MeetingID: "m-1", Status: "open", Title: "Design review", ProjectName: "demo"},
		},
	}
	items := boardItems(snap)
	if len(items) != 2 {
		t.Fatalf("expected 2 board items, got %d", len(items))
	}
	if !strings.Contains(items[0].(boardItem).title, "Design review") {
		t.Fatalf("expected meeting first, got %q", items[0].(boardItem).title)
	}
}

func TestMeetingTitleShowsDeferral(t *testing.T) {
	m := dashboard.Meeting{MeetingID: "m-2", Title: "Retro", DeferredUntil: "2026-09-01T00:00:00Z"}
	title := meetingTitle(m)
	if !strings.Contains(title, "deferred until 2026-09-01") {
		t.Fatalf("expected deferral marker, got %q", title)
	}
}

func TestCommissionTitleFallsBackToID(t *testing.T) {
	c := dashboard.Commission{CommissionID: "c-9", Status: " Pending "}
	title := commissionTitle(c)
	if !strings.Contains(title, "c-9") || !strings.Contains(title, "[pending]") {
		t.Fatalf("unexpected title %q", title)
	}
}
