package extract

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCalendar(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Item
	}{
		{
			name:    "none",
			content: "just some thoughts\nnothing scheduled",
			want:    nil,
		},
		{
			name:    "slash and dash dates",
			content: "Dentist 3/14/2024 and review 12-01-2024",
			want: []Item{
				{Match: "3/14/2024", Line: "Dentist 3/14/2024 and review 12-01-2024"},
				{Match: "12-01-2024", Line: "Dentist 3/14/2024 and review 12-01-2024"},
			},
		},
		{
			name:    "month name and time",
			content: "  Launch on march 5, 2025 at 9:30 am  ",
			want: []Item{
				{Match: "march 5, 2025", Line: "Launch on march 5, 2025 at 9:30 am"},
				{Match: "9:30 am", Line: "Launch on march 5, 2025 at 9:30 am"},
			},
		},
		{
			name:    "relative keywords and multiple matches",
			content: "Call Bob today\nShip tomorrow, retro next week, plan next month, and today again",
			want: []Item{
				{Match: "today", Line: "Call Bob today"},
				{Match: "tomorrow", Line: "Ship tomorrow, retro next week, plan next month, and today again"},
				{Match: "next week", Line: "Ship tomorrow, retro next week, plan next month, and today again"},
				{Match: "next month", Line: "Ship tomorrow, retro next week, plan next month, and today again"},
				{Match: "today", Line: "Ship tomorrow, retro next week, plan next month, and today again"},
			},
		},
		{
			name:    "pattern order within a line",
			content: "11:00PM Today",
			want: []Item{
				{Match: "Today", Line: "11:00PM Today"},
				{Match: "11:00PM", Line: "11:00PM Today"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calendar(tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Calendar mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalendarDeterministic(t *testing.T) {
	content := "a 1/2/2024 b\ntomorrow at 10:15 PM"
	first := Calendar(content)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Calendar(content)); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC)
	items := []Item{{Match: "today", Line: "call today"}, {Match: "3/14/2024", Line: "dentist 3/14/2024"}}
	want := "# Calendar Items from Journal.md\n\n" +
		"- today: call today\n" +
		"- 3/14/2024: dentist 3/14/2024\n\n" +
		"Extracted on: 2024-03-01 08:05"
	if got := Summary("Journal.md", items, now); got != want {
		t.Fatalf("Summary mismatch:\n%s", cmp.Diff(want, got))
	}
}
