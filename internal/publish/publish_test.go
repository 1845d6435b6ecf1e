package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

func sampleTicket() model.Ticket {
	now := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	agent := 9
	return model.Ticket{
		ID:          7,
		Title:       "VPN | drops",
		Description: "Some **markdown**.",
		Status:      model.TicketInProgress,
		Priority:    model.TicketHigh,
		UserID:      3,
		User:        &model.User{ID: 3, Username: "ann"},
		AssignedTo:  &agent,
		CreatedAt:   now,
		Comments: []model.Comment{
			{ID: 1, Content: "Comment body", UserID: 9, CreatedAt: now.Add(time.Hour)},
		},
	}
}

func TestRenderTicketMarkdown_IncludesDescriptionAndComments(t *testing.T) {
	t.Parallel()

	md := RenderTicketMarkdown(sampleTicket())
	for _, want := range []string{
		"# #7 VPN | drops",
		"- Status: In Progress",
		"- Reporter: ann",
		"- Assignee: user #9",
		"## Description",
		"Some **markdown**.",
		"## Comments",
		"### user #9 (2025-12-20T01:00:00Z)",
		"Comment body",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in:\n%s", want, md)
		}
	}
}

func TestRenderFeatureMarkdown_OmitsEmptySections(t *testing.T) {
	t.Parallel()

	md := RenderFeatureMarkdown(model.FeatureRequest{ID: 2, Title: "Dark mode", Status: model.FeatureProposed, RequesterID: 4, UpvotesCount: 3})
	if strings.Contains(md, "## Description") || strings.Contains(md, "## Comments") {
		t.Fatalf("empty sections rendered:\n%s", md)
	}
	if !strings.Contains(md, "- Requester: user #4") || !strings.Contains(md, "- Upvotes: 3") {
		t.Fatalf("meta missing:\n%s", md)
	}
}

func TestWriteTickets_IndexAndPages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res, err := WriteTickets(dir, []model.Ticket{sampleTicket()}, WriteOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("WriteTickets: %v", err)
	}
	if len(res.Written) != 2 {
		t.Fatalf("written = %v", res.Written)
	}
	index, err := os.ReadFile(filepath.Join(dir, "tickets", "index.md"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(index), `| [#7](7.md) | VPN \| drops |`) {
		t.Fatalf("index:\n%s", index)
	}
	if _, err := os.Stat(filepath.Join(dir, "tickets", "7.md")); err != nil {
		t.Fatalf("ticket page: %v", err)
	}
}

func TestWriteTicket_RefusesOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := WriteTicket(dir, sampleTicket(), WriteOptions{}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := WriteTicket(dir, sampleTicket(), WriteOptions{}); err == nil || !strings.Contains(err.Error(), "file exists") {
		t.Fatalf("second write err = %v", err)
	}
	if _, err := WriteTicket("  ", sampleTicket(), WriteOptions{}); err == nil {
		t.Fatalf("empty dir accepted")
	}
}
