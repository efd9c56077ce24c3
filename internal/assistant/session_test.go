package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sbc2026/companion/internal/pkg/models"
)

// fakeSource is an in-memory DataSource for session and dispatcher tests.
// When block is set, list calls wait on it before returning; when err is
// set, every call fails with it.
type fakeSource struct {
	teams   []models.Team
	matches []models.Match
	bets    []models.ValueBet
	picks   []models.Pick
	err     error
	block   chan struct{}
}

func (f *fakeSource) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeSource) ListTeams(context.Context) ([]models.Team, error) {
	f.wait()
	return f.teams, f.err
}

func (f *fakeSource) ListMatches(context.Context) ([]models.Match, error) {
	f.wait()
	return f.matches, f.err
}

func (f *fakeSource) ListValueBets(context.Context) ([]models.ValueBet, error) {
	f.wait()
	return f.bets, f.err
}

func (f *fakeSource) ListResults(context.Context) ([]models.Match, error) {
	f.wait()
	return f.matches, f.err
}

func (f *fakeSource) ListPicks(context.Context) ([]models.Pick, error) {
	f.wait()
	return f.picks, f.err
}

func (f *fakeSource) FetchUserBets(context.Context, string, string) (*models.UserBets, error) {
	f.wait()
	return &models.UserBets{}, f.err
}

func TestSessionSubmitResolvesPlaceholder(t *testing.T) {
	src := &fakeSource{teams: []models.Team{{Name: "Argentina"}}}
	s := NewSession(NewDispatcher(src, nil))

	s.Submit(context.Background(), "show all teams")

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected greeting + user + reply, got %d messages", len(msgs))
	}
	if msgs[0].Text != GreetingText || msgs[0].Role != RoleBot {
		t.Errorf("greeting = %+v", msgs[0])
	}
	if msgs[1].Role != RoleUser || msgs[1].Text != "show all teams" {
		t.Errorf("user message = %+v", msgs[1])
	}
	if msgs[2].IsPlaceholder {
		t.Error("placeholder was not resolved")
	}
	if !strings.Contains(msgs[2].Text, "Argentina") {
		t.Errorf("reply = %q", msgs[2].Text)
	}
	if s.Busy() {
		t.Error("session still busy after dispatch")
	}
}

func TestSessionInFlightGuard(t *testing.T) {
	src := &fakeSource{block: make(chan struct{})}
	s := NewSession(NewDispatcher(src, nil))

	done := make(chan struct{})
	go func() {
		s.Submit(context.Background(), "show all teams")
		close(done)
	}()

	// Wait until the first query is dispatching.
	deadline := time.After(2 * time.Second)
	for !s.Busy() {
		select {
		case <-deadline:
			t.Fatal("first Submit never started dispatching")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Second submit while in flight is a silent no-op.
	s.Submit(context.Background(), "results")

	close(src.block)
	<-done

	var users, placeholders int
	for _, m := range s.Messages() {
		if m.Role == RoleUser {
			users++
		}
		if m.IsPlaceholder {
			placeholders++
		}
	}
	if users != 1 {
		t.Errorf("expected exactly one dispatched query, got %d user messages", users)
	}
	if placeholders != 0 {
		t.Errorf("expected no unresolved placeholders, got %d", placeholders)
	}
}

func TestSessionNetworkFailure(t *testing.T) {
	src := &fakeSource{err: &NetworkError{Endpoint: "/teams", Status: 502}}
	s := NewSession(NewDispatcher(src, nil))

	s.Submit(context.Background(), "show all teams")

	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	if last.Text != ErrorReply {
		t.Errorf("final message = %q, want the fixed apology", last.Text)
	}
	if last.IsPlaceholder {
		t.Error("placeholder survived the failure")
	}
	if s.Busy() {
		t.Error("session did not return to idle after failure")
	}
}

func TestSessionIgnoresEmptySubmit(t *testing.T) {
	s := NewSession(NewDispatcher(&fakeSource{}, nil))
	s.Submit(context.Background(), "   ")
	if n := len(s.Messages()); n != 1 {
		t.Errorf("expected only the greeting, got %d messages", n)
	}
}

// The help intent fetches nothing, so even a dead data source yields a
// usable reply.
func TestDispatcherHelpNeverFails(t *testing.T) {
	src := &fakeSource{err: &NetworkError{Endpoint: "/teams", Status: 500}}
	d := NewDispatcher(src, nil)

	reply := d.Handle(context.Background(), "what can you do")
	if reply == ErrorReply || reply == "" {
		t.Errorf("help reply = %q", reply)
	}
}
