package domain

import "testing"

func TestBasePoints(t *testing.T) {
	cases := []struct {
		difficulty Difficulty
		want       int
	}{
		{DifficultyEasy, 10},
		{DifficultyMedium, 15},
		{DifficultyHard, 20},
	}
	for _, c := range cases {
		if got := c.difficulty.BasePoints(); got != c.want {
			t.Fatalf("%s: expected %d base points, got %d", c.difficulty, c.want, got)
		}
	}
}

func TestNewPairKeyIsOrderIndependent(t *testing.T) {
	if NewPairKey("alice", "bob") != NewPairKey("bob", "alice") {
		t.Fatalf("expected identical keys for both orders")
	}
	if NewPairKey("alice", "bob") == NewPairKey("alice", "carol") {
		t.Fatalf("expected distinct keys for distinct pairs")
	}
}

func TestRankFor(t *testing.T) {
	cases := []struct {
		points int
		want   string
	}{
		{0, "Beginner"},
		{100, "Beginner"},
		{101, "Learner"},
		{500, "Learner"},
		{501, "Scholar"},
		{1000, "Scholar"},
		{1001, "Expert"},
		{2000, "Expert"},
		{2001, "Master"},
		{5000, "Master"},
		{5001, "Legend"},
		{99999, "Legend"},
	}
	for _, c := range cases {
		if got := RankFor(c.points); got != c.want {
			t.Fatalf("%d points: expected %s, got %s", c.points, c.want, got)
		}
	}
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	entries := Rank([]*Participant{
		{UserID: "u1", Name: "Alice", Score: 10},
		{UserID: "u2", Name: "Bob", Score: 35},
		{UserID: "u3", Name: "Carol", Score: 20},
	})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantOrder := []string{"u2", "u3", "u1"}
	for i, want := range wantOrder {
		if entries[i].UserID != want {
			t.Fatalf("position %d: expected %s, got %s", i+1, want, entries[i].UserID)
		}
		if entries[i].Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, entries[i].Position)
		}
	}
}

func TestRankTieKeepsFirstSeenOrder(t *testing.T) {
	entries := Rank([]*Participant{
		{UserID: "u1", Score: 20},
		{UserID: "u2", Score: 20},
	})
	if entries[0].UserID != "u1" {
		t.Fatalf("expected earlier joiner first on tie, got %s", entries[0].UserID)
	}
}

func TestChallengeStatusTerminal(t *testing.T) {
	for _, s := range []ChallengeStatus{ChallengeCompleted, ChallengeDeclined, ChallengeExpired} {
		if !s.Terminal() {
			t.Fatalf("expected %s terminal", s)
		}
	}
	for _, s := range []ChallengeStatus{ChallengePending, ChallengeAccepted, ChallengeInProgress} {
		if s.Terminal() {
			t.Fatalf("expected %s non-terminal", s)
		}
	}
}
