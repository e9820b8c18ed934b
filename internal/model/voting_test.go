package model

import (
	"encoding/json"
	"testing"
)

func TestVotingKeyTracksDoNotCollide(t *testing.T) {
	p := VotingKey(AgentPrimary, 7)
	s := VotingKey(AgentSecondary, 7)
	if p == s {
		t.Fatalf("keys collide: %d", p)
	}

	agent, id := SplitVotingKey(s)
	if agent != AgentSecondary || id != 7 {
		t.Fatalf("split mismatch: %v %d", agent, id)
	}
}

func TestVotingKeyString(t *testing.T) {
	key := VotingKey(AgentPrimary, 7)
	if got := FormatVotingKey(key); got != "p-7" {
		t.Fatalf("format mismatch: %s", got)
	}

	parsed, err := ParseVotingKey("s-12")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed != VotingKey(AgentSecondary, 12) {
		t.Fatalf("parse mismatch: %d", parsed)
	}

	for _, bad := range []string{"", "x-1", "p-", "p7", "p-abc"} {
		if _, err := ParseVotingKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestVotingAgentJSON(t *testing.T) {
	data, err := json.Marshal(AgentSecondary)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"Secondary"` {
		t.Fatalf("json mismatch: %s", data)
	}

	var agent VotingAgent
	if err := json.Unmarshal([]byte(`"Primary"`), &agent); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if agent != AgentPrimary {
		t.Fatalf("agent mismatch: %v", agent)
	}
}
