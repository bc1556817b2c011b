package span

import "testing"

func TestCorrelations_JoinIsSetSemantics(t *testing.T) {
	c := NewCorrelations()

	c.join("op-1", "span-a")
	c.join("op-1", "span-a")
	c.join("op-1", "span-b")

	members := c.Get("op-1")
	if len(members) != 2 {
		t.Fatalf("context has %d members, want 2", len(members))
	}
	if members[0] != "span-a" || members[1] != "span-b" {
		t.Errorf("members = %v, want [span-a span-b]", members)
	}
	if c.OpenMembers("op-1") != 2 {
		t.Errorf("open members = %d, want 2", c.OpenMembers("op-1"))
	}
}

func TestCorrelations_SettleIsIdempotent(t *testing.T) {
	c := NewCorrelations()
	c.join("op-1", "span-a")
	c.join("op-1", "span-b")

	c.settle("op-1", "span-a")
	c.settle("op-1", "span-a")

	if c.OpenMembers("op-1") != 1 {
		t.Fatalf("open members after duplicate settle = %d, want 1", c.OpenMembers("op-1"))
	}
	if c.Get("op-1") == nil {
		t.Fatal("context reclaimed while span-b is still open")
	}
}

func TestCorrelations_ReclaimedOnLastSettle(t *testing.T) {
	c := NewCorrelations()
	c.join("op-1", "span-a")
	c.join("op-1", "span-b")

	c.settle("op-1", "span-a")
	c.settle("op-1", "span-b")

	if c.Get("op-1") != nil {
		t.Error("context not reclaimed after last settle")
	}
	if c.Size() != 0 {
		t.Errorf("live contexts = %d, want 0", c.Size())
	}
}

func TestCorrelations_UnknownKeys(t *testing.T) {
	c := NewCorrelations()

	if c.Get("never-created") != nil {
		t.Error("Get on unknown key returned members")
	}
	if c.OpenMembers("never-created") != 0 {
		t.Error("OpenMembers on unknown key is nonzero")
	}

	// Settling a member of an unknown context is a no-op.
	c.settle("never-created", "span-x")
	if c.Size() != 0 {
		t.Errorf("live contexts = %d, want 0", c.Size())
	}
}

func TestCorrelations_IndependentContexts(t *testing.T) {
	c := NewCorrelations()
	c.join("op-1", "span-a")
	c.join("op-2", "span-b")

	c.settle("op-1", "span-a")

	if c.Get("op-1") != nil {
		t.Error("op-1 not reclaimed")
	}
	if c.Get("op-2") == nil {
		t.Error("op-2 reclaimed alongside op-1")
	}
}
