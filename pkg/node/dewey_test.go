package node

import "testing"

func TestDeweyID_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "1", 0},
		{"1", "1.2", -1},
		{"1.2", "1", 1},
		{"1.2", "1.3", -1},
		{"1.3.5", "1.3.4", 1},
		{"1.2.3", "1.2.3", 0},
	}

	for _, tt := range tests {
		a, err := ParseDeweyID(tt.a)
		if err != nil {
			t.Fatalf("ParseDeweyID(%q) failed: %v", tt.a, err)
		}
		b, err := ParseDeweyID(tt.b)
		if err != nil {
			t.Fatalf("ParseDeweyID(%q) failed: %v", tt.b, err)
		}
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDeweyID_ChildAndParent(t *testing.T) {
	root := NewDeweyID(1)
	child := root.Child(3)

	if child.String() != "1.3" {
		t.Errorf("Child = %s, want 1.3", child)
	}
	if !child.Parent().Equals(root) {
		t.Errorf("Parent(%s) = %s, want %s", child, child.Parent(), root)
	}
	if root.Parent() != nil {
		t.Errorf("level-1 ID must have nil parent")
	}
}

func TestDeweyID_ToBytes_GrowsWithDepth(t *testing.T) {
	a := NewDeweyID(1)
	b := NewDeweyID(1, 2)
	c := NewDeweyID(1, 2, 3)

	if !(len(a.ToBytes()) < len(b.ToBytes()) && len(b.ToBytes()) < len(c.ToBytes())) {
		t.Errorf("byte length must grow with depth: %d, %d, %d",
			len(a.ToBytes()), len(b.ToBytes()), len(c.ToBytes()))
	}
}

func TestDeweyID_SharedPrefixLen(t *testing.T) {
	a := NewDeweyID(1, 2, 3)

	if got := a.SharedPrefixLen(nil); got != 0 {
		t.Errorf("SharedPrefixLen(nil) = %d, want 0", got)
	}
	if got := a.SharedPrefixLen(NewDeweyID(1, 2, 5)); got != 2 {
		t.Errorf("SharedPrefixLen = %d, want 2", got)
	}
	if got := a.SharedPrefixLen(NewDeweyID(1, 2, 3)); got != 3 {
		t.Errorf("SharedPrefixLen = %d, want 3", got)
	}
	if got := a.SharedPrefixLen(NewDeweyID(7)); got != 0 {
		t.Errorf("SharedPrefixLen = %d, want 0", got)
	}
}

func TestParseDeweyID_Invalid(t *testing.T) {
	if _, err := ParseDeweyID("1.x.3"); err == nil {
		t.Errorf("expected error for malformed dewey ID")
	}
}
