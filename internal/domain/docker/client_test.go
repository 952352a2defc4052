package docker

import "testing"

func TestNewRequiresContainerID(t *testing.T) {
	if _, err := New(1, Config{}, nil); err == nil {
		t.Fatal("expected error when container_id is unset")
	}
}

func TestNewAssignsDomainID(t *testing.T) {
	d, err := New(7, Config{ContainerID: "abc123"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.DomainID() != 7 {
		t.Fatalf("expected domain id 7, got %d", d.DomainID())
	}
}
