package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestCommentID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"UgxKREWxQ4nB1X7dQ2p4AaABAg", false},
		{"UgxKREWxQ4nB1X7dQ2p4AaABAg.9zXy-_1abc", false},
		{"c1", false},
		{"", true},
		{"has space", true},
		{"semi;colon", true},
		{"../../etc", true},
		{strings.Repeat("a", 300), true},
	}
	for _, tt := range tests {
		err := CommentID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("CommentID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidID) {
			t.Errorf("CommentID(%q) error does not wrap ErrInvalidID", tt.id)
		}
	}
}

func TestCommentIDs(t *testing.T) {
	ids, err := CommentIDs([]string{" c1 ", "c2", "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c1" || ids[1] != "c2" {
		t.Errorf("CommentIDs() = %v, want [c1 c2]", ids)
	}

	ids, err = CommentIDs([]string{"ok", "bad id", "x;y"})
	if err == nil {
		t.Fatal("expected error for invalid ids")
	}
	if !strings.Contains(err.Error(), "bad id") || !strings.Contains(err.Error(), "x;y") {
		t.Errorf("expected every invalid id in the error, got %q", err)
	}
	if len(ids) != 1 || ids[0] != "ok" {
		t.Errorf("valid ids should still be returned, got %v", ids)
	}
}
