package orchestrator

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		p := &PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}

		got, err := p.Confirm(context.Background(), "Proceed?")
		if err != nil {
			t.Fatalf("Confirm(%q) failed: %v", tt.input, err)
		}

		if got != tt.want {
			t.Errorf("Confirm(%q): expected %v, got %v", tt.input, tt.want, got)
		}

		if out.String() != "Proceed? [y/N]: " {
			t.Errorf("Unexpected prompt %q", out.String())
		}
	}
}

func TestPromptConfirmer_AssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := &PromptConfirmer{Out: &out, AssumeYes: true}

	ok, err := p.Confirm(context.Background(), "Proceed?")
	if err != nil || !ok {
		t.Fatalf("Expected automatic yes, got %v, %v", ok, err)
	}

	if out.Len() != 0 {
		t.Errorf("Expected no prompt, got %q", out.String())
	}
}

func TestPromptConfirmer_Notify(t *testing.T) {
	var out bytes.Buffer
	p := &PromptConfirmer{Out: &out}

	if err := p.Notify(context.Background(), MissingToolMessage); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "npm install -g tsd") {
		t.Errorf("Unexpected notice %q", out.String())
	}
}
