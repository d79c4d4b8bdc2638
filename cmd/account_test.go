package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestReadPasswordLineKeepsSpaces(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"surrounding spaces", " secret1 \n", " secret1 "},
		{"crlf", "secret1\r\n", "secret1"},
		{"no newline", "secret1", "secret1"},
		{"first line only", "secret1\nsecret2\n", "secret1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readPasswordLine(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestReadPasswordLineRequiresInput(t *testing.T) {
	for _, input := range []string{"", "\n", "\r\n"} {
		if _, err := readPasswordLine(strings.NewReader(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestPromptPasswordFromPipe(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("  pass word  \n"))

	got, err := promptPassword(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "  pass word  " {
		t.Fatalf("expected password verbatim, got %q", got)
	}
	if out.String() != "Password: " {
		t.Fatalf("unexpected prompt %q", out.String())
	}
}
