package registry

import (
	"context"
	"strings"
	"testing"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/types"
)

type stubExtractor struct {
	name    string
	trigger string
	closed  bool
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) CanExtract(page *types.EmbedPage) bool {
	return strings.Contains(page.Body, s.trigger)
}

func (s *stubExtractor) Extract(context.Context, *types.EmbedPage, *headers.Context) (*types.ResolvedLink, error) {
	return &types.ResolvedLink{PlaylistURL: s.name, Strategy: s.name}, nil
}

func (s *stubExtractor) Close() error {
	s.closed = true
	return nil
}

func TestExtractorRegistry_Matching(t *testing.T) {
	first := &stubExtractor{name: "first", trigger: "AAA"}
	second := &stubExtractor{name: "second", trigger: "BBB"}
	third := &stubExtractor{name: "third", trigger: "AAA"}

	r := NewExtractorRegistry()
	r.Register(first)
	r.Register(second)
	r.Register(third)

	tests := []struct {
		body string
		want []string
	}{
		{"AAA", []string{"first", "third"}},
		{"BBB AAA", []string{"first", "second", "third"}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got := r.Matching(&types.EmbedPage{Body: tt.body})
			if len(got) != len(tt.want) {
				t.Fatalf("Matching() returned %d extractors, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Name() != tt.want[i] {
					t.Errorf("Matching()[%d] = %s, want %s", i, e.Name(), tt.want[i])
				}
			}
		})
	}

	if names := r.Names(); strings.Join(names, ",") != "first,second,third" {
		t.Errorf("Names() = %v", names)
	}

	r.Close()
	if !first.closed || !second.closed || !third.closed {
		t.Error("Close() did not close every extractor")
	}
}
