package headers

import "testing"

func TestContext_Apply(t *testing.T) {
	c := New("UA/1.0", "https://dlhd.dad/")

	if c.Referer() != "https://dlhd.dad/" || c.Origin() != "https://dlhd.dad/" {
		t.Fatalf("initial referer/origin = %q/%q, want site root", c.Referer(), c.Origin())
	}

	steps := []struct {
		override    string
		wantReferer string
	}{
		{"https://dlhd.dad/stream/stream-1.php", "https://dlhd.dad/stream/stream-1.php"},
		{"", "https://dlhd.dad/stream/stream-1.php"},
		{"   ", "https://dlhd.dad/stream/stream-1.php"},
		{"https://player.example/p.php", "https://player.example/p.php"},
	}

	for _, step := range steps {
		c.Apply(step.override)
		if c.Referer() != step.wantReferer {
			t.Errorf("after Apply(%q) referer = %q, want %q", step.override, c.Referer(), step.wantReferer)
		}
		if c.Origin() != step.wantReferer {
			t.Errorf("after Apply(%q) origin = %q, want %q", step.override, c.Origin(), step.wantReferer)
		}
	}
}

func TestContext_Header(t *testing.T) {
	c := New("UA/1.0", "https://dlhd.dad")
	h := c.Header()

	if got := h.Get("User-Agent"); got != "UA/1.0" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := h.Get("Referer"); got != "https://dlhd.dad/" {
		t.Errorf("Referer = %q", got)
	}
	if got := h.Get("Origin"); got != "https://dlhd.dad/" {
		t.Errorf("Origin = %q", got)
	}
}

func TestContext_Independent(t *testing.T) {
	a := New("UA", "https://dlhd.dad")
	b := New("UA", "https://dlhd.dad")
	a.Apply("https://a.example/")

	if b.Referer() != "https://dlhd.dad/" {
		t.Errorf("contexts share state: b referer = %q", b.Referer())
	}
}
