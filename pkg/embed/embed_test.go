package embed

import (
	"errors"
	"testing"

	"dlhd-resolver/pkg/types"
)

func TestIframeSource(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "thatframe wins over earlier iframes",
			body: `<iframe src="https://ads.example/"></iframe>
				<iframe class="video" src="https://video.example/"></iframe>
				<iframe id="thatframe" src="https://player.example/premiumtv/daddyhd.php?id=51"></iframe>`,
			want: "https://player.example/premiumtv/daddyhd.php?id=51",
		},
		{
			name: "video class before plain iframe",
			body: `<iframe src="https://ads.example/"></iframe><iframe class="video wide" src="//video.example/e.php"></iframe>`,
			want: "//video.example/e.php",
		},
		{
			name: "any iframe as last resort",
			body: `<div><iframe src="/embed/stream-1.php" width="100%"></iframe></div>`,
			want: "/embed/stream-1.php",
		},
		{
			name:    "no iframe",
			body:    `<html><body><p>offline</p></body></html>`,
			wantErr: true,
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IframeSource(tt.body, "https://dlhd.dad/stream/stream-1.php")
			if tt.wantErr {
				var notFound *types.NotFoundError
				if !errors.As(err, &notFound) {
					t.Fatalf("expected NotFoundError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IframeSource() = %q, want %q", got, tt.want)
			}
		})
	}
}
