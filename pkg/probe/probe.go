// Package probe checks that a resolved link actually serves an HLS
// playlist when requested with the link's headers.
package probe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grafov/m3u8"

	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/urlutil"
)

const maxPlaylistSize = 4 << 20

// Playlist kinds reported in Result.Kind.
const (
	KindMaster = "master"
	KindMedia  = "media"
)

// Variant is one rendition of a master playlist.
type Variant struct {
	URL        string `json:"url"`
	Bandwidth  uint32 `json:"bandwidth,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// Result describes what the playlist URL returned.
type Result struct {
	URL            string    `json:"url"`
	StatusCode     int       `json:"status"`
	Kind           string    `json:"kind,omitempty"`
	Variants       []Variant `json:"variants,omitempty"`
	Segments       uint      `json:"segments,omitempty"`
	TargetDuration float64   `json:"targetDuration,omitempty"`
	InitSegment    string    `json:"initSegment,omitempty"`
	Live           bool      `json:"live"`
}

// Playable reports whether a playlist was parsed.
func (r *Result) Playable() bool {
	return r != nil && r.Kind != ""
}

// Prober fetches and inspects playlists.
type Prober struct {
	client  interfaces.HTTPClient
	timeout time.Duration
	log     *logging.Logger
}

// New creates a Prober.
func New(client interfaces.HTTPClient, timeout time.Duration, log *logging.Logger) *Prober {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Prober{
		client:  client,
		timeout: timeout,
		log:     log.WithComponent("probe"),
	}
}

// Probe requests playlistURL with headers and parses the response. A
// non-200 status is reported in the result, not as an error; an
// unparseable body is an error.
func (p *Prober) Probe(ctx context.Context, playlistURL string, headers map[string]string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	res := &Result{URL: playlistURL, StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		p.log.Warn("playlist fetch failed", "url", playlistURL, "status", resp.StatusCode)
		return res, nil
	}

	playlist, listType, err := m3u8.DecodeFrom(bufio.NewReader(io.LimitReader(resp.Body, maxPlaylistSize)), false)
	if err != nil {
		return res, fmt.Errorf("parsing playlist %s: %w", playlistURL, err)
	}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		res.Kind = KindMaster
		res.Live = true
		for _, v := range master.Variants {
			if v == nil {
				break
			}
			res.Variants = append(res.Variants, Variant{
				URL:        urlutil.ResolveURL(v.URI, playlistURL),
				Bandwidth:  v.Bandwidth,
				Resolution: v.Resolution,
			})
		}

	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		res.Kind = KindMedia
		res.Segments = media.Count()
		res.TargetDuration = media.TargetDuration
		res.Live = !media.Closed
		if xmap := initMap(media); xmap != nil {
			res.InitSegment = urlutil.ResolveURL(xmap.URI, playlistURL)
		}
	}

	p.log.Debug("probed playlist",
		"url", playlistURL,
		"kind", res.Kind,
		"variants", len(res.Variants),
		"segments", res.Segments,
	)
	return res, nil
}

func initMap(media *m3u8.MediaPlaylist) *m3u8.Map {
	if media.Map != nil {
		return media.Map
	}
	for _, seg := range media.Segments {
		if seg != nil && seg.Map != nil {
			return seg.Map
		}
	}
	return nil
}
