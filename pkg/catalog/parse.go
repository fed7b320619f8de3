package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/grafana/regexp"
	"github.com/samber/lo"

	"dlhd-resolver/pkg/types"
	"dlhd-resolver/pkg/urlutil"
)

// legacySkip is the number of navigation links before the channel list
// in the older layout.
const legacySkip = 8

var streamIDPattern = regexp.MustCompile(`stream-(\d+)\.php`)

func parseChannels(body string) ([]types.Channel, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var channels []types.Channel
	doc.Find(".card").Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Attr("href")
		id, ok := urlutil.FirstQueryValue(href, "id")
		if !ok || id == "" {
			return
		}
		channels = append(channels, types.Channel{
			Name:      strings.TrimSpace(card.Find("div").First().Text()),
			ID:        id,
			Reference: types.StreamReferenceFor(id),
		})
	})
	return channels, nil
}

func parseLegacyChannels(body string) ([]types.Channel, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	links := doc.Find("a")
	var channels []types.Channel
	links.Slice(min(legacySkip, links.Length()), links.Length()).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		ch := types.Channel{Name: strings.TrimSpace(a.Text()), Reference: href}
		if m := streamIDPattern.FindStringSubmatch(href); m != nil {
			ch.ID = m[1]
		}
		channels = append(channels, ch)
	})

	return lo.UniqBy(channels, func(ch types.Channel) string { return ch.Reference }), nil
}

func parseSchedule(body string) ([]types.Event, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var events []types.Event
	doc.Find(".schedule__day").Each(func(_ int, day *goquery.Selection) {
		categories := day.Find(".schedule__category.is-expanded")
		if categories.Length() == 0 {
			return
		}
		dayTitle := day.Find(".schedule__dayTitle").First().Text()
		date, _, _ := strings.Cut(dayTitle, " -")
		date = strings.TrimSpace(date)

		categories.Each(func(_ int, cat *goquery.Selection) {
			category := strings.TrimSpace(cat.Find(".card__meta").First().Text())
			cat.Find(".schedule__event").Each(func(_ int, ev *goquery.Selection) {
				events = append(events, types.Event{
					Title:    strings.TrimSpace(ev.Find(".schedule__eventTitle").First().Text()),
					Time:     strings.TrimSpace(ev.Find(".schedule__time").First().Text()),
					Category: category,
					Date:     date,
					Channels: eventChannels(ev),
				})
			})
		})
	})
	return events, nil
}

func eventChannels(ev *goquery.Selection) []types.EventChannel {
	var out []types.EventChannel
	ev.Find(".schedule__channels").First().Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id, _ := urlutil.FirstQueryValue(href, "id")
		out = append(out, types.EventChannel{
			Name: strings.TrimSpace(a.Text()),
			ID:   id,
		})
	})
	return out
}
