// Package media turns raw upstream tweets into forwardable posts:
// retweets and text-only tweets are discarded, attached media keys are
// resolved against the page's side-table, and videos are reduced to
// their best available rendition.
package media

import (
	"regexp"
	"strings"

	"tweetrelay/pkg/twitter"
)

// AssetType distinguishes the two forwardable media kinds
type AssetType string

const (
	TypePhoto AssetType = "photo"
	TypeVideo AssetType = "video"
)

// Asset is one resolved media item
type Asset struct {
	Type AssetType
	URL  string
}

// Ext returns the transient-file extension for the asset type
func (a Asset) Ext() string {
	if a.Type == TypeVideo {
		return ".mp4"
	}
	return ".jpg"
}

// Post is a tweet reduced to what the relay forwards: its ID, cleaned
// text and an ordered list of media assets
type Post struct {
	ID     string
	Text   string
	Assets []Asset
}

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	mediaLinkPattern  = regexp.MustCompile(`pic\.twitter\.com/\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// IsRetweet reports whether the tweet's reference list marks it as a
// retweet
func IsRetweet(t *twitter.Tweet) bool {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == twitter.RefTypeRetweeted {
			return true
		}
	}
	return false
}

// CleanText strips bare URLs and the platform's auto-generated media-link
// shorthand from the text and collapses internal whitespace
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mediaLinkPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Resolve returns the forwardable form of a tweet, or nil when the tweet
// is a retweet or resolves no media. The side-table comes from the
// page's includes.media.
func Resolve(t *twitter.Tweet, sideTable []twitter.Media) *Post {
	if IsRetweet(t) {
		return nil
	}
	if t.Attachments == nil || len(t.Attachments.MediaKeys) == 0 {
		return nil
	}

	var assets []Asset
	for _, key := range t.Attachments.MediaKeys {
		m := findMedia(sideTable, key)
		if m == nil {
			continue
		}

		switch m.Type {
		case twitter.MediaTypePhoto:
			if m.URL != "" {
				assets = append(assets, Asset{Type: TypePhoto, URL: m.URL})
			}
		case twitter.MediaTypeVideo, twitter.MediaTypeAnimatedGIF:
			if url := bestVariantURL(m.Variants); url != "" {
				assets = append(assets, Asset{Type: TypeVideo, URL: url})
			}
		}
	}

	if len(assets) == 0 {
		return nil
	}

	return &Post{
		ID:     t.ID,
		Text:   CleanText(t.Text),
		Assets: assets,
	}
}

// findMedia looks up a media key in the side-table
func findMedia(sideTable []twitter.Media, key string) *twitter.Media {
	for i := range sideTable {
		if sideTable[i].MediaKey == key {
			return &sideTable[i]
		}
	}
	return nil
}

// bestVariantURL selects the variant with the highest declared bitrate,
// ties broken by first-seen order. When no variant declares a bitrate the
// first variant exposing a URL wins.
func bestVariantURL(variants []twitter.Variant) string {
	bestBitRate := 0
	bestURL := ""

	for _, v := range variants {
		if v.BitRate > bestBitRate && v.URL != "" {
			bestBitRate = v.BitRate
			bestURL = v.URL
		} else if v.URL != "" && bestURL == "" {
			bestURL = v.URL
		}
	}

	return bestURL
}
