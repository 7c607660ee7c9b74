package twitter

// UserResponse is the payload of /2/users/by/username/{handle}
type UserResponse struct {
	Data   *User      `json:"data"`
	Errors []APIError `json:"errors"`
}

// User identifies an upstream account
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Timeline is the payload of /2/users/{id}/tweets: a newest-first page of
// tweets plus a media side-table keyed by media_key
type Timeline struct {
	Data     []Tweet    `json:"data"`
	Includes Includes   `json:"includes"`
	Meta     Meta       `json:"meta"`
	Errors   []APIError `json:"errors"`
}

// Includes carries the expanded objects referenced from the tweet list
type Includes struct {
	Media []Media `json:"media"`
}

// Meta carries page bookkeeping
type Meta struct {
	NewestID    string `json:"newest_id"`
	OldestID    string `json:"oldest_id"`
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

// Tweet is one post as the upstream represents it
type Tweet struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	CreatedAt        string            `json:"created_at"`
	Attachments      *Attachments      `json:"attachments,omitempty"`
	ReferencedTweets []ReferencedTweet `json:"referenced_tweets,omitempty"`
}

// Attachments lists the media keys attached to a tweet
type Attachments struct {
	MediaKeys []string `json:"media_keys"`
}

// ReferencedTweet marks a retweet/reply/quote relationship
type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Referenced-tweet relationship types
const (
	RefTypeRetweeted = "retweeted"
	RefTypeRepliedTo = "replied_to"
	RefTypeQuoted    = "quoted"
)

// Media is one entry of the includes.media side-table
type Media struct {
	MediaKey        string    `json:"media_key"`
	Type            string    `json:"type"`
	URL             string    `json:"url"`
	PreviewImageURL string    `json:"preview_image_url"`
	Variants        []Variant `json:"variants,omitempty"`
}

// Media types as the upstream reports them
const (
	MediaTypePhoto       = "photo"
	MediaTypeVideo       = "video"
	MediaTypeAnimatedGIF = "animated_gif"
)

// Variant is one rendition of a video, usually differing in bitrate.
// BitRate is zero when the upstream declares none (e.g. HLS playlists).
type Variant struct {
	BitRate     int    `json:"bit_rate,omitempty"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// APIError is an inline error object the upstream embeds in otherwise
// well-formed responses
type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}
