package twitter

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the Twitter API v2 root
	DefaultBaseURL = "https://api.twitter.com/2"

	// Field/expansion selectors sent with every timeline fetch. The
	// variants media field is what carries per-bitrate video renditions.
	tweetFields = "attachments,created_at,entities,referenced_tweets,text"
	expansions  = "attachments.media_keys"
	mediaFields = "preview_image_url,type,url,variants"

	// DefaultPageSize is the default max_results for a timeline fetch
	DefaultPageSize = 5

	// MinPageSize and MaxPageSize are the bounds the upstream enforces
	// on max_results
	MinPageSize = 5
	MaxPageSize = 100
)

// UserByUsernameURL constructs the URL resolving a handle to a user ID
func UserByUsernameURL(baseURL, handle string) string {
	return fmt.Sprintf("%s/users/by/username/%s", baseURL, url.PathEscape(handle))
}

// UserTweetsURL constructs the URL fetching a user's recent tweets with
// media expansions. sinceID is optional; when set, only tweets newer than
// it are returned.
func UserTweetsURL(baseURL, userID string, pageSize int, sinceID string) string {
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(pageSize))
	params.Set("tweet.fields", tweetFields)
	params.Set("expansions", expansions)
	params.Set("media.fields", mediaFields)
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}

	return fmt.Sprintf("%s/users/%s/tweets?%s", baseURL, url.PathEscape(userID), params.Encode())
}
