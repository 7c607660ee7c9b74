package relay

import (
	"tweetrelay/pkg/media"
	"tweetrelay/pkg/twitter"
)

// UpstreamClient defines the upstream API operations the relay needs
type UpstreamClient interface {
	LookupUser(handle string) (string, error)
	RecentTweets(userID, sinceID string) (*twitter.Timeline, error)
}

// AssetSender forwards one downloaded media file to the destination chat
type AssetSender interface {
	SendAsset(localPath, caption string, kind media.AssetType) error
}

// Locker is the execution lock guarding the cycle. TryAcquire must not
// block: "already held" is reported as false, nil.
type Locker interface {
	TryAcquire() (bool, error)
	Release() error
}

// Downloader fetches a media URL into a local file
type Downloader interface {
	Fetch(url, dest string) error
}
