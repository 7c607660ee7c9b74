// Package relay implements the check-and-forward cycle: under an
// exclusive execution lock, fetch the watched account's recent tweets,
// resolve their media, forward new posts to the destination chat
// oldest-first, and persist the processed-ID set.
package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tweetrelay/pkg/config"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/media"
	"tweetrelay/pkg/store"
)

// Relay owns one account→chat pipeline. All mutable state (rate-limit
// pacing, lock, dedup set) hangs off this value or its collaborators, so
// several independent relays can coexist in one process.
type Relay struct {
	cfg        *config.Config
	client     UpstreamClient
	sender     AssetSender
	store      *store.Store
	lock       Locker
	downloader Downloader
	logger     logger.Logger

	// Injectable so tests run without real delays
	sleep func(time.Duration)
}

// New wires a relay from its collaborators
func New(cfg *config.Config, client UpstreamClient, sender AssetSender, st *store.Store, lk Locker, log logger.Logger) *Relay {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Relay{
		cfg:        cfg,
		client:     client,
		sender:     sender,
		store:      st,
		lock:       lk,
		downloader: NewHTTPDownloader(0, log),
		logger:     log,
		sleep:      time.Sleep,
	}
}

// SetDownloader replaces the media downloader (tests only)
func (r *Relay) SetDownloader(d Downloader) {
	r.downloader = d
}

// SetSleep replaces the inter-send delay function (tests only)
func (r *Relay) SetSleep(sleep func(time.Duration)) {
	r.sleep = sleep
}

// CheckAndForward runs one full cycle and returns the number of posts
// forwarded. A cycle already in progress yields (0, nil) immediately.
// Nothing escapes this boundary: upstream trouble degrades to zero new
// posts, and a panic is recovered, logged and converted to a failed
// zero-count result. The lock release and the stale-file purge run on
// every exit path.
func (r *Relay) CheckAndForward() (count int, err error) {
	locked, lockErr := r.lock.TryAcquire()
	if lockErr != nil {
		r.logger.WithError(lockErr).Error("could not acquire execution lock")
		return 0, lockErr
	}
	if !locked {
		r.logger.Debug("check already in progress, skipping")
		return 0, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorWithFields("cycle panicked", map[string]interface{}{
				"panic": fmt.Sprintf("%v", rec),
			})
			count = 0
			err = fmt.Errorf("cycle panicked: %v", rec)
		}

		r.purgeStaleFiles()

		if relErr := r.lock.Release(); relErr != nil {
			r.logger.WithError(relErr).Warn("failed to release execution lock")
		}
	}()

	return r.runCycle(), nil
}

// runCycle is the body of one check. Upstream failures are logged and
// treated as "no new posts" rather than propagated.
func (r *Relay) runCycle() int {
	handle := r.cfg.Twitter.Handle
	r.logger.InfoWithFields("checking for new media tweets", map[string]interface{}{
		"handle": handle,
	})

	seen := r.store.Load()

	userID, err := r.client.LookupUser(handle)
	if err != nil {
		r.logger.WithError(err).WithField("handle", handle).Error("could not resolve account")
		return 0
	}

	sinceID := store.MaxID(seen)
	page, err := r.client.RecentTweets(userID, sinceID)
	if err != nil {
		r.logger.WithError(err).WithField("handle", handle).Error("could not fetch recent tweets")
		return 0
	}
	if page == nil || len(page.Data) == 0 {
		r.logger.Info("no new tweets")
		return 0
	}

	// Every newly inspected ID is recorded, including retweets and
	// media-less tweets, so the watermark moves past them and they are
	// never re-examined.
	var accepted []*media.Post
	dirty := false
	for i := range page.Data {
		tweet := &page.Data[i]
		if _, ok := seen[tweet.ID]; ok {
			continue
		}
		seen[tweet.ID] = struct{}{}
		dirty = true

		if post := media.Resolve(tweet, page.Includes.Media); post != nil {
			accepted = append(accepted, post)
		} else {
			r.logger.DebugWithFields("tweet skipped", map[string]interface{}{
				"tweet_id": tweet.ID,
			})
		}
	}

	// The page is newest-first; forward oldest-first so delivery order
	// matches original chronology.
	forwarded := 0
	for i := len(accepted) - 1; i >= 0; i-- {
		r.forwardPost(accepted[i])
		forwarded++
		r.sleep(r.cfg.Relay.PostDelay)
	}

	if dirty {
		if err := r.store.Save(seen); err != nil {
			r.logger.WithError(err).Error("failed to persist processed IDs")
		}
	}

	r.logger.InfoWithFields("check complete", map[string]interface{}{
		"handle":    handle,
		"inspected": len(page.Data),
		"forwarded": forwarded,
	})

	return forwarded
}

// forwardPost downloads and sends each asset of one post in order. The
// cleaned text captions the first asset only; a failed asset is skipped
// and the rest of the post still goes out.
func (r *Relay) forwardPost(post *media.Post) {
	for i, asset := range post.Assets {
		localPath := r.assetPath(post.ID, i, asset)

		if err := r.downloader.Fetch(asset.URL, localPath); err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"tweet_id": post.ID,
				"url":      asset.URL,
			}).Warn("failed to download media, skipping asset")
			continue
		}

		caption := ""
		if i == 0 {
			caption = post.Text
		}

		r.sendAndRemove(localPath, caption, asset.Type, post.ID)
		r.sleep(r.cfg.Relay.AssetDelay)
	}
}

// sendAndRemove attempts one send and removes the transient file no
// matter how the send ends
func (r *Relay) sendAndRemove(localPath, caption string, kind media.AssetType, tweetID string) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			r.logger.WithError(err).WithField("path", localPath).Warn("failed to remove transient file")
		}
	}()

	if err := r.sender.SendAsset(localPath, caption, kind); err != nil {
		r.logger.WithError(err).WithFields(map[string]interface{}{
			"tweet_id": tweetID,
			"type":     string(kind),
		}).Warn("failed to send asset, skipping")
		return
	}

	r.logger.InfoWithFields("media forwarded", map[string]interface{}{
		"tweet_id": tweetID,
		"type":     string(kind),
	})
}

// assetPath names a transient file from post ID, asset index and a
// type-appropriate extension so files never collide within a cycle
func (r *Relay) assetPath(tweetID string, index int, asset media.Asset) string {
	name := fmt.Sprintf("temp_%s_%d%s", tweetID, index, asset.Ext())
	return filepath.Join(r.cfg.Relay.TempDir, name)
}

// purgeStaleFiles removes transient files older than the configured TTL.
// Files from the cycle that just ran are too fresh to match.
func (r *Relay) purgeStaleFiles() {
	entries, err := os.ReadDir(r.cfg.Relay.TempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.WithError(err).Warn("failed to scan temp directory")
		}
		return
	}

	cutoff := time.Now().Add(-r.cfg.Relay.TempTTL)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(r.cfg.Relay.TempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			r.logger.WithError(err).WithField("path", path).Warn("failed to remove stale temp file")
		} else {
			r.logger.DebugWithFields("stale temp file removed", map[string]interface{}{
				"path": path,
			})
		}
	}
}
