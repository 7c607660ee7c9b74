package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/media"
)

// fakeAPI captures everything handed to Send
type fakeAPI struct {
	sent    []tgbotapi.Chattable
	sendErr error
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.sent = append(a.sent, c)
	return tgbotapi.Message{}, a.sendErr
}

func writeTempFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temp_101_0.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestSendPhoto(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithAPI(api, -100, 45*1024*1024, logger.NewTestLogger())

	path := filepath.Join(t.TempDir(), "temp_101_0.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))

	require.NoError(t, s.SendAsset(path, "hello <b>world</b>", media.TypePhoto))

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok, "expected a photo message, got %T", api.sent[0])
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Equal(t, "hello <b>world</b>", msg.Caption)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
}

func TestSendSmallVideo(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithAPI(api, -100, 1024, logger.NewTestLogger())

	path := writeTempFile(t, 512)
	require.NoError(t, s.SendAsset(path, "clip", media.TypeVideo))

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.VideoConfig)
	require.True(t, ok, "expected a video message, got %T", api.sent[0])
	assert.Equal(t, "clip", msg.Caption)
}

func TestOversizedVideoGoesAsDocument(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithAPI(api, -100, 1024, logger.NewTestLogger())

	path := writeTempFile(t, 2048)
	require.NoError(t, s.SendAsset(path, "big clip", media.TypeVideo))

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.DocumentConfig)
	require.True(t, ok, "expected a document message, got %T", api.sent[0])
	assert.Equal(t, "big clip", msg.Caption)
}

func TestZeroThresholdNeverDemotes(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithAPI(api, -100, 0, logger.NewTestLogger())

	path := writeTempFile(t, 2048)
	require.NoError(t, s.SendAsset(path, "", media.TypeVideo))

	require.Len(t, api.sent, 1)
	_, ok := api.sent[0].(tgbotapi.VideoConfig)
	assert.True(t, ok)
}

func TestSendMissingVideoFile(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithAPI(api, -100, 1024, logger.NewTestLogger())

	err := s.SendAsset(filepath.Join(t.TempDir(), "gone.mp4"), "", media.TypeVideo)

	require.Error(t, err)
	assert.Empty(t, api.sent)
}

func TestSendErrorIsWrapped(t *testing.T) {
	api := &fakeAPI{sendErr: fmt.Errorf("bot was blocked by the user")}
	s := NewWithAPI(api, -100, 1024, logger.NewTestLogger())

	path := filepath.Join(t.TempDir(), "temp_101_0.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))

	err := s.SendAsset(path, "", media.TypePhoto)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send photo")
	assert.Contains(t, err.Error(), "blocked")
}
