package logger

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetrelay/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run("level "+tt.in, func(t *testing.T) {
			level, err := parseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay.log")
	log, err := New(&config.LoggingConfig{Level: "debug", File: path})

	require.NoError(t, err)
	log.Info("hello")

	// The log directory and file were created
	assert.FileExists(t, path)
}

func TestTestLoggerCapturesFields(t *testing.T) {
	log := NewTestLogger()

	log.WithField("handle", "artist").WithError(fmt.Errorf("boom")).Error("check failed")
	log.InfoWithFields("check complete", map[string]interface{}{"forwarded": 2})

	msgs := log.Messages()
	require.Len(t, msgs, 2)

	assert.Equal(t, "ERROR", msgs[0].Level)
	assert.Equal(t, "artist", msgs[0].Fields["handle"])
	assert.Equal(t, "boom", msgs[0].Fields["error"])

	assert.Equal(t, "INFO", msgs[1].Level)
	assert.Equal(t, 2, msgs[1].Fields["forwarded"])

	assert.True(t, log.HasMessage("check failed"))
	assert.False(t, log.HasMessage("never logged"))
}

func TestGetLoggerNeverNil(t *testing.T) {
	assert.NotNil(t, GetLogger())
}
