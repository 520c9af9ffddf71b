// MsHoa Learning | 2026
// service_test.go

package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"video/mp4", "video/mp4"},
		{"VIDEO/MP4", "video/mp4"},
		{" video/webm ", "video/webm"},
		{"video/mp4; codecs=avc1", "video/mp4"},
		{"image/jpeg;charset=utf-8", "image/jpeg"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeMediaType(tt.in), "input %q", tt.in)
	}
}

func TestMediaExtensions(t *testing.T) {
	ext, ok := videoExtensions[normalizeMediaType("video/quicktime")]
	assert.True(t, ok)
	assert.Equal(t, ".mov", ext)

	_, ok = videoExtensions[normalizeMediaType("video/x-msvideo")]
	assert.False(t, ok, "avi uploads are rejected")

	ext, ok = imageExtensions[normalizeMediaType("IMAGE/PNG")]
	assert.True(t, ok)
	assert.Equal(t, ".png", ext)
}
