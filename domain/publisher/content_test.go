package publisher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"my-publisher/domain/model"
)

func TestComposeMessage(t *testing.T) {
	req := &model.PublishRequest{
		Text:     "Launch day",
		Hashtags: []string{"golang", "#release", " "},
		Mentions: []string{"teammate", "@partner"},
	}

	msg := ComposeMessage(req, 0)
	assert.Equal(t, "Launch day\n\n#golang #release\n\n@teammate @partner", msg)
}

func TestComposeMessage_TruncatesAtLimit(t *testing.T) {
	req := &model.PublishRequest{Text: "abcdefghij"}

	msg := ComposeMessage(req, 8)
	assert.Equal(t, "abcde...", msg)
	assert.LessOrEqual(t, len([]rune(msg)), 8)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "hé...", Truncate("héllo world", 5))
	assert.Equal(t, "no limit", Truncate("no limit", 0))
}

func TestRequireMedia(t *testing.T) {
	err := RequireMedia(model.PlatformPinterest, &model.PublishRequest{})
	require.Error(t, err)
	kind, _ := Classify(err)
	assert.Equal(t, model.ErrKindContentRejected, kind)

	assert.NoError(t, RequireMedia(model.PlatformPinterest, &model.PublishRequest{
		Media: []model.MediaRef{{Type: model.MediaTypeImage, URL: "https://cdn/x.png"}},
	}))
}

func TestRequireSingleVideo(t *testing.T) {
	cases := []struct {
		name  string
		media []model.MediaRef
		kind  model.ErrorKind
	}{
		{"no media", nil, model.ErrKindUnsupported},
		{"image", []model.MediaRef{{Type: model.MediaTypeImage, URL: "u"}}, model.ErrKindUnsupported},
		{"two videos", []model.MediaRef{{Type: model.MediaTypeVideo, URL: "a"}, {Type: model.MediaTypeVideo, URL: "b"}}, model.ErrKindContentRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := RequireSingleVideo(model.PlatformTikTok, &model.PublishRequest{Media: tc.media})
			require.Error(t, err)
			kind, _ := Classify(err)
			assert.Equal(t, tc.kind, kind)
		})
	}

	assert.NoError(t, RequireSingleVideo(model.PlatformTikTok, &model.PublishRequest{
		Media: []model.MediaRef{{Type: model.MediaTypeVideo, URL: "https://cdn/v.mp4"}},
	}))
}

func TestClassify_UnknownErrorIsTransient(t *testing.T) {
	kind, msg := Classify(errors.New("connection reset"))
	assert.Equal(t, model.ErrKindTransient, kind)
	assert.Equal(t, "connection reset", msg)
}
