package stt

import (
	"context"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/domain/repositories"
)

var (
	_ repositories.SpeechToText = &GoogleSpeechToText{}
	_ repositories.SpeechToText = &MockSpeechToText{}
)

func TestGetAudioEncoding(t *testing.T) {
	cases := map[string]speechpb.RecognitionConfig_AudioEncoding{
		"LINEAR16":  speechpb.RecognitionConfig_LINEAR16,
		"wav":       speechpb.RecognitionConfig_LINEAR16,
		"FLAC":      speechpb.RecognitionConfig_FLAC,
		"WEBM_OPUS": speechpb.RecognitionConfig_WEBM_OPUS,
	}
	for in, want := range cases {
		got, err := getAudioEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := getAudioEncoding("MP3")
	assert.Error(t, err)
}

func TestRecognizeRequest(t *testing.T) {
	req, err := recognizeRequest([]byte{1, 2, 3}, repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   "en-US",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(16000), req.Config.SampleRateHertz)
	assert.Equal(t, "en-US", req.Config.LanguageCode)
	assert.Equal(t, []byte{1, 2, 3}, req.Audio.GetContent())
}

func TestMockSpeechToText(t *testing.T) {
	s := NewMockSpeechToText(zap.NewNop())

	text, err := s.TranscribeAudio(context.Background(), make([]byte, 2000), repositories.AudioConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	_, err = s.TranscribeAudio(context.Background(), nil, repositories.AudioConfig{})
	assert.Error(t, err)
}
