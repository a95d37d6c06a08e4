// Package google provides a Google Cloud Speech-to-Text STT adapter.
package google

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"patient-intake-transcription-service/internal/service/stt"
)

// Config holds Google streaming recognition options.
type Config struct {
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
}

// DefaultConfig returns the streaming options used for intake sessions.
func DefaultConfig() Config {
	return Config{
		LanguageCode:   "en-US",
		SampleRateHz:   8000,
		InterimResults: true,
		AudioEncoding:  "LINEAR16",
	}
}

// Adapter implements stt.Adapter using Google Cloud Speech-to-Text.
type Adapter struct {
	cfg    Config
	client *speech.Client
	stream speechpb.Speech_StreamingRecognizeClient
	cb     stt.Callback
}

// New creates a new Google STT adapter.
// Requires the GOOGLE_APPLICATION_CREDENTIALS environment variable.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, client: c}, nil
}

// Start begins a streaming recognition session and sends the initial config.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		return err
	}
	a.stream = stream
	a.cb = cb

	// Streaming config must be the first message on the stream.
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        parseAudioEncoding(a.cfg.AudioEncoding),
					SampleRateHertz: int32(a.cfg.SampleRateHz),
					LanguageCode:    a.cfg.LanguageCode,
				},
				InterimResults: a.cfg.InterimResults,
			},
		},
	}); err != nil {
		return err
	}

	go a.listen()
	return nil
}

// SendAudio sends audio bytes to Google Speech-to-Text.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	return a.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Close ends the streaming session.
func (a *Adapter) Close() error {
	if a.stream != nil {
		if err := a.stream.CloseSend(); err != nil {
			return err
		}
	}
	return a.client.Close()
}

// listen receives transcript responses from Google and invokes callbacks.
func (a *Adapter) listen() {
	for {
		resp, err := a.stream.Recv()
		if err != nil {
			a.cb.OnError(err)
			return
		}

		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]
			if alt.Transcript == "" {
				continue
			}
			if r.IsFinal {
				a.cb.OnFinal(alt.Transcript, float64(alt.Confidence))
			} else {
				a.cb.OnPartial(alt.Transcript)
			}
		}
	}
}

// parseAudioEncoding maps a config string to the protobuf encoding enum,
// falling back to LINEAR16 for unknown values.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
