package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

const deepgramListenURL = "https://api.deepgram.com/v1/listen"

// DeepgramTranscriber converts clip audio to time-aligned text through the
// Deepgram prerecorded API. Optional capability: callers hold nil when no API
// key is configured.
type DeepgramTranscriber struct {
	apiKey     string
	extractor  *FFmpeg
	httpClient *http.Client
}

func NewDeepgramTranscriber(apiKey string, extractor *FFmpeg) repository.ITranscription {
	return &DeepgramTranscriber{
		apiKey:     apiKey,
		extractor:  extractor,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"utterances"`
	} `json:"results"`
}

func (t *DeepgramTranscriber) Transcribe(ctx context.Context, artifactPath, language string) (*model.Transcription, error) {
	audioPath, err := t.extractor.ExtractAudio(ctx, artifactPath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(audioPath)

	audio, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer audio.Close()

	if language == "" {
		language = "es"
	}
	url := fmt.Sprintf("%s?model=nova-2&language=%s&punctuate=true&utterances=true", deepgramListenURL, language)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, audio)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram returned %d", resp.StatusCode)
	}

	var body deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := &model.Transcription{}
	if len(body.Results.Channels) > 0 && len(body.Results.Channels[0].Alternatives) > 0 {
		out.Transcript = body.Results.Channels[0].Alternatives[0].Transcript
	}
	for _, u := range body.Results.Utterances {
		out.Utterances = append(out.Utterances, model.Utterance{
			StartSec:   u.Start,
			EndSec:     u.End,
			Text:       u.Transcript,
			Confidence: u.Confidence,
		})
	}
	return out, nil
}
