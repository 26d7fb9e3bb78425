package media

import (
	"context"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

// BasicAnalyzer is the placeholder content analyzer. It returns conservative
// defaults until frame/audio analysis lands.
// TODO: wire audio-peak detection from the extracted wav track.
type BasicAnalyzer struct{}

func NewBasicAnalyzer() repository.IAnalyzer { return &BasicAnalyzer{} }

func (a *BasicAnalyzer) Analyze(ctx context.Context, artifactPath string) (*model.ClipAnalysis, error) {
	return &model.ClipAnalysis{
		SuggestedTitle: "Clip automático",
		Description:    "Momento destacado del stream",
		Actions:        []string{"general"},
		AudioPeaks:     nil,
		HasHighAction:  false,
		HasDialog:      true,
		Sentiment:      "neutral",
	}, nil
}
