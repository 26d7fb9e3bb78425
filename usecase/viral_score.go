package usecase

import (
	"math"
	"strings"

	"streamclips/domain/model"
	"streamclips/infrastructure/logger"
)

// Scoring weights, in percent. They sum to 100.
const (
	weightAction   = 25
	weightAudio    = 20
	weightDuration = 15
	weightDialog   = 15
	weightTiming   = 10
	weightKeywords = 15
)

const idealClipDuration = 30.0

var highActionKeywords = []string{
	"chase", "persecución", "robo", "robbery", "shoot", "disparo",
	"crash", "accidente", "fight", "pelea", "explosion", "escape",
}

var interestingPhrases = []string{
	"no mames", "qué pasa", "cuidado", "vamos", "dale", "corre",
	"policía", "está loco", "increíble",
}

var viralKeywords = []string{
	// Spanish
	"robo", "policía", "persecución", "escape", "tiroteo", "accidente",
	"loco", "increíble", "épico", "fail", "win",
	// English
	"robbery", "police", "chase", "escape", "shooting", "crash",
	"crazy", "amazing", "epic", "fail", "win",
}

// ViralScorer assigns a 0-100 virality score to a captured clip. The same
// inputs always produce the same score; any internal failure yields the
// neutral fallback of 50 rather than blocking the pipeline.
type ViralScorer struct{}

func NewViralScorer() *ViralScorer {
	return &ViralScorer{}
}

// Score combines six weighted sub-scores. The transcription is optional and
// nil at generation time; the score is computed once and never revised.
func (s *ViralScorer) Score(analysis *model.ClipAnalysis, duration int, trigger model.TriggerKind, transcription *model.Transcription) (score int) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("panic", r).Error("Viral scoring failed, using fallback score")
			score = 50
		}
	}()

	total := actionScore(analysis)*weightAction +
		audioScore(analysis)*weightAudio +
		durationScore(duration)*weightDuration +
		dialogScore(analysis, transcription)*weightDialog +
		timingScore(trigger)*weightTiming +
		keywordScore(analysis, transcription)*weightKeywords

	score = int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func actionScore(analysis *model.ClipAnalysis) float64 {
	if analysis == nil {
		return 0.5
	}
	score := 0.0
	hasHighAction := false
	for _, action := range analysis.Actions {
		if containsAny(strings.ToLower(action), highActionKeywords) {
			hasHighAction = true
			break
		}
	}
	if hasHighAction {
		score += 0.6
	} else if len(analysis.Actions) > 0 {
		score += 0.3
	}
	if analysis.HasHighAction {
		score += 0.4
	}
	return clamp01(score)
}

func audioScore(analysis *model.ClipAnalysis) float64 {
	if analysis == nil {
		return 0.5
	}
	score := 0.0
	if len(analysis.AudioPeaks) >= 3 {
		score += 0.5
	} else if len(analysis.AudioPeaks) > 0 {
		score += 0.3
	}
	if analysis.HasDialog {
		score += 0.3
	}
	if analysis.Sentiment == "positive" || analysis.Sentiment == "excited" {
		score += 0.2
	}
	return clamp01(score)
}

// durationScore peaks at the ideal length and falls off with distance.
func durationScore(seconds int) float64 {
	deviation := math.Abs(float64(seconds) - idealClipDuration)
	switch {
	case deviation == 0:
		return 1.0
	case deviation <= 5:
		return 0.9
	case deviation <= 10:
		return 0.7
	case deviation <= 15:
		return 0.5
	default:
		return 0.3
	}
}

func dialogScore(analysis *model.ClipAnalysis, transcription *model.Transcription) float64 {
	if analysis == nil {
		return 0.5
	}
	score := 0.0
	if analysis.HasDialog {
		score += 0.4
	}
	if transcription != nil && len(transcription.Utterances) > 0 {
		sum := 0.0
		for _, u := range transcription.Utterances {
			sum += u.Confidence
		}
		confidence := sum / float64(len(transcription.Utterances))
		if confidence >= 0.8 {
			score += 0.3
		} else if confidence >= 0.6 {
			score += 0.2
		}
	}
	if transcription != nil && containsAny(strings.ToLower(transcription.Transcript), interestingPhrases) {
		score += 0.3
	}
	return clamp01(score)
}

// timingScore rewards trigger kinds that correlate with genuine moments over
// scheduled captures.
func timingScore(trigger model.TriggerKind) float64 {
	switch trigger {
	case model.TriggerCommand:
		return 0.8
	case model.TriggerActionDetection:
		return 0.9
	case model.TriggerAudioPeak:
		return 0.7
	case model.TriggerPeriodic:
		return 0.4
	default:
		return 0.5
	}
}

func keywordScore(analysis *model.ClipAnalysis, transcription *model.Transcription) float64 {
	score := 0.0
	if transcription != nil {
		transcript := strings.ToLower(transcription.Transcript)
		matches := 0
		for _, kw := range viralKeywords {
			if strings.Contains(transcript, kw) {
				matches++
			}
		}
		switch {
		case matches >= 3:
			score += 0.7
		case matches >= 2:
			score += 0.5
		case matches >= 1:
			score += 0.3
		}
	}

	text := ""
	if analysis != nil {
		text = strings.ToLower(analysis.SuggestedTitle + " " + analysis.Description)
	}
	for _, kw := range viralKeywords {
		if strings.Contains(text, kw) {
			score += 0.05
		}
	}
	return clamp01(score)
}

// ScoreCategory buckets a score for display.
func ScoreCategory(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 65:
		return "good"
	case score >= 50:
		return "average"
	case score >= 35:
		return "below_average"
	default:
		return "poor"
	}
}

// ScoreRecommendation maps a score to the action the dispatcher will take.
func ScoreRecommendation(score int) string {
	switch {
	case score >= 80:
		return "auto_publish"
	case score >= 50:
		return "manual_review"
	default:
		return "reject"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
