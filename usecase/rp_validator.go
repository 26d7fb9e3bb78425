package usecase

import (
	"strings"

	"streamclips/domain/model"
	"streamclips/infrastructure/logger"
)

// rpTags are the soft-signal tags logged for observability; they never gate.
var rpTags = []string{"roleplay", "rp", "gta rp", "gtarp"}

// RPValidator decides whether a detected broadcast qualifies as an RP stream
// under the configured content policy. It is a pure predicate over the stream
// metadata and fails closed on any internal error.
type RPValidator struct {
	allowedGames     []string
	bannedCategories []string
	requiredKeywords []string
}

func NewRPValidator(allowedGames, bannedCategories, requiredKeywords []string) *RPValidator {
	return &RPValidator{
		allowedGames:     lowered(allowedGames),
		bannedCategories: lowered(bannedCategories),
		requiredKeywords: lowered(requiredKeywords),
	}
}

// ValidateRPStream runs the gate chain: allowed game, banned category,
// required title keyword (skipped when the keyword list is empty). The RP-tag
// check is computed and logged but never blocks.
func (v *RPValidator) ValidateRPStream(info *model.LiveStreamInfo) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("panic", r).Error("RP validation failed, treating stream as invalid")
			valid = false
		}
	}()

	game := strings.ToLower(info.Game)
	if !containsAny(game, v.allowedGames) {
		logger.GetLogger().WithField("game", info.Game).Warn("Stream rejected: game not allowed")
		return false
	}
	if containsAny(game, v.bannedCategories) {
		logger.GetLogger().WithField("game", info.Game).Warn("Stream rejected: banned category")
		return false
	}

	hasRequiredKeyword := true
	if len(v.requiredKeywords) > 0 {
		title := strings.ToLower(info.Title)
		hasRequiredKeyword = containsAny(title, v.requiredKeywords)
		if !hasRequiredKeyword {
			logger.GetLogger().WithField("title", info.Title).Warn("Stream rejected: title missing required keywords")
			return false
		}
	}

	hasRPTag := false
	for _, tag := range info.Tags {
		if containsAny(strings.ToLower(tag), rpTags) {
			hasRPTag = true
			break
		}
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"streamer":             info.StreamerName,
		"game":                 info.Game,
		"has_required_keyword": hasRequiredKeyword,
		"has_rp_tag":           hasRPTag,
	}).Info("Stream validated")
	return true
}

// IsGameChangeInvalid reports whether a mid-stream category change moved the
// stream from an allowed game to a disallowed one.
func (v *RPValidator) IsGameChangeInvalid(previousGame, newGame string) bool {
	previousValid := containsAny(strings.ToLower(previousGame), v.allowedGames)
	newValid := containsAny(strings.ToLower(newGame), v.allowedGames)
	return previousValid && !newValid
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowered(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
