package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	QuestionKeyPrefix     = "question:%d"
	HotQuestionsKey       = "questions:hot"
	TrendingQuestionsKey  = "questions:trending"
	TrendingTagsPrefix    = "trending:tags:%d:%d"
	TrendingTopicsPrefix  = "trending:topics:%d:%d"
	TrendingUsersPrefix   = "trending:users:%d:%d"
)

const (
	QuestionTTL = 5 * time.Minute
	HotTTL      = time.Minute
	TrendingTTL = 2 * time.Minute
)

func QuestionKey(questionID uint) string {
	return fmt.Sprintf(QuestionKeyPrefix, questionID)
}

// TrendingTagsKey keys a window/limit pair so distinct queries cache separately.
func TrendingTagsKey(days, limit int) string {
	return fmt.Sprintf(TrendingTagsPrefix, days, limit)
}

func TrendingTopicsKey(days, limit int) string {
	return fmt.Sprintf(TrendingTopicsPrefix, days, limit)
}

func TrendingUsersKey(days, limit int) string {
	return fmt.Sprintf(TrendingUsersPrefix, days, limit)
}

func InvalidateQuestion(ctx context.Context, questionID uint) {
	Invalidate(ctx, QuestionKey(questionID))
}

// InvalidateRankings drops the hot/trending question lists after a write
// that affects their ordering. Windowed tag/topic/user keys expire on TTL.
func InvalidateRankings(ctx context.Context) {
	Invalidate(ctx, HotQuestionsKey)
	Invalidate(ctx, TrendingQuestionsKey)
}
