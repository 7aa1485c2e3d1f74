package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"stuverflow/internal/cache"
	"stuverflow/internal/featureflags"
	"stuverflow/internal/models"
	"stuverflow/internal/repository"
)

// TrendingService computes read-side rankings on demand. Every call scans
// the live tables; short-TTL cache-aside keeps repeat reads cheap without a
// materialized view.
type TrendingService struct {
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	userRepo     repository.UserRepository
	flags        *featureflags.Manager
	now          func() time.Time
}

// TagCount is one row of the trending-tags ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TopicScore is one row of the trending-topics ranking.
type TopicScore struct {
	Tag           string  `json:"tag"`
	Score         float64 `json:"score"`
	QuestionCount int     `json:"question_count"`
}

// UserScore is one row of the trending-users ranking.
type UserScore struct {
	User  models.User `json:"user"`
	Score int         `json:"score"`
}

const (
	rankingLimit       = 10
	defaultWindowDays  = 7
	maxWindowDays      = 365
	defaultTagLimit    = 10
)

func NewTrendingService(
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	userRepo repository.UserRepository,
	flags *featureflags.Manager,
) *TrendingService {
	return &TrendingService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		userRepo:     userRepo,
		flags:        flags,
		now:          time.Now,
	}
}

func (s *TrendingService) cached() bool {
	return s.flags != nil && s.flags.EnabledGlobally(featureflags.TrendingCache)
}

// Hot returns the ten most viewed questions overall.
func (s *TrendingService) Hot(ctx context.Context) ([]models.Question, error) {
	if !s.cached() {
		return s.questionRepo.Hot(ctx, rankingLimit)
	}

	var questions []models.Question
	err := cache.Aside(ctx, cache.HotQuestionsKey, &questions, cache.HotTTL, func() error {
		fetched, err := s.questionRepo.Hot(ctx, rankingLimit)
		if err != nil {
			return err
		}
		questions = fetched
		return nil
	})
	return questions, err
}

// Trending returns the ten most upvoted questions created in the trailing
// seven days.
func (s *TrendingService) Trending(ctx context.Context) ([]models.Question, error) {
	since := s.now().AddDate(0, 0, -defaultWindowDays)
	if !s.cached() {
		return s.questionRepo.TrendingByUpvotes(ctx, since, rankingLimit)
	}

	var questions []models.Question
	err := cache.Aside(ctx, cache.TrendingQuestionsKey, &questions, cache.TrendingTTL, func() error {
		fetched, err := s.questionRepo.TrendingByUpvotes(ctx, since, rankingLimit)
		if err != nil {
			return err
		}
		questions = fetched
		return nil
	})
	return questions, err
}

func clampWindow(days int) int {
	if days <= 0 {
		return defaultWindowDays
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return defaultTagLimit
	}
	return limit
}

// Tags counts tag occurrences over questions created in the window and
// returns the top entries, ties broken alphabetically.
func (s *TrendingService) Tags(ctx context.Context, days, limit int) ([]TagCount, error) {
	days = clampWindow(days)
	limit = clampLimit(limit)

	compute := func() ([]TagCount, error) {
		questions, err := s.questionRepo.ListSince(ctx, s.now().AddDate(0, 0, -days))
		if err != nil {
			return nil, err
		}

		counts := make(map[string]int)
		for _, q := range questions {
			for _, tag := range q.TagList() {
				tag = strings.ToLower(strings.TrimSpace(tag))
				if tag != "" {
					counts[tag]++
				}
			}
		}

		out := make([]TagCount, 0, len(counts))
		for tag, count := range counts {
			out = append(out, TagCount{Tag: tag, Count: count})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Tag < out[j].Tag
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	if !s.cached() {
		return compute()
	}
	var tags []TagCount
	err := cache.Aside(ctx, cache.TrendingTagsKey(days, limit), &tags, cache.TrendingTTL, func() error {
		fetched, err := compute()
		if err != nil {
			return err
		}
		tags = fetched
		return nil
	})
	return tags, err
}

// Topics scores each tag over the window: every question contributes
// upvotes*3 + views*0.1 + answers*5 to each of its tags.
func (s *TrendingService) Topics(ctx context.Context, days, limit int) ([]TopicScore, error) {
	days = clampWindow(days)
	limit = clampLimit(limit)

	compute := func() ([]TopicScore, error) {
		rows, err := s.questionRepo.ListWithAnswerCountsSince(ctx, s.now().AddDate(0, 0, -days))
		if err != nil {
			return nil, err
		}

		scores := make(map[string]*TopicScore)
		for _, row := range rows {
			score := float64(row.Question.Upvotes)*3 +
				float64(row.Question.Views)*0.1 +
				float64(row.AnswerCount)*5
			for _, tag := range row.Question.TagList() {
				tag = strings.ToLower(strings.TrimSpace(tag))
				if tag == "" {
					continue
				}
				entry, ok := scores[tag]
				if !ok {
					entry = &TopicScore{Tag: tag}
					scores[tag] = entry
				}
				entry.Score += score
				entry.QuestionCount++
			}
		}

		out := make([]TopicScore, 0, len(scores))
		for _, entry := range scores {
			out = append(out, *entry)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			return out[i].Tag < out[j].Tag
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	if !s.cached() {
		return compute()
	}
	var topics []TopicScore
	err := cache.Aside(ctx, cache.TrendingTopicsKey(days, limit), &topics, cache.TrendingTTL, func() error {
		fetched, err := compute()
		if err != nil {
			return err
		}
		topics = fetched
		return nil
	})
	return topics, err
}

// Users scores authors over the window: 5 per recent question, 3 per recent
// answer, 2 per question upvote, 1 per answer upvote. Only positive scores
// rank.
func (s *TrendingService) Users(ctx context.Context, days, limit int) ([]UserScore, error) {
	days = clampWindow(days)
	limit = clampLimit(limit)

	compute := func() ([]UserScore, error) {
		since := s.now().AddDate(0, 0, -days)
		questions, err := s.questionRepo.ListSince(ctx, since)
		if err != nil {
			return nil, err
		}
		answers, err := s.answerRepo.ListSince(ctx, since)
		if err != nil {
			return nil, err
		}

		scores := make(map[uint]int)
		for _, q := range questions {
			scores[q.UserID] += 5 + 2*q.Upvotes
		}
		for _, a := range answers {
			scores[a.UserID] += 3 + a.Upvotes
		}

		ids := make([]uint, 0, len(scores))
		for id, score := range scores {
			if score > 0 {
				ids = append(ids, id)
			}
		}
		users, err := s.userRepo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		out := make([]UserScore, 0, len(users))
		for _, user := range users {
			out = append(out, UserScore{User: user, Score: scores[user.ID]})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			return out[i].User.ID < out[j].User.ID
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	if !s.cached() {
		return compute()
	}
	var users []UserScore
	err := cache.Aside(ctx, cache.TrendingUsersKey(days, limit), &users, cache.TrendingTTL, func() error {
		fetched, err := compute()
		if err != nil {
			return err
		}
		users = fetched
		return nil
	})
	return users, err
}
