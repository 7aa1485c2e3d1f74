package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"
)

// SearchService runs question and user searches. The database narrows by
// substring and scalar filters; tag intersection, relevance ordering and
// pagination happen here.
type SearchService struct {
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	userRepo     repository.UserRepository
	now          func() time.Time
}

type SearchQuestionsInput struct {
	Query    string
	Tags     []string
	AuthorID uint
	Date     string // today | week | month | year
	Answered string // answered | unanswered
	MinVotes int
	SortBy   string // newest | oldest | most_votes | most_answers | relevance
	Limit    int
	Offset   int
}

// SearchQuestionsResult pages question matches with a has_more flag.
type SearchQuestionsResult struct {
	Questions []models.Question `json:"questions"`
	Total     int               `json:"total"`
	HasMore   bool              `json:"has_more"`
}

const maxSearchLimit = 100

func NewSearchService(
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	userRepo repository.UserRepository,
) *SearchService {
	return &SearchService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

func (s *SearchService) dateCutoff(bucket string) (*time.Time, error) {
	now := s.now()
	var since time.Time
	switch bucket {
	case "":
		return nil, nil
	case "today":
		since = now.AddDate(0, 0, -1)
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month":
		since = now.AddDate(0, -1, 0)
	case "year":
		since = now.AddDate(-1, 0, 0)
	default:
		return nil, models.NewValidationError("date must be one of today, week, month, year")
	}
	return &since, nil
}

func (s *SearchService) Questions(ctx context.Context, in SearchQuestionsInput) (*SearchQuestionsResult, error) {
	since, err := s.dateCutoff(in.Date)
	if err != nil {
		return nil, err
	}

	filter := repository.QuestionFilter{
		Query:    strings.TrimSpace(in.Query),
		AuthorID: in.AuthorID,
		Since:    since,
		MinVotes: in.MinVotes,
	}
	switch in.Answered {
	case "":
	case "answered":
		answered := true
		filter.Answered = &answered
	case "unanswered":
		answered := false
		filter.Answered = &answered
	default:
		return nil, models.NewValidationError("answered must be 'answered' or 'unanswered'")
	}

	questions, err := s.questionRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	questions = filterByTags(questions, in.Tags)

	if err := s.sortResults(ctx, questions, in.SortBy, filter.Query); err != nil {
		return nil, err
	}

	limit := in.Limit
	if limit <= 0 || limit > maxSearchLimit {
		limit = 20
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(questions)
	if offset >= total {
		return &SearchQuestionsResult{Questions: []models.Question{}, Total: total, HasMore: false}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &SearchQuestionsResult{
		Questions: questions[offset:end],
		Total:     total,
		HasMore:   end < total,
	}, nil
}

func (s *SearchService) sortResults(ctx context.Context, questions []models.Question, sortBy, query string) error {
	switch sortBy {
	case "", "newest":
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		})
	case "oldest":
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].CreatedAt.Before(questions[j].CreatedAt)
		})
	case "most_votes":
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].Upvotes > questions[j].Upvotes
		})
	case "most_answers":
		ids := make([]uint, 0, len(questions))
		for _, q := range questions {
			ids = append(ids, q.ID)
		}
		counts, err := s.answerRepo.CountByQuestion(ctx, ids)
		if err != nil {
			return err
		}
		sort.SliceStable(questions, func(i, j int) bool {
			return counts[questions[i].ID] > counts[questions[j].ID]
		})
	case "relevance":
		sort.SliceStable(questions, func(i, j int) bool {
			si, sj := relevance(&questions[i], query), relevance(&questions[j], query)
			if si != sj {
				return si > sj
			}
			if questions[i].Upvotes != questions[j].Upvotes {
				return questions[i].Upvotes > questions[j].Upvotes
			}
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		})
	default:
		return models.NewValidationError("sort_by must be one of newest, oldest, most_votes, most_answers, relevance")
	}
	return nil
}

// relevance weights where the query matched: title 3, description 2, tags 1.
func relevance(q *models.Question, query string) int {
	query = strings.ToLower(query)
	if query == "" {
		return 0
	}
	score := 0
	if strings.Contains(strings.ToLower(q.Title), query) {
		score += 3
	}
	if strings.Contains(strings.ToLower(q.Description), query) {
		score += 2
	}
	for _, tag := range q.TagList() {
		if strings.Contains(strings.ToLower(tag), query) {
			score++
			break
		}
	}
	return score
}

// filterByTags keeps questions carrying every requested tag.
func filterByTags(questions []models.Question, tags []string) []models.Question {
	wanted := normalizeTags(tags)
	if len(wanted) == 0 {
		return questions
	}

	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		have := make(map[string]bool)
		for _, tag := range q.TagList() {
			have[strings.ToLower(tag)] = true
		}
		all := true
		for _, tag := range wanted {
			if !have[tag] {
				all = false
				break
			}
		}
		if all {
			out = append(out, q)
		}
	}
	return out
}

func (s *SearchService) Users(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}
