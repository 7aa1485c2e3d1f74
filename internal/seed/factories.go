// Package seed creates demo data for development and testing. It is never
// invoked in production request paths.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"stuverflow/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// Options controls seeding volume and behavior.
type Options struct {
	NumUsers       int
	NumQuestions   int
	NumCommunities int
	MaxDays        int // spread of created_at timestamps back from now
	SkipBcrypt     bool
}

var questionTags = []string{
	"math", "physics", "chemistry", "biology", "history", "literature",
	"programming", "statistics", "economics", "psychology", "engineering",
	"calculus", "algebra", "writing", "research",
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *Factory) spreadCreatedAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	return time.Now().
		Add(-time.Duration(f.rng.Intn(maxDays)) * 24 * time.Hour).
		Add(-time.Duration(f.rng.Intn(24)) * time.Hour).
		Add(-time.Duration(f.rng.Intn(60)) * time.Minute)
}

// CreateUser persists a sample user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	handle := models.HandlePrefix + gofakeit.Username()
	user := &models.User{
		Username:    gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:       gofakeit.Email(),
		Name:        gofakeit.Name(),
		Handle:      &handle,
		Bio:         gofakeit.Sentence(10),
		Institution: gofakeit.Company(),
		Expertise:   gofakeit.JobTitle(),
		Interests:   pickTags(f.rng, 3).joined(),
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateQuestion persists a sample question for the user.
func (f *Factory) CreateQuestion(user *models.User, overrides ...func(*models.Question)) (*models.Question, error) {
	question := &models.Question{
		Title:       gofakeit.Question(),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		UserID:      user.ID,
		Views:       f.rng.Intn(200),
		Upvotes:     f.rng.Intn(30),
		Downvotes:   f.rng.Intn(5),
		CreatedAt:   f.spreadCreatedAt(),
	}
	question.SetTagList(pickTags(f.rng, 1+f.rng.Intn(3)))

	for _, override := range overrides {
		override(question)
	}
	if err := f.db.Create(question).Error; err != nil {
		return nil, err
	}
	return question, nil
}

// CreateAnswer persists a sample answer.
func (f *Factory) CreateAnswer(user *models.User, question *models.Question, overrides ...func(*models.Answer)) (*models.Answer, error) {
	answer := &models.Answer{
		Content:    gofakeit.Paragraph(1, 2, 6, "\n"),
		UserID:     user.ID,
		QuestionID: question.ID,
		Upvotes:    f.rng.Intn(15),
		CreatedAt:  f.spreadCreatedAt(),
	}
	for _, override := range overrides {
		override(answer)
	}
	if err := f.db.Create(answer).Error; err != nil {
		return nil, err
	}
	return answer, nil
}

// CreateCommunity persists a community; the creator membership row comes
// from the same insert path the application uses.
func (f *Factory) CreateCommunity(creator *models.User, overrides ...func(*models.Community)) (*models.Community, error) {
	community := &models.Community{
		Name:        gofakeit.NounAbstract() + " " + gofakeit.NounCollectiveThing(),
		Description: gofakeit.Sentence(12),
		CreatorID:   creator.ID,
		IsPublic:    true,
	}
	for _, override := range overrides {
		override(community)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Create(&models.CommunityMembership{
			CommunityID:  community.ID,
			UserID:       creator.ID,
			Role:         models.RoleAdmin,
			Status:       models.StatusApproved,
			RequestedAt:  now,
			ApprovedAt:   &now,
			ApprovedByID: &creator.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

type tagList []string

func (t tagList) joined() string {
	out := ""
	for i, tag := range t {
		if i > 0 {
			out += ","
		}
		out += tag
	}
	return out
}

func pickTags(rng *rand.Rand, n int) tagList {
	picked := make(tagList, 0, n)
	seen := make(map[string]bool)
	for len(picked) < n {
		tag := questionTags[rng.Intn(len(questionTags))]
		if !seen[tag] {
			seen[tag] = true
			picked = append(picked, tag)
		}
	}
	return picked
}
