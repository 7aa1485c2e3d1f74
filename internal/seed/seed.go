package seed

import (
	"log"

	"stuverflow/internal/models"

	"gorm.io/gorm"
)

// Run populates the database with demo users, questions, answers and
// communities according to the options.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumQuestions <= 0 {
		opts.NumQuestions = 30
	}
	if opts.NumCommunities <= 0 {
		opts.NumCommunities = 3
	}

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return err
		}
		users = append(users, user)
	}

	for i := 0; i < opts.NumQuestions; i++ {
		author := users[f.rng.Intn(len(users))]
		question, err := f.CreateQuestion(author)
		if err != nil {
			return err
		}
		for j := 0; j < f.rng.Intn(4); j++ {
			answerer := users[f.rng.Intn(len(users))]
			if _, err := f.CreateAnswer(answerer, question); err != nil {
				return err
			}
		}
	}

	for i := 0; i < opts.NumCommunities; i++ {
		creator := users[f.rng.Intn(len(users))]
		if _, err := f.CreateCommunity(creator); err != nil {
			return err
		}
	}

	log.Printf("Seeded %d users, %d questions, %d communities",
		opts.NumUsers, opts.NumQuestions, opts.NumCommunities)
	return nil
}
