package seed

import (
	"fmt"
	"os"

	"stuverflow/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Preset is a named demo-data layout loaded from a YAML file. Presets let a
// dev environment start with known accounts and communities instead of
// purely random data.
type Preset struct {
	Users []PresetUser `yaml:"users"`

	Communities []PresetCommunity `yaml:"communities"`

	Questions []PresetQuestion `yaml:"questions"`
}

type PresetUser struct {
	Email     string   `yaml:"email"`
	Name      string   `yaml:"name"`
	Handle    string   `yaml:"handle"`
	Password  string   `yaml:"password"`
	Interests []string `yaml:"interests"`
}

type PresetCommunity struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Creator     string `yaml:"creator"` // email of a preset user
}

type PresetQuestion struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Author      string   `yaml:"author"` // email of a preset user
	Tags        []string `yaml:"tags"`
}

// LoadPreset reads and parses a preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset %s: %w", path, err)
	}
	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", path, err)
	}
	return &preset, nil
}

// Apply persists the preset. Users are keyed by email so re-applying a
// preset on an existing database does not duplicate accounts.
func (p *Preset) Apply(db *gorm.DB) error {
	f := NewFactory(db, Options{})
	byEmail := make(map[string]*models.User, len(p.Users))

	for _, pu := range p.Users {
		var existing models.User
		err := db.Where("email = ?", pu.Email).First(&existing).Error
		if err == nil {
			byEmail[pu.Email] = &existing
			continue
		}

		password := pu.Password
		if password == "" {
			password = "password123"
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		interests := tagList(pu.Interests).joined()
		user, err := f.CreateUser(func(u *models.User) {
			u.Email = pu.Email
			u.Name = pu.Name
			u.Password = string(hashed)
			u.Interests = interests
			if pu.Handle != "" {
				handle := pu.Handle
				u.Handle = &handle
			}
		})
		if err != nil {
			return err
		}
		byEmail[pu.Email] = user
	}

	for _, pc := range p.Communities {
		creator, ok := byEmail[pc.Creator]
		if !ok {
			return fmt.Errorf("preset community %q references unknown creator %q", pc.Name, pc.Creator)
		}
		if _, err := f.CreateCommunity(creator, func(c *models.Community) {
			c.Name = pc.Name
			c.Description = pc.Description
		}); err != nil {
			return err
		}
	}

	for _, pq := range p.Questions {
		author, ok := byEmail[pq.Author]
		if !ok {
			return fmt.Errorf("preset question %q references unknown author %q", pq.Title, pq.Author)
		}
		if _, err := f.CreateQuestion(author, func(q *models.Question) {
			q.Title = pq.Title
			q.Description = pq.Description
			q.SetTagList(pq.Tags)
			q.Views = 0
			q.Upvotes = 0
			q.Downvotes = 0
		}); err != nil {
			return err
		}
	}
	return nil
}
