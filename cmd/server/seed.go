package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

type seedYAML struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Resume string `yaml:"resume"`
}

type userUpserter interface {
	Upsert(ctx domain.Context, u domain.User) error
}

// seedUsersFromYAML upserts local accounts into the user mirror so tokens
// minted for them resolve in dev.
func seedUsersFromYAML(ctx domain.Context, repo userUpserter, path string) (int, error) {
	b, err := os.ReadFile(path) //nolint:gosec // operator-supplied seed path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("seed file not found: %s", path)
		}
		return 0, err
	}
	var doc seedYAML
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return 0, fmt.Errorf("yaml parse: %w", err)
	}
	n := 0
	for _, u := range doc.Users {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			continue
		}
		err := repo.Upsert(ctx, domain.User{
			ID:         id,
			Name:       strings.TrimSpace(u.Name),
			Email:      strings.TrimSpace(u.Email),
			ResumeText: strings.TrimSpace(u.Resume),
		})
		if err != nil {
			return n, fmt.Errorf("upsert %s: %w", id, err)
		}
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("no users to seed in %s", path)
	}
	return n, nil
}
