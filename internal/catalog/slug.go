package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const maxSlugAttempts = 100

type slugChecker interface {
	SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
}

// BaseSlug builds the product slug from its title and article.
func BaseSlug(title, article string) string {
	source := strings.TrimSpace(title)
	if a := strings.TrimSpace(article); a != "" {
		source += "-" + a
	}
	s := slug.Make(source)
	if s == "" {
		s = "product"
	}
	return s
}

// UniqueSlug returns base, or base-N with the smallest N >= 1 that is free.
func UniqueSlug(ctx context.Context, repo slugChecker, base string, exclude uuid.UUID) (string, error) {
	candidate := base
	for n := 1; n <= maxSlugAttempts; n++ {
		taken, err := repo.SlugTaken(ctx, candidate, exclude)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
