package local

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/repositories"
)

const kashiYAML = `
businessName: Kashi Sweets
category: Sweet Shop
slug: kashi-sweets
theme: classic
images:
  - https://cdn.example.com/front.jpg
services:
  - title: Rasmalai
    price: "120"
    featured: true
specialOffers:
  - title: Diwali Box
    expiryDate: 2025-11-01
businessHours:
  monday: {open: true, start: "09:00", end: "21:00"}
`

func TestGetBySlugYAML(t *testing.T) {
	repo := NewProfileRepositoryFS(fstest.MapFS{
		"kashi-sweets.yaml": {Data: []byte(kashiYAML)},
		"ganga-tea.json":    {Data: []byte(`{"businessName":"Ganga Tea"}`)},
		"notes.txt":         {Data: []byte("ignore")},
	})

	profile, err := repo.GetBySlug(context.Background(), "kashi-sweets")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if profile.BusinessName != "Kashi Sweets" || profile.Theme != domain.ThemeClassic {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if len(profile.Services) != 1 || !profile.Services[0].Featured {
		t.Fatalf("unexpected services %+v", profile.Services)
	}
	if profile.SpecialOffers[0].ExpiryDate.IsZero() {
		t.Fatalf("expected expiry date to decode")
	}
	if day, _ := profile.BusinessHours.Day(domain.Monday); !day.Open || day.End != "21:00" {
		t.Fatalf("unexpected monday hours %+v", day)
	}

	tea, err := repo.GetBySlug(context.Background(), "ganga-tea")
	if err != nil {
		t.Fatalf("GetBySlug json: %v", err)
	}
	if tea.Slug != "ganga-tea" {
		t.Fatalf("expected slug to default to file name, got %q", tea.Slug)
	}

	slugs, err := repo.Slugs()
	if err != nil || len(slugs) != 2 {
		t.Fatalf("Slugs() = %v, %v", slugs, err)
	}
}

func TestGetBySlugNotFound(t *testing.T) {
	repo := NewProfileRepositoryFS(fstest.MapFS{})
	for _, slug := range []string{"missing-shop", "../etc"} {
		_, err := repo.GetBySlug(context.Background(), slug)
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
			t.Fatalf("%s: expected not found, got %v", slug, err)
		}
	}
}

func TestGetBySlugMalformed(t *testing.T) {
	repo := NewProfileRepositoryFS(fstest.MapFS{"broken.yaml": {Data: []byte("images: [1, 2")}})
	if _, err := repo.GetBySlug(context.Background(), "broken"); err == nil {
		t.Fatal("expected parse error")
	}
}
