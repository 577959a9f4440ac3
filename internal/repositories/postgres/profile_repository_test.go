package postgres

import (
	"testing"
	"time"

	"varanasihub.com/site/internal/domain"
)

func TestToProfileColumnsOverrideDocument(t *testing.T) {
	created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	row := profileRow{
		Slug:      "Kashi-Sweets",
		Status:    "approved",
		Document:  []byte(`{"businessName":"Kashi Sweets","slug":"old-slug","status":"pending"}`),
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
	profile, err := toProfile(row)
	if err != nil {
		t.Fatalf("toProfile: %v", err)
	}
	if profile.Slug != "kashi-sweets" || profile.Status != domain.StatusApproved {
		t.Fatalf("expected columns to win, got slug=%q status=%q", profile.Slug, profile.Status)
	}
	if profile.BusinessName != "Kashi Sweets" || !profile.CreatedAt.Equal(created) {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestToProfileEmptyDocument(t *testing.T) {
	profile, err := toProfile(profileRow{Slug: "ganga-tea"})
	if err != nil {
		t.Fatalf("toProfile: %v", err)
	}
	if len(profile.BusinessHours) != 7 {
		t.Fatalf("expected complete hours, got %d", len(profile.BusinessHours))
	}
}

func TestToProfileRejectsBadJSON(t *testing.T) {
	if _, err := toProfile(profileRow{Slug: "x", Document: []byte(`{`)}); err == nil {
		t.Fatal("expected decode error")
	}
}
