package storage

import "testing"

func TestBuildObjectPath(t *testing.T) {
	got, err := BuildObjectPath(PurposeGallery, "kashi-sweets", "front.jpg")
	if err != nil {
		t.Fatalf("BuildObjectPath returned error: %v", err)
	}
	if got != "businesses/kashi-sweets/gallery/front.jpg" {
		t.Fatalf("unexpected path %s", got)
	}
}

func TestBuildObjectPathRejectsTraversal(t *testing.T) {
	cases := []struct {
		purpose AssetPurpose
		slug    string
		file    string
	}{
		{PurposeLogo, "kashi", "../secret"},
		{PurposeLogo, "a/b", "logo.png"},
		{PurposeLogo, "", "logo.png"},
		{"banner", "kashi", "logo.png"},
	}
	for _, tc := range cases {
		if _, err := BuildObjectPath(tc.purpose, tc.slug, tc.file); err == nil {
			t.Errorf("expected error for %+v", tc)
		}
	}
}

func TestParseObjectRef(t *testing.T) {
	ref, ok := ParseObjectRef("gs://vh-media/businesses/kashi/logo/a.png")
	if !ok || ref.Bucket != "vh-media" || ref.Object != "businesses/kashi/logo/a.png" {
		t.Fatalf("unexpected ref %+v ok=%v", ref, ok)
	}
	for _, input := range []string{"https://x/y", "gs://bucket", "gs:///obj", "gs://bucket/"} {
		if _, ok := ParseObjectRef(input); ok {
			t.Errorf("ParseObjectRef(%q) expected failure", input)
		}
	}
}
