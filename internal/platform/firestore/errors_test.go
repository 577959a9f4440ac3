package firestore

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"varanasihub.com/site/internal/platform/config"
)

func TestWrapErrorClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		code        codes.Code
		notFound    bool
		unavailable bool
	}{
		{codes.NotFound, true, false},
		{codes.Unavailable, false, true},
		{codes.PermissionDenied, false, true},
		{codes.InvalidArgument, false, false},
	}
	for _, tc := range cases {
		err := WrapError("businesses.get", status.Error(tc.code, "boom"))
		var repoErr *Error
		if !errors.As(err, &repoErr) {
			t.Fatalf("%s: expected *Error, got %T", tc.code, err)
		}
		if repoErr.IsNotFound() != tc.notFound || repoErr.IsUnavailable() != tc.unavailable {
			t.Errorf("%s: notFound=%v unavailable=%v", tc.code, repoErr.IsNotFound(), repoErr.IsUnavailable())
		}
	}
}

func TestWrapErrorPassesContextErrors(t *testing.T) {
	if err := WrapError("op", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := WrapError("op", status.Error(codes.Canceled, "gone")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected grpc cancel mapped to context.Canceled, got %v", err)
	}
	if WrapError("op", nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestNotFoundHelper(t *testing.T) {
	err := NotFound("businesses.first", "business")
	var repoErr *Error
	if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err.Error() != "businesses.first: business not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestProviderClosed(t *testing.T) {
	p := NewProvider(configForTest())
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := p.Client(context.Background()); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}

func configForTest() config.FirestoreConfig {
	return config.FirestoreConfig{ProjectID: "test-project", EmulatorHost: "127.0.0.1:1"}
}
