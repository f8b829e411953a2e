package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iconidentify/tikgrab/internal/domain"
)

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{
			name: "bare url",
			text: "https://vm.tiktok.com/ZMabcdef/",
			want: "https://vm.tiktok.com/ZMabcdef/",
		},
		{
			name: "url surrounded by share text",
			text: "Check this out! https://vm.tiktok.com/ZMabcdef/ so funny",
			want: "https://vm.tiktok.com/ZMabcdef/",
		},
		{
			name: "first of two urls wins",
			text: "https://a.example/one https://b.example/two",
			want: "https://a.example/one",
		},
		{
			name:    "no url",
			text:    "just words here",
			wantErr: domain.ErrNoURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractURL(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractContentID(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{"video path", "https://www.tiktok.com/@user/video/7301234567890123456", "7301234567890123456", false},
		{"photo path", "https://www.tiktok.com/@user/photo/7301234567890123456", "7301234567890123456", false},
		{"short v path", "https://m.tiktok.com/v/7301234567890123456.html", "7301234567890123456", false},
		{"no id", "https://www.tiktok.com/@user", "", true},
		{"non-numeric", "https://www.tiktok.com/@user/video/abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractContentID(tt.link)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrIDNotFound) {
					t.Fatalf("err = %v, want ErrIDNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_Normalize_FollowsRedirectOnce(t *testing.T) {
	canonical := "https://www.tiktok.com/@user/video/7301234567890123456"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, canonical+"?share_id=xyz&u_code=abc", http.StatusMovedPermanently)
	}))
	defer server.Close()

	r := New(Config{}, nil)
	got, err := r.Normalize(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got != canonical {
		t.Errorf("got %q, want %q (query stripped)", got, canonical)
	}
}

func TestResolver_Normalize_CanonicalPassesThrough(t *testing.T) {
	// A canonical link must not hit the network at all.
	link := "https://www.tiktok.com/@user/video/7301234567890123456"

	r := New(Config{}, nil)
	got, err := r.Normalize(context.Background(), link)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got != link {
		t.Errorf("got %q, want unchanged %q", got, link)
	}
}

func TestResolver_Normalize_NonRedirectFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := New(Config{}, nil)
	_, err := r.Normalize(context.Background(), server.URL)
	if !errors.Is(err, domain.ErrResolution) {
		t.Fatalf("err = %v, want ErrResolution", err)
	}
}

func TestResolver_Resolve_EndToEnd(t *testing.T) {
	canonical := "https://www.tiktok.com/@user/video/7300000000000000001"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, canonical, http.StatusMovedPermanently)
	}))
	defer server.Close()

	r := New(Config{}, nil)
	got, err := r.Resolve(context.Background(), "look at this "+server.URL+" wow")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != canonical {
		t.Errorf("got %q, want %q", got, canonical)
	}

	id, err := ExtractContentID(got)
	if err != nil {
		t.Fatalf("ExtractContentID failed: %v", err)
	}
	if id != "7300000000000000001" {
		t.Errorf("id = %q", id)
	}
}
