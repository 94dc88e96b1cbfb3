package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestCookieIndicatesSession(t *testing.T) {
	tests := []struct {
		name    string
		cookies []string
		want    bool
	}{
		{"laravel session cookie", []string{"_ga", "edlink_session"}, true},
		{"xsrf token cookie", []string{"XSRF-TOKEN"}, true},
		{"mixed case session", []string{"SessionId"}, true},
		{"tracking cookies only", []string{"_ga", "_gid", "locale"}, false},
		{"no cookies", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookies := make([]*proto.NetworkCookie, 0, len(tt.cookies))
			for _, name := range tt.cookies {
				cookies = append(cookies, &proto.NetworkCookie{Name: name})
			}
			if got := cookieIndicatesSession(cookies); got != tt.want {
				t.Errorf("cookieIndicatesSession(%v) = %v, want %v", tt.cookies, got, tt.want)
			}
		})
	}
}
