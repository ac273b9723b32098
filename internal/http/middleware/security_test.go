package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securedRecords(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.GET("/api/records", func(c *gin.Context) { c.JSON(http.StatusOK, []any{}) })
	return r
}

func TestSecurityHeaders_Table(t *testing.T) {
	const day = 24 * time.Hour

	cases := []struct {
		name  string
		opt   SecurityOptions
		setup func(*http.Request)
		want  map[string]string
	}{
		{
			name: "baseline only",
			opt:  SecurityOptions{},
			want: map[string]string{
				"X-Content-Type-Options":        "nosniff",
				"X-Frame-Options":               "DENY",
				"Referrer-Policy":               "no-referrer",
				"Permissions-Policy":            "",
				"Cache-Control":                 "",
				"Strict-Transport-Security":     "",
				"Access-Control-Expose-Headers": "X-Request-ID, ETag, Idempotency-Replayed",
			},
		},
		{
			name: "policy and no-store",
			opt:  SecurityOptions{NoStore: true, EnablePolicy: true},
			want: map[string]string{
				"X-Permitted-Cross-Domain-Policies": "none",
				"Cache-Control":                     "no-store",
				"Pragma":                            "no-cache",
				"Expires":                           "0",
			},
		},
		{
			name:  "hsts over direct tls",
			opt:   SecurityOptions{EnableHSTS: true, HSTSMaxAge: day},
			setup: func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			want: map[string]string{
				"Strict-Transport-Security": "max-age=86400; includeSubDomains; preload",
			},
		},
		{
			name:  "hsts behind proxy uses default age",
			opt:   SecurityOptions{EnableHSTS: true},
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") },
			want: map[string]string{
				"Strict-Transport-Security": "max-age=15552000; includeSubDomains; preload",
			},
		},
		{
			name: "hsts withheld on plain http",
			opt:  SecurityOptions{EnableHSTS: true, HSTSMaxAge: day},
			want: map[string]string{
				"Strict-Transport-Security": "",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			w := httptest.NewRecorder()
			securedRecords(tc.opt).ServeHTTP(w, req)

			for k, v := range tc.want {
				if got := w.Header().Get(k); got != v {
					t.Errorf("%s = %q; want %q", k, got, v)
				}
			}
		})
	}
}

func TestSecurityHeaders_MergesExposeList(t *testing.T) {
	r := securedRecords(SecurityOptions{}, func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", "Content-Length, etag")
		c.Next()
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/records", nil))

	want := "Content-Length, etag, X-Request-ID, Idempotency-Replayed"
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != want {
		t.Fatalf("expose = %q; want %q", got, want)
	}
}

func TestMergeHeaderList(t *testing.T) {
	cases := map[string]struct {
		cur  string
		add  []string
		want string
	}{
		"empty current": {"", []string{"ETag"}, "ETag"},
		"blank entries": {" , ETag ,", []string{"etag", "X-Request-ID"}, "ETag, X-Request-ID"},
		"nothing added": {"A, B", nil, "A, B"},
		"dupes in add":  {"", []string{"A", "a"}, "A"},
	}
	for name, tc := range cases {
		if got := mergeHeaderList(tc.cur, tc.add); got != tc.want {
			t.Errorf("%s: got %q; want %q", name, got, tc.want)
		}
	}
}
