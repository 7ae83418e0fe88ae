package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.9:4321"
	return req
}

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFunc := KeyByIPAndJSONField("email")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = jsonRequest(`{"email":" Vendor@Market.example "}`)
	if key := keyFunc(c); key != "vendor@market.example|10.0.0.9" {
		t.Fatalf("key want vendor@market.example|10.0.0.9 got %s", key)
	}

	// 读 key 不能消费掉请求体，后续绑定还要用
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Vendor@Market.example") {
		t.Fatalf("request body not restored: %s", body)
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFunc := KeyByIPAndJSONField("email")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = jsonRequest(`{"password":"x"}`)
	if key := keyFunc(c); key != "10.0.0.9" {
		t.Fatalf("missing field should fall back to IP, got %s", key)
	}

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = jsonRequest(`not-json`)
	if key := keyFunc(c2); key != "10.0.0.9" {
		t.Fatalf("malformed body should fall back to IP, got %s", key)
	}
}

func TestRateLimitMiddlewareDisabledWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Redis 未配置时限流直接放行
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d: want pass-through, got %d %s", i, w.Code, w.Body.String())
		}
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(7), want: 7, ok: true},
		{name: "int", input: int(8), want: 8, ok: true},
		{name: "uint32", input: uint32(9), want: 9, ok: true},
		{name: "float64 truncates", input: float64(10.9), want: 10, ok: true},
		{name: "string rejected", input: "7", ok: false},
		{name: "nil rejected", input: nil, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("want (%d,%v) got (%d,%v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}
