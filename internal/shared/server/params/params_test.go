package params

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestInt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 20},
		{query: "limit=abc", want: 20},
		{query: "limit=5", want: 5},
		{query: "limit=0", want: 1},
		{query: "limit=500", want: 100},
		{query: "limit=%2042%20", want: 42},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
		if got := Int(c, "limit", 20, 1, 100); got != tt.want {
			t.Fatalf("Int(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
