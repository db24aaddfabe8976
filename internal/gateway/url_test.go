package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"trailing slash on base", "http://api.test/", "mealplans", "http://api.test/mealplans"},
		{"leading slash on path", "http://api.test", "/mealplans", "http://api.test/mealplans"},
		{"both slashes", "http://api.test/", "/mealplans", "http://api.test/mealplans"},
		{"neither slash", "http://api.test", "mealplans", "http://api.test/mealplans"},
		{"inner double slash", "https://api.test/v1/", "meals//7/aliments", "https://api.test/v1/meals/7/aliments"},
		{"query kept", "http://api.test/", "aliments?name=a//b", "http://api.test/aliments?name=a//b"},
		{"empty path", "http://api.test/", "", "http://api.test/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinURL(tt.base, tt.path))
		})
	}
}

func TestResourcePathEscapesSegments(t *testing.T) {
	assert.Equal(t, "mealplans/12", ResourcePath("mealplans", "12"))
	assert.Equal(t, "users/mealplans/a%2Fb", ResourcePath("users/mealplans", "a/b"))
	assert.Equal(t, "mealRecords/meal/9", ResourcePath("mealRecords/meal/", "9"))
}
