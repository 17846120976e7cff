package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func queryFields() map[string]string {
	return map[string]string{
		"name":      "John Doe",
		"custId":    "1",
		"patientId": "2",
		"lastVisit": "2024-12-01",
		"email":     "",
	}
}

func TestHandleInfoQuery(t *testing.T) {
	got, ok := HandleInfoQuery("What's my patient id?", queryFields())
	assert.True(t, ok)
	assert.Equal(t, "Your patient id is 2.", got)

	got, ok = HandleInfoQuery("tell me my name", queryFields())
	assert.True(t, ok)
	assert.Equal(t, "Your name is John Doe.", got)
}

func TestHandleInfoQueryDateFields(t *testing.T) {
	got, ok := HandleInfoQuery("What is my last visit?", queryFields())
	assert.True(t, ok)
	assert.Equal(t, "Your last visit was on 2024-12-01.", got)
}

func TestHandleInfoQueryMissingValue(t *testing.T) {
	got, ok := HandleInfoQuery("what's my email", queryFields())
	assert.True(t, ok)
	assert.Equal(t, "I don't have that information for your email.", got)
}

func TestHandleInfoQueryNotAQuery(t *testing.T) {
	_, ok := HandleInfoQuery("book me for tomorrow at 9am", queryFields())
	assert.False(t, ok)

	_, ok = HandleInfoQuery("my name is John", queryFields())
	assert.False(t, ok)
}
