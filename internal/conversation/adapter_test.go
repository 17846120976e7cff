package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractionWellFormed(t *testing.T) {
	raw := `Here you go:
{
  "extracted": {
    "intent": "book",
    "name": "John Doe",
    "date": "2025-04-10",
    "time": "09:00:00",
    "reason": "headache",
    "old_date": null,
    "old_time": null
  },
  "missing_fields": [],
  "response": "Booking you in!"
}`
	res := ParseExtraction(raw)
	assert.Equal(t, "book", res.Extracted.Intent)
	assert.Equal(t, "2025-04-10", res.Extracted.Date)
	assert.Equal(t, "09:00:00", res.Extracted.Time)
	assert.Equal(t, "headache", res.Extracted.Reason)
	assert.Equal(t, "Booking you in!", res.Response)
	assert.False(t, res.Recovered)
}

func TestParseExtractionRecoversTruncatedJSON(t *testing.T) {
	raw := `{"extracted": {"intent": "book", "date": null}, "missing_fields": ["date"], "response": "Sure, what date works?`
	res := ParseExtraction(raw)
	assert.Equal(t, "Sure, what date works?", res.Response)
	assert.True(t, res.Recovered)
}

func TestParseExtractionRepairsMissingFinalBrace(t *testing.T) {
	raw := `{"extracted": {"intent": "cancel"}, "missing_fields": [], "response": "Okay, canceling."`
	res := ParseExtraction(raw)
	assert.Equal(t, "cancel", res.Extracted.Intent)
	assert.Equal(t, "Okay, canceling.", res.Response)
	assert.True(t, res.Recovered)
}

func TestParseExtractionStripsInlineComments(t *testing.T) {
	raw := `{
  "extracted": {"intent": "book"}, // detected booking
  "missing_fields": [],
  "response": "Got it."
}`
	res := ParseExtraction(raw)
	assert.Equal(t, "book", res.Extracted.Intent)
	assert.Equal(t, "Got it.", res.Response)
}

func TestParseExtractionNoJSONFallsBackToRawText(t *testing.T) {
	res := ParseExtraction("I can help with that, what date works?")
	assert.Equal(t, "I can help with that, what date works?", res.Response)
	assert.True(t, res.Recovered)
	assert.Empty(t, res.Extracted.Intent)
}

func TestParseExtractionUnrecoverableYieldsApology(t *testing.T) {
	res := ParseExtraction(`{"extracted": [broken`)
	require.NotEmpty(t, res.Response)
	assert.Equal(t, fallbackApology, res.Response)
	assert.True(t, res.Recovered)
}
