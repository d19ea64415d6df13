package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainFirstHitWins(t *testing.T) {
	chain := NewChain("appKey", "key", "id")

	testCases := []struct {
		description string
		body        string
		expected    string
		found       bool
	}{
		{
			description: "first rule",
			body:        `{"appKey":"1a2b3c","key":"other","id":"x"}`,
			expected:    "1a2b3c",
			found:       true,
		},
		{
			description: "falls through empty string",
			body:        `{"appKey":"","key":"k-77"}`,
			expected:    "k-77",
			found:       true,
		},
		{
			description: "numeric id becomes its decimal form",
			body:        `{"id":861407}`,
			expected:    "861407",
			found:       true,
		},
		{
			description: "no rule matches",
			body:        `{"name":"My Game"}`,
			expected:    "",
			found:       false,
		},
		{
			description: "null does not match",
			body:        `{"appKey":null,"id":42}`,
			expected:    "42",
			found:       true,
		},
	}

	for _, test := range testCases {
		value, found := chain.Extract([]byte(test.body))
		assert.Equal(t, test.found, found, test.description)
		assert.Equal(t, test.expected, value, test.description)
	}
}

func TestChainNestedPaths(t *testing.T) {
	chain := NewChain("result.app_id", "data.site_id", "site_id")

	value, found := chain.Extract([]byte(`{"data":{"site_id":5001}}`))
	assert.True(t, found)
	assert.Equal(t, "5001", value)

	value, found = chain.Extract([]byte(`{"site_id":"top-level"}`))
	assert.True(t, found)
	assert.Equal(t, "top-level", value)

	value, found = chain.Extract([]byte(`{"result":{"app_id":"r-1"},"data":{"site_id":5001}}`))
	assert.True(t, found)
	assert.Equal(t, "r-1", value, "rule order beats document order")
}

func TestChainDoesNotGuessBeyondRules(t *testing.T) {
	chain := NewChain("result.appId")

	_, found := chain.Extract([]byte(`{"result":{"appID":"case-differs"},"appId":"top"}`))
	assert.False(t, found, "near-miss field names must not match")
}

func TestExtractFrom(t *testing.T) {
	chain := NewChain("site_id")

	value, found := chain.ExtractFrom(
		[]byte(`{"code":0}`),
		[]byte(`{"site_id":9000}`),
	)
	assert.True(t, found)
	assert.Equal(t, "9000", value)

	_, found = chain.ExtractFrom(nil, []byte(`{}`))
	assert.False(t, found)
}

func TestEnvelope(t *testing.T) {
	body := []byte(`{"applications":[{"appKey":"a"}],"meta":1}`)
	assert.JSONEq(t, `[{"appKey":"a"}]`, string(Envelope(body, "applications", "data")))

	wrapped := []byte(`{"data":{"list":[1,2]}}`)
	assert.JSONEq(t, `[1,2]`, string(Envelope(wrapped, "applications", "data.list")))

	bare := []byte(`[{"appKey":"a"}]`)
	assert.JSONEq(t, string(bare), string(Envelope(bare, "applications")))
}
