package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	rules := []Rule{
		must(NewExtensionRule("png", "jpg")),
		must(NewCategoryRule("Audio")),
		must(NewNameContainsRule("invoice", false, false)),
		must(NewContentContainsRule(`\bconfidential\b`, true, true)),
		must(NewLastAccessedRule(30)),
		NewAccessedAfterRule(time.UnixMilli(1700000000000)),
	}

	for _, r := range rules {
		t.Run(r.String(), func(t *testing.T) {
			data, err := Marshal(r)
			require.NoError(t, err)

			decoded, err := Unmarshal(data)
			require.NoError(t, err)
			assert.True(t, Equal(r, decoded))
			assert.IsType(t, r, decoded)
		})
	}
}

func TestMarshalRecordFormat(t *testing.T) {
	data, err := Marshal(must(NewNameContainsRule("invoice", false, true)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"NameHasRule","substring":"invoice","caseSensitive":false,"useRegex":true}`, string(data))

	data, err = Marshal(must(NewLastAccessedRule(7)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"LastAccessedRule","days":7}`, string(data))

	data, err = Marshal(NewAccessedAfterRule(time.UnixMilli(1700000000000)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"LastAccessedRule","Time":1700000000000}`, string(data))
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"unknown tag", `{"type":"SizeRule","bytes":10}`, ErrUnknownRuleType},
		{"missing tag", `{"extensions":[".png"]}`, ErrUnknownRuleType},
		{"invalid category", `{"type":"FileCategoryRule","category":"Spreadsheet"}`, ErrInvalidRule},
		{"empty extensions", `{"type":"FileExtensionRule","extensions":[]}`, ErrInvalidRule},
		{"access without attribute", `{"type":"LastAccessedRule"}`, ErrInvalidRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func must(r Rule, err error) Rule {
	if err != nil {
		panic(err)
	}
	return r
}
