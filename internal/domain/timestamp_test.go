package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_DecodesKnownLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`"2024-05-01T10:00:00.123Z"`, time.Date(2024, 5, 1, 10, 0, 0, 123e6, time.UTC)},
		{`"2024-01-15 10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15T10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15"`, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
			assert.Empty(t, ts.Raw)
		})
	}
}

func TestTimestamp_KeepsUnparseableValues(t *testing.T) {
	for _, in := range []string{`""`, `null`, `"yesterday"`, `1714557600`} {
		t.Run(in, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(in), &ts))
			assert.True(t, ts.IsZero())
		})
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Equal(t, "yesterday", ts.Raw)
	assert.Equal(t, "yesterday", ts.String())

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"yesterday"`, string(out))
}

func TestTimestamp_MarshalsParsedTime(t *testing.T) {
	ts := ParseTimestamp("2024-01-15 10:30:00")
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-01-15T10:30:00Z"`, string(out))

	out, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.JSONEq(t, `""`, string(out))
}

func TestCompanyList_OddCreatedAtDoesNotFailDecode(t *testing.T) {
	var list CompanyList
	require.NoError(t, json.Unmarshal([]byte(`{"companies":[
		{"id":"c1","name":"A","created_at":"2024-01-15 10:30:00"},
		{"id":"c2","name":"B","created_at":""},
		{"id":"c3","name":"C","created_at":"2024-01-15"}
	]}`), &list))
	require.Len(t, list.Companies, 3)
	assert.Equal(t, 2024, list.Companies[0].CreatedAt.Year())
	assert.True(t, list.Companies[1].CreatedAt.IsZero())
	assert.Equal(t, time.January, list.Companies[2].CreatedAt.Month())
}
