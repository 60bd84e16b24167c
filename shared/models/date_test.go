package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "plain_date", input: "2025-08-25", want: NewDate(2025, time.August, 25)},
		{name: "rfc3339_truncated", input: "2025-08-25T23:10:00Z", want: NewDate(2025, time.August, 25)},
		{name: "surrounding_space", input: " 2025-01-02 ", want: NewDate(2025, time.January, 2)},
		{name: "garbage", input: "25/08/2025", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, tc.want.Equal(got), "got %s", got)
		})
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)

	require.Equal(t, "2024-02-29", d.AddDays(1).String())
	require.Equal(t, "2024-03-01", d.AddDays(2).String())
	require.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	require.Equal(t, -1, d.DaysUntil(d.AddDays(-1)))
	require.True(t, d.Before(d.AddDays(1)))
	require.True(t, d.AddDays(1).After(d))
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Night Date `json:"night"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"night":"2025-08-26"}`), &v))
	require.Equal(t, "2025-08-26", v.Night.String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"night":"2025-08-26"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"night":20250826}`), &v))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "2025-08-25", d.String())

	require.NoError(t, d.Scan([]byte("2025-08-27")))
	require.Equal(t, "2025-08-27", d.String())

	require.Error(t, d.Scan(42))
}

func TestEachNight(t *testing.T) {
	var nights []string
	EachNight(NewDate(2025, 8, 30), NewDate(2025, 9, 2), func(d Date) {
		nights = append(nights, d.String())
	})
	require.Equal(t, []string{"2025-08-30", "2025-08-31", "2025-09-01"}, nights)

	called := false
	EachNight(NewDate(2025, 9, 2), NewDate(2025, 9, 2), func(Date) { called = true })
	require.False(t, called)
}
