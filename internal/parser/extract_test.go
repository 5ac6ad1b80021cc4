package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/mpcdata/internal/models"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    time.Time
		wantErr bool
	}{
		{name: "valid date", text: "01/30/19", want: time.Date(2019, 1, 30, 0, 0, 0, 0, time.UTC)},
		{name: "surrounding spaces", text: " 12/01/21 ", want: time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)},
		{name: "four digit year", text: "01/30/2019", wantErr: true},
		{name: "month out of range", text: "13/01/19", wantErr: true},
		{name: "dashes", text: "01-30-19", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedDate))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    models.TimeOfDay
		wantErr bool
	}{
		{name: "one digit hour", text: "9:15:11", want: models.NewTimeOfDay(9, 15, 11)},
		{name: "two digit hour", text: "13:05:00", want: models.NewTimeOfDay(13, 5, 0)},
		{name: "leading space", text: " 9:05:03", want: models.NewTimeOfDay(9, 5, 3)},
		{name: "single digit minute", text: "9:5:03", wantErr: true},
		{name: "hour out of range", text: "24:00:00", wantErr: true},
		{name: "second out of range", text: "10:00:60", wantErr: true},
		{name: "missing seconds", text: "10:00", wantErr: true},
		{name: "text", text: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedTime))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		text    string
		want    float64
		wantErr bool
	}{
		{text: "12.50", want: 12.5},
		{text: "0.000", want: 0},
		{text: "3.", want: 3},
		{text: "-1.25", want: -1.25},
		{text: "3", wantErr: true},
		{text: "12", wantErr: true},
		{text: "1.5e3", wantErr: true},
		{text: "-1e3", wantErr: true},
		{text: "+1.0", wantErr: true},
		{text: ".5", wantErr: true},
		{text: "abc", wantErr: true},
		{text: "NaN", wantErr: true},
		{text: "Inf", wantErr: true},
		{text: "0x1p3", wantErr: true},
		{text: "1.0 2.0", wantErr: true},
		{text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseScalar(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedScalar))
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBox(t *testing.T) {
	box, err := ParseBox("3", BoxNumeric)
	require.NoError(t, err)
	assert.True(t, box.Numeric)
	assert.Equal(t, 3, box.Number)

	box, err = ParseBox("Box A", BoxText)
	require.NoError(t, err)
	assert.False(t, box.Numeric)
	assert.Equal(t, "Box A", box.String())

	_, err = ParseBox("Box A", BoxNumeric)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedBox))
}

func TestHeaderRoundTrip(t *testing.T) {
	dates := []string{"01/30/19", "12/31/99", "02/29/20", "07/04/00"}
	for _, text := range dates {
		d, err := ParseDate(text)
		require.NoError(t, err)
		assert.Equal(t, text, FormatDate(d))
	}

	times := []string{"9:15:11", "0:00:00", "23:59:59", "10:05:09"}
	for _, text := range times {
		tod, err := ParseTime(text)
		require.NoError(t, err)
		assert.Equal(t, text, tod.String())
	}
}
