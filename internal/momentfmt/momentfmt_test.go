package momentfmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2023, 6, 2, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		layout string
		want   string
	}{
		{"YYYY-MM-DD", "2023-06-02"},
		{"YYYY/MM/[{description}]", "2023/06/{description}"},
		{"dddd, MMMM Do YYYY", "Friday, June 2nd 2023"},
		{"ddd D MMM YY", "Fri 2 Jun 23"},
		{"HH:mm:ss", "15:04:05"},
		{"h:mm a", "3:04 pm"},
		{"[YYYY] YYYY", "YYYY 2023"},
		{"DDDD", "153"},
		{"[xyz", "[xyz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(ts, tt.layout), tt.layout)
	}
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "1st", ordinal(1))
	assert.Equal(t, "11th", ordinal(11))
	assert.Equal(t, "12th", ordinal(12))
	assert.Equal(t, "13th", ordinal(13))
	assert.Equal(t, "22nd", ordinal(22))
	assert.Equal(t, "23rd", ordinal(23))
}
