package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	const size = 100
	tests := []struct {
		header      string
		want        byteRange
		ok          bool
		satisfiable bool
	}{
		{"bytes=0-9", byteRange{0, 10}, true, true},
		{"bytes=50-", byteRange{50, 50}, true, true},
		{"bytes=-10", byteRange{90, 10}, true, true},
		{"bytes=-500", byteRange{0, 100}, true, true},
		{"bytes=90-500", byteRange{90, 10}, true, true},
		{"bytes=99-99", byteRange{99, 1}, true, true},
		{"bytes=100-", byteRange{}, true, false},
		{"bytes=-0", byteRange{}, true, false},
		{"bytes=9-3", byteRange{}, false, true},
		{"bytes=a-b", byteRange{}, false, true},
		{"bytes=0-1,3-4", byteRange{}, false, true},
		{"bytes=5", byteRange{}, false, true},
		{"lines=0-1", byteRange{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok, satisfiable := parseRange(tt.header, size)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.satisfiable, satisfiable)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentRange(t *testing.T) {
	assert.Equal(t, "bytes 10-19/100", byteRange{10, 10}.contentRange(100))
}
