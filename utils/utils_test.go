package utils

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUtils_MinMaxAbs(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(2, Min(2, 5))
	assert.Equal(2, Min(5, 2))
	assert.Equal(5, Max(2, 5))
	assert.Equal(5, Max(5, 2))
	assert.Equal(3, Abs(-3))
	assert.Equal(0.5, Abs(-0.5))
}

func TestUtils_HexToRGBA(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(color.RGBA{R: 0xff, A: 0xff}, HexToRGBA("#ff0000"))
	assert.Equal(color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}, HexToRGBA("123456"))
	assert.Equal(color.RGBA{G: 0xff, A: 0xff}, HexToRGBA("#0f0"))
	assert.Equal(color.RGBA{A: 0xff}, HexToRGBA("#zzzzzz"))
	assert.Equal(color.RGBA{A: 0xff}, HexToRGBA("#12"))
}

func TestUtils_Contains(t *testing.T) {
	assert.True(t, Contains([]string{".jpg", ".png"}, ".png"))
	assert.False(t, Contains([]string{".jpg", ".png"}, ".gif"))
	assert.False(t, Contains(nil, 1))
}

func TestUtils_DecorateText(t *testing.T) {
	s := DecorateText("done", SuccessMessage)
	assert.True(t, strings.HasPrefix(s, SuccessColor))
	assert.True(t, strings.HasSuffix(s, DefaultColor))
	assert.Equal(t, "plain", DecorateText("plain", MessageType(42)))

	assert.Equal(t, ErrorColor+"failed"+DefaultColor, DecorateText("failed", ErrorMessage))
	assert.Equal(t, StatusColor+"busy"+DefaultColor, DecorateText("busy", StatusMessage))
	assert.Equal(t, DefaultColor+"note"+DefaultColor, DecorateText("note", DefaultMessage))
}

func TestUtils_FormatTime(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal("2m 5.00s", FormatTime(2*time.Minute+5*time.Second))
	assert.Equal("1h 1m 1.00s", FormatTime(time.Hour+time.Minute+time.Second))
	assert.Equal("1d 2h 0m 0.00s", FormatTime(26*time.Hour))
	assert.Equal("59m 59.00s", FormatTime(time.Hour-time.Second))
}

func TestUtils_SpinnerStartStop(t *testing.T) {
	var out strings.Builder
	s := NewSpinner("working", time.Millisecond, false)
	s.SetWriter(&out)
	s.StopMsg = "finished"

	s.Start()
	time.Sleep(5 * time.Millisecond)
	s.Stop()
	// A second Stop must not block or panic.
	s.Stop()

	assert.True(t, strings.HasSuffix(out.String(), "finished"))
}
