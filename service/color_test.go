package service

import (
	"image/color"
	"testing"

	"github.com/TIANLI0/MoldeKit/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"", color.NRGBA{A: 255}},
		{"#000", color.NRGBA{A: 255}},
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#FF8000", color.NRGBA{R: 255, G: 128, B: 0, A: 255}},
		{"#ff000080", color.NRGBA{R: 255, A: 128}},
		{"#0f08", color.NRGBA{G: 255, A: 136}},
		{"rgb(10, 20, 30)", color.NRGBA{R: 10, G: 20, B: 30, A: 255}},
		{"rgba(10,20,30,0.5)", color.NRGBA{R: 10, G: 20, B: 30, A: 128}},
		{"rgb(100%, 0%, 50%)", color.NRGBA{R: 255, G: 0, B: 128, A: 255}},
		{"rgb(300, -5, 0)", color.NRGBA{R: 255, A: 255}},
		{"rgb(1 2 3 / 50%)", color.NRGBA{R: 1, G: 2, B: 3, A: 128}},
		{"  Navy ", color.NRGBA{B: 128, A: 255}},
		{"transparent", color.NRGBA{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"#12", "#gggggg", "rgb(1,2)", "rgb(a,b,c)", "hsl(0,0%,0%)", "notacolor", "rgba(1,2,3,4,5)"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseColor(in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}
