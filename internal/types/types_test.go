package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Point
		wantErr bool
	}{
		{"origin", Point{0, 0}, false},
		{"corners", Point{90, 180}, false},
		{"negative corners", Point{-90, -180}, false},
		{"lat too high", Point{90.0001, 0}, true},
		{"lat too low", Point{-91, 0}, true},
		{"lng too high", Point{0, 180.5}, true},
		{"lng too low", Point{0, -200}, true},
		{"nan lat", Point{math.NaN(), 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
