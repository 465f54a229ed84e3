package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{36945.4, "$36,945"},
		{36945.5, "$36,946"},
		{36944.5, "$36,944"},
		{1234567, "$1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in), "FormatCurrency(%v)", tt.in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$20,000", FormatPrice(20000))
	assert.Equal(t, "$500", FormatPrice(500))
}
