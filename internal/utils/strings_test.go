package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      string
		expected []string
	}{
		{name: "empty string", input: "", sep: ",", expected: nil},
		{name: "only spaces", input: "   ", sep: ",", expected: nil},
		{name: "separators only", input: ",,", sep: ",", expected: nil},
		{name: "single value", input: "sina", sep: ",", expected: []string{"sina"}},
		{name: "trims around values", input: " sina , eastmoney ", sep: ",", expected: []string{"sina", "eastmoney"}},
		{name: "drops blanks", input: "5,,20,", sep: ",", expected: []string{"5", "20"}},
		{name: "keeps inner spaces", input: "Long Call, Bull Put Spread", sep: ",", expected: []string{"Long Call", "Bull Put Spread"}},
		{name: "other separator", input: "ma;rsi; macd", sep: ";", expected: []string{"ma", "rsi", "macd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input, tt.sep))
		})
	}
}
