package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *int64
	}{
		{"普通数字", "1234", int64Ptr(1234)},
		{"零", "0", int64Ptr(0)},
		{"万缩写", "1.2万", int64Ptr(12000)},
		{"整数万", "3万", int64Ptr(30000)},
		{"万前有空格", "2.5 万", int64Ptr(25000)},
		{"空串", "", nil},
		{"纯空白", "   ", nil},
		{"畸形文本", "很多", nil},
		{"负数", "-5", nil},
		{"亿不支持", "1.2亿", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCount(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseCountValue(t *testing.T) {
	got := ParseCountValue(float64(42))
	require.NotNil(t, got)
	assert.Equal(t, int64(42), *got)

	got = ParseCountValue("1.2万")
	require.NotNil(t, got)
	assert.Equal(t, int64(12000), *got)

	assert.Nil(t, ParseCountValue(nil))
	assert.Nil(t, ParseCountValue(float64(-1)))
	assert.Nil(t, ParseCountValue([]interface{}{}))
}

func int64Ptr(v int64) *int64 {
	return &v
}
