package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAmount(t *testing.T) {
	tests := []struct {
		name    string
		value   int64
		want    Amount
		wantErr bool
	}{
		{name: "zero", value: 0, want: 0, wantErr: false},
		{name: "positive", value: 42, want: 42, wantErr: false},
		{name: "large", value: 1 << 40, want: 1 << 40, wantErr: false},
		{name: "negative", value: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAmount(tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNegativeAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestAmount_Neg(t *testing.T) {
	assert.Equal(t, Amount(-30), Amount(30).Neg())
	assert.Equal(t, int64(-30), Amount(30).Neg().Int64())
}
