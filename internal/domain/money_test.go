package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("89.99")
	b := MustMoney("64.99")

	assert.Equal(t, "154.98", a.Add(b).String())
	assert.Equal(t, "269.97", a.Mul(3).String())
	assert.Equal(t, "0.00", Zero.String())
	assert.True(t, Zero.IsZero())
	assert.True(t, MustMoney("-1").IsNegative())
}

func TestMoney_RoundsToCents(t *testing.T) {
	assert.Equal(t, "10.13", MustMoney("10.125").String())
	assert.True(t, MustMoney("12.50").Equal(MustMoney("12.5")))
}

func TestParseMoney_Invalid(t *testing.T) {
	_, err := ParseMoney("twelve")
	assert.Error(t, err)
}

func TestMoney_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{MustMoney("25")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":25.00}`, string(out))

	tests := []struct {
		in   string
		want string
	}{
		{`89.99`, "89.99"},
		{`"64.99"`, "64.99"},
		{`12.5`, "12.50"},
		{`null`, "0.00"},
	}
	for _, tt := range tests {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(tt.in), &m), tt.in)
		assert.Equal(t, tt.want, m.String())
	}

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}
