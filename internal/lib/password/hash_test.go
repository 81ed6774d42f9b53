package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

func TestSHA512Hex_KnownVectors(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{
			name:     "empty string",
			password: "",
			want: "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce" +
				"47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		},
		{
			name:     "abc",
			password: "abc",
			want: "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a" +
				"2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SHA512Hex(tt.password)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 128)
		})
	}
}

func TestSHA512_Deterministic(t *testing.T) {
	h := SHA512{}

	first, err := h.GetHash("totoro")
	require.NoError(t, err)
	second, err := h.GetHash("totoro")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := h.GetHash("Totoro")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestHashers_CompareHash(t *testing.T) {
	hashers := map[string]Hasher{
		"sha512": SHA512{},
		"bcrypt": Bcrypt{Cost: 4},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.GetHash("correct_password")
			require.NoError(t, err)

			assert.NoError(t, h.CompareHash(hash, "correct_password"))

			err = h.CompareHash(hash, "wrong_password")
			assert.ErrorIs(t, err, models.ErrInvalidCredentials)

			err = h.CompareHash(hash, "")
			assert.ErrorIs(t, err, models.ErrInvalidCredentials)

			err = h.CompareHash("", "correct_password")
			assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		})
	}
}

func TestNew(t *testing.T) {
	h, err := New(AlgorithmSHA512)
	require.NoError(t, err)
	assert.IsType(t, SHA512{}, h)

	h, err = New(AlgorithmBcrypt)
	require.NoError(t, err)
	assert.IsType(t, Bcrypt{}, h)

	_, err = New("md5")
	assert.Error(t, err)
}
