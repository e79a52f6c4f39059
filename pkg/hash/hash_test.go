/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashes(t *testing.T) {
	msg1 := []byte("message1")
	msg2 := []byte("message2")

	for name, h := range map[string]Hash{
		"SHA256":   SHA256,
		"SHA384":   SHA384,
		"SHA3_256": SHA3_256,
		"SHA3_384": SHA3_384,
	} {
		h := h

		t.Run(name, func(t *testing.T) {
			d1 := h(msg1)
			require.NotEmpty(t, d1)
			require.Equal(t, d1, h([]byte("message1")))
			require.NotEqual(t, d1, h(msg2))
		})
	}
}

func TestKnownDigests(t *testing.T) {
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(SHA256(nil)))
	require.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", hex.EncodeToString(SHA3_256(nil)))
	require.Len(t, SHA384(nil), 48)
	require.Len(t, SHA3_384(nil), 48)
}

func TestNONE(t *testing.T) {
	msg := []byte("message")
	require.Equal(t, msg, NONE(msg))
}

func TestByName(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		for _, name := range []string{"SHA256", "sha384", "SHA3_256", "sha3_384", "NONE"} {
			h, err := ByName(name)
			require.NoError(t, err)
			require.NotNil(t, h)
		}

		h, err := ByName("SHA256")
		require.NoError(t, err)
		require.Equal(t, SHA256([]byte("x")), h([]byte("x")))
	})

	t.Run("unknown -> error", func(t *testing.T) {
		h, err := ByName("MD5")
		require.EqualError(t, err, "unsupported hash algorithm [MD5]")
		require.Nil(t, h)
	})
}
