package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWipeByteArray(t *testing.T) {
	buf := []byte("Password1")
	WipeByteArray(buf)
	for i, v := range buf {
		require.Zerof(t, v, "buf[%d] not wiped", i)
	}
}

func TestWipeByteArray_NilAndEmpty(t *testing.T) {
	require.NotPanics(t, func() { WipeByteArray(nil) })
	require.NotPanics(t, func() { WipeByteArray([]byte{}) })
}
