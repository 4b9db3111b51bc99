package ch341a

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendI2COutChunksAtStreamMax(t *testing.T) {
	payload := make([]byte, i2cMax+5)
	cmd := appendI2COut(nil, payload)
	require.Equal(t, byte(i2cOut|i2cMax), cmd[0])
	require.Equal(t, byte(i2cOut|5), cmd[1+i2cMax])
}

func TestAppendI2CInChunksAtStreamMax(t *testing.T) {
	cmd := appendI2CIn(nil, i2cMax+1)
	require.Equal(t, byte(i2cIn|i2cMax), cmd[0])
	require.Equal(t, byte(i2cIn|1), cmd[1])
}
