package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

func encode(t *testing.T, msg msgs.SerializableMessage) []byte {
	typed, err := msgs.TypedFrom(msg)
	require.NoError(t, err)
	data, err := typed.Encode()
	require.NoError(t, err)
	return data
}

func TestDescribe(t *testing.T) {
	line, ok := describe("pulseox/dev1/meta", []byte(`{"description":"Pulse oximeter"}`))
	require.True(t, ok)
	assert.Equal(t, "online dev1: Pulse oximeter", line)
	line, ok = describe("pulseox/dev1/meta", nil)
	require.True(t, ok)
	assert.Equal(t, "dev1 offline", line)
	line, ok = describe("pulseox/dev1/meta", []byte("{"))
	require.True(t, ok)
	assert.Contains(t, line, "bad meta")

	line, ok = describe("pulseox/dev1/msg", encode(t, &msgs.Beat{Count: 4}))
	require.True(t, ok)
	assert.Contains(t, line, "dev1: ")
	assert.Contains(t, line, "beat #4")

	_, ok = describe("pulseox/dev1/cmd", encode(t, &msgs.StatusQuery{}))
	assert.False(t, ok)
	showCmds = true
	defer func() { showCmds = false }()
	line, ok = describe("pulseox/dev1/msg", encode(t, msgs.NewCommandOK()))
	require.True(t, ok)
	assert.Equal(t, "dev1: -> OK", line)

	_, ok = describe("robot/dev1/msg", encode(t, &msgs.Beat{}))
	assert.False(t, ok)
	line, ok = describe("pulseox/dev1/msg", []byte{0xff})
	require.True(t, ok)
	assert.Contains(t, line, "bad message")
}
