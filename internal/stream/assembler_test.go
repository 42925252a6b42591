package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feedAll(a *Assembler, raw string, chunkSize int) {
	for len(raw) > 0 {
		n := chunkSize
		if n > len(raw) {
			n = len(raw)
		}
		a.Feed([]byte(raw[:n]))
		raw = raw[n:]
	}
}

func TestAssembler_ChunkingInvariance(t *testing.T) {
	raw := "data: {\"message\":\"Hello \"}\n" +
		"data: {\"message\":\"there, how can I \"}\n" +
		"data: {\"message\":\"help?\"}\n" +
		"data: {\"message\":\"Hello there, how can I help?\",\"is_final\":true}\n"

	var contents []string
	for _, size := range []int{1, 3, 7, 64, len(raw)} {
		a := NewAssembler()
		feedAll(a, raw, size)
		msg := a.Finish()
		require.True(t, msg.Final, "chunk size %d", size)
		contents = append(contents, msg.Content)
	}
	for _, c := range contents {
		require.Equal(t, "Hello there, how can I help?", c)
	}
}

func TestAssembler_FinalFramePrecedence(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("data: {\"message\":\"A\"}\n"))
	a.Feed([]byte("data: {\"message\":\"B\"}\n"))
	a.Feed([]byte("data: {\"message\":\"C\"}\n"))
	a.Feed([]byte("data: {\"message\":\"X\",\"is_final\":true}\n"))

	msg := a.Finish()
	require.True(t, msg.Final)
	require.Equal(t, "X", msg.Content)
}

func TestAssembler_FinalFrameWithoutMessage(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("data: {\"message\":\"partial \"}\n"))
	a.Feed([]byte("data: {\"message\":\"text\"}\n"))
	a.Feed([]byte("data: {\"is_final\":true}\n"))

	msg := a.Finish()
	require.True(t, msg.Final)
	require.Equal(t, "partial text", msg.Content)
}

func TestAssembler_NoTerminalFrame(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("data: {\"message\":\"stream cut \"}\n"))
	a.Feed([]byte("data: {\"message\":\"short\"}\n"))

	msg := a.Finish()
	require.False(t, msg.Final)
	require.Equal(t, "stream cut short", msg.Content)
}

func TestAssembler_DoneMarker(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("data: {\"message\":\"all of it\"}\n"))
	a.Feed([]byte("data: [DONE]\n"))

	msg := a.Finish()
	require.True(t, msg.Final)
	require.Equal(t, "all of it", msg.Content)
}

func TestAssembler_TrailingLineWithoutNewline(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("data: {\"message\":\"done\",\"is_final\":true}"))

	msg := a.Finish()
	require.True(t, msg.Final)
	require.Equal(t, "done", msg.Content)
}

func TestAssembler_IgnoresNonFrameLines(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("event: message\n"))
	a.Feed([]byte(": keepalive\n"))
	a.Feed([]byte("data: {\"message\":\"real\",\"is_final\":true}\n"))

	require.Equal(t, "real", a.Finish().Content)
}

func TestAssembler_MalformedFrameSkipped(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("data: {not json at all\n"))
	a.Feed([]byte("data: {\"message\":\"still fine\",\"is_final\":true}\n"))

	msg := a.Finish()
	require.True(t, msg.Final)
	require.Equal(t, "still fine", msg.Content)
}

func TestAssembler_CollectsMetadata(t *testing.T) {
	a := NewAssembler()
	a.Feed([]byte("data: {\"message\":\"hi\",\"chat_thread_id\":\"thread-9\"}\n"))
	a.Feed([]byte("data: {\"is_final\":true,\"suggestions\":[\"tell me more\"],\"citations\":[{\"title\":\"FAQ\",\"url\":\"https://example.com/faq\"}]}\n"))

	msg := a.Finish()
	require.NotNil(t, msg.Metadata)
	require.Equal(t, "thread-9", msg.Metadata.ThreadID)
	require.Equal(t, []string{"tell me more"}, msg.Metadata.Suggestions)
	require.Equal(t, "FAQ", msg.Metadata.Citations[0].Title)
	require.Equal(t, "thread-9", a.ThreadID())
}

func TestDecodeFrame_FieldAliases(t *testing.T) {
	snake, err := DecodeFrame([]byte(`{"message":"m","is_final":true,"chat_thread_id":"t1"}`))
	require.NoError(t, err)

	camel, err := DecodeFrame([]byte(`{"message":"m","isFinal":true,"chatThreadId":"t1"}`))
	require.NoError(t, err)

	require.Equal(t, snake, camel)
	require.True(t, camel.IsFinal)
	require.Equal(t, "t1", camel.ChatThreadID)
}
