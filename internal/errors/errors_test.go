package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"session with cause", NewSessionError("start chrome", cause), "session error: start chrome: boom"},
		{"session without cause", NewSessionError("portal closed", nil), "session error: portal closed"},
		{"store", NewStoreError("read rows", cause), "store error: read rows: boom"},
		{"outlet", NewOutletError("19595894", "select outlet", cause), "outlet 19595894: select outlet: boom"},
		{"complaint", NewComplaintError("19595894", 3, "open detail", cause), "complaint 19595894#3: open detail: boom"},
		{"interpret", NewInterpretError("decode reply", cause), "interpret error: decode reply: boom"},
		{"write with id", NewWriteError("123", cause), "write error: complaint 123: boom"},
		{"write without id", NewWriteError("", cause), "write error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")

	assert.ErrorIs(t, NewSessionError("x", cause), cause)
	assert.ErrorIs(t, NewStoreError("x", cause), cause)
	assert.ErrorIs(t, NewOutletError("o", "x", cause), cause)
	assert.ErrorIs(t, NewComplaintError("o", 0, "x", cause), cause)
	assert.ErrorIs(t, NewInterpretError("x", cause), cause)
	assert.ErrorIs(t, NewWriteError("", cause), cause)
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", NewStoreError("preload", nil))
	assert.True(t, IsStore(wrapped))
	assert.False(t, IsSession(wrapped))

	erisWrapped := eris.Wrap(NewInterpretError("empty reply", nil), "complaint 2")
	assert.True(t, IsInterpret(erisWrapped))

	assert.True(t, IsOutlet(NewOutletError("o", "list", nil)))
	assert.True(t, IsComplaint(NewComplaintError("o", 1, "read", nil)))
	assert.True(t, IsWrite(NewWriteError("1", stderrors.New("quota"))))
	assert.False(t, IsWrite(nil))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"session", NewSessionError("chrome", nil), true},
		{"store", NewStoreError("open", nil), true},
		{"wrapped store", fmt.Errorf("preload: %w", NewStoreError("read", nil)), true},
		{"outlet", NewOutletError("o", "select", nil), false},
		{"complaint", NewComplaintError("o", 0, "open", nil), false},
		{"interpret", NewInterpretError("decode", nil), false},
		{"write", NewWriteError("1", stderrors.New("x")), false},
		{"plain", stderrors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}
