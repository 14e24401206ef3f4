package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.Equal(t, ErrorKind(""), KindOf(nil))

	se := &ServiceError{Kind: KindRateLimited}
	assert.Same(t, se, Classify(fmt.Errorf("wrapped: %w", se)))

	assert.Equal(t, KindConnection, KindOf(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.Equal(t, KindConnection, KindOf(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(fmt.Errorf("x: %w", context.Canceled)))
}

func TestServiceError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := error(&ServiceError{Kind: KindUnknown, Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cause")
	assert.Equal(t, "provider_error: nope", (&ServiceError{Kind: KindProvider, Message: "nope"}).Error())
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(&ServiceError{Kind: KindAuth}), "API key")
	assert.Contains(t, UserMessage(&ServiceError{Kind: KindRateLimited}), "try again later")
	assert.Contains(t, UserMessage(&ServiceError{Kind: KindConnection}), "connection")
	assert.Contains(t, UserMessage(&ServiceError{Kind: KindProvider, Message: "model overloaded"}), "model overloaded")
	assert.Contains(t, UserMessage(errors.New("weird")), "weird")
}
