package errs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	err := New(KindNotAvailable, "no captions")
	assert.Equal(t, KindNotAvailable, GetKind(err))
	assert.True(t, Is(err, KindNotAvailable))
	assert.False(t, Is(err, KindTimeout))
}

func TestKind_Wrapped(t *testing.T) {
	err := Wrap(errors.New("olia"), KindAccessDenied, "source blocked")
	assert.Equal(t, KindAccessDenied, GetKind(err))
	assert.Equal(t, "source blocked: olia", err.Error())
}

func TestKind_Unknown(t *testing.T) {
	assert.Equal(t, KindInternal, GetKind(errors.New("olia")))
	assert.False(t, Is(nil, KindInternal))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindTimeout, "msg"))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "NOT_AVAILABLE", KindNotAvailable.Code())
	assert.Equal(t, "TIMEOUT", KindTimeout.Code())
	assert.Equal(t, "SERVICE_ERROR", KindUnknown.Code())
}

func TestErrorf(t *testing.T) {
	err := Errorf(KindInvalidRequest, "bad url '%s'", "olia")
	assert.Equal(t, "bad url 'olia'", err.Error())
	assert.Equal(t, KindInvalidRequest, GetKind(err))
}
