package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsAndMessages(t *testing.T) {
	cases := []struct {
		err  DelegateError
		kind string
		text string
	}{
		{&CyclicChainError{Msg: "n1 cannot delegate to itself"}, "CyclicChain", "cyclic chain: n1 cannot delegate to itself"},
		{&ChainTooDeepError{Msg: "exceeded 1000 hops", Cap: 1000}, "ChainTooDeep", "chain too deep: exceeded 1000 hops"},
		{&ReadOnlyPropertyError{Msg: "x is frozen", Key: "x"}, "ReadOnlyProperty", "read-only property: x is frozen"},
		{&NotConfigurableError{Msg: "x is locked", Key: "x"}, "NotConfigurable", "not configurable: x is locked"},
		{&InvalidParentError{Msg: "wrong store"}, "InvalidParent", "invalid parent: wrong store"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind())
		assert.Equal(t, tc.text, tc.err.Error())
		assert.NotEmpty(t, tc.err.Message())
	}
}

func TestCauseChaining(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := (&ChainTooDeepError{Msg: "walk aborted"}).CausedBy(cause)
	require.ErrorIs(t, err, cause)

	var ctd *ChainTooDeepError
	require.True(t, stderrors.As(error(err), &ctd))
	assert.Equal(t, "walk aborted", ctd.Message())
}
