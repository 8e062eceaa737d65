package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowList(t *testing.T) {
	list := NewAllowList([]string{" 42 ", "", "7"})
	require.True(t, list.IsAuthorized("42"))
	require.True(t, list.IsAuthorized("7"))
	require.False(t, list.IsAuthorized("8"))
	require.False(t, list.IsAuthorized(""))

	var empty *AllowList
	require.False(t, empty.IsAuthorized("42"))
}
