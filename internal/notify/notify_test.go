package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMessengerSendToUser(t *testing.T) {
	var m Messenger = LogMessenger{}

	assert.NoError(t, m.SendToUser(123, "alice", "Hello! You won a code: ASDF-1234"))
}

func TestIDLookupFetchUser(t *testing.T) {
	var u UserLookup = IDLookup{}

	name, err := u.FetchUser(100000000000000001)
	require.NoError(t, err)
	assert.Equal(t, "100000000000000001", name)
}
