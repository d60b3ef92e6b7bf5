package valkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	valkeylib "github.com/valkey-io/valkey-go"
)

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(valkeylib.Nil))
	assert.False(t, IsNil(errors.New("connection refused")))
	assert.False(t, IsNil(nil))
}

func TestClient_Key(t *testing.T) {
	c := &Client{keyPrefix: "azcitas:"}
	assert.Equal(t, "azcitas:processed:wamid.1", c.Key("processed", "wamid.1"))

	bare := &Client{}
	assert.Equal(t, "processed:wamid.1", bare.Key("processed", "wamid.1"))
}
