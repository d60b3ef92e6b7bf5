package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/AzielCF/az-citas/core/config"
)

const DefaultConnectTimeout = 5 * time.Second

// Client envuelve valkey-go y aplica el prefijo de claves de la aplicación.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient abre la conexión y hace un PING antes de devolverla.
// El llamador debe cerrar el cliente con Close.
func NewClient(cfg config.DatabaseConfig) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.ValkeyAddress},
		SelectDB:    cfg.ValkeyDB,
		Password:    cfg.ValkeyPassword,
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
	defer cancel()
	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey at %s: %w", cfg.ValkeyAddress, err)
	}

	prefix := cfg.ValkeyKeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &Client{inner: inner, keyPrefix: prefix}, nil
}

func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts under the prefix: Key("processed", "wamid.X") -> "azcitas:processed:wamid.X".
func (c *Client) Key(parts ...string) string {
	return c.keyPrefix + strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsNil reports a valkey NIL reply.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
