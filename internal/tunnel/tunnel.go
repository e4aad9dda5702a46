package tunnel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

// ErrNoToken is returned when no ngrok token is configured. Callers skip
// public exposure and keep serving on the local listener.
var ErrNoToken = errors.New("tunnel: ngrok token is not set")

// Open starts an ngrok HTTP tunnel authenticated with the given token and
// returns it. The tunnel is a net.Listener; its URL is the public forwarding
// address.
func Open(ctx context.Context, token string) (ngrok.Tunnel, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}

	tun, err := ngrok.Listen(ctx, config.HTTPEndpoint(), ngrok.WithAuthtoken(token))
	if err != nil {
		return nil, fmt.Errorf("tunnel: open ngrok tunnel: %w", err)
	}
	return tun, nil
}
