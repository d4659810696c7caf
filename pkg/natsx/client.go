package natsx

import (
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// ClientName identifies bridge connections on the server.
const ClientName = "stdinbridge"

// NewClient connects to the NATS server at url, falling back to the NATS_URL
// environment variable and then to nats.DefaultURL. Without options the
// connection is named after the bridge, compressed and gives up after a short
// connect timeout.
//
// Parameters:
//   - url: The server URL. Empty means NATS_URL, then nats.DefaultURL.
//   - opts: Connection options. When none are given, ClientName, compression
//     and a two second connect timeout are used.
//
// Returns:
//   - *nats.Conn: A pointer to the established NATS connection.
//   - error: An error if the connection could not be established.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		url = os.Getenv("NATS_URL")
	}
	if url == "" {
		url = nats.DefaultURL
	}
	if len(opts) == 0 {
		opts = append(opts, nats.Name(ClientName), nats.Compression(true), nats.Timeout(2*time.Second))
	}
	return nats.Connect(url, opts...)
}
