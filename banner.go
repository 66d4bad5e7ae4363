package portwatch

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Upper bound on how much of a greeting we keep
const bannerCap = 1024

// Some services only talk after the client does. This table maps
// well-known ports to a minimal nudge payload; ports not listed get a
// plain read. Extending the table never touches the probe control flow.
var nudges = map[uint16]string{
	25:   "HELO portwatch\r\n",
	80:   "HEAD / HTTP/1.0\r\n\r\n",
	443:  "HEAD / HTTP/1.0\r\n\r\n",
	587:  "HELO portwatch\r\n",
	3000: "HEAD / HTTP/1.0\r\n\r\n",
	8000: "HEAD / HTTP/1.0\r\n\r\n",
	8080: "HEAD / HTTP/1.0\r\n\r\n",
	8888: "HEAD / HTTP/1.0\r\n\r\n",
}

// BannerProbe captures the short identification string a service may send
// on connect. Every failure mode is silent: a missing banner is a normal
// outcome, never a scan failure.
type BannerProbe struct {
	timeout time.Duration
	dial    DialFunc
}

func NewBannerProbe(timeout time.Duration) *BannerProbe {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	d := net.Dialer{Timeout: timeout}
	return &BannerProbe{timeout: timeout, dial: d.DialContext}
}

// Grab connects to an open port, optionally nudges the service, and reads
// whatever arrives before the deadline. Non-printable bytes are stripped
// before the banner is stored.
func (b *BannerProbe) Grab(ctx context.Context, addr string, port uint16) string {
	dialCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	hostport := net.JoinHostPort(addr, strconv.Itoa(int(port)))
	conn, err := b.dial(dialCtx, "tcp", hostport)
	if err != nil {
		log.Debug().Uint16("port", port).Err(err).Msg("banner probe dial failed")
		return ""
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(b.timeout))

	if nudge, ok := nudges[port]; ok {
		if _, err := conn.Write([]byte(nudge)); err != nil {
			return ""
		}
	}

	buf := make([]byte, bannerCap)
	n, _ := conn.Read(buf)
	if n == 0 {
		return ""
	}
	return sanitizeBanner(buf[:n])
}

// Keeps printable ASCII, collapses newlines and tabs into spaces, drops
// the rest. Control sequences from hostile services must never reach the
// terminal or the export file.
func sanitizeBanner(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, c := range raw {
		switch {
		case c == '\r':
			// skip
		case c == '\n' || c == '\t':
			sb.WriteByte(' ')
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}
