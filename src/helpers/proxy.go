package helpers

import (
	"fmt"
	"net"
	"time"
)

// -----------------------------------------------------------------------------
// Local proxy auto-detection
// -----------------------------------------------------------------------------

// CommonProxyPorts are the local proxy ports probed at bootstrap, in order.
var CommonProxyPorts = []int{7899, 7897, 7890, 1080, 10808}

// -----------------------------------------------------------------------------

// CheckProxyAvailable reports whether a TCP listener accepts connections
// on host:port within the timeout.
func CheckProxyAvailable(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// -----------------------------------------------------------------------------

// DetectLocalProxy probes the common local proxy ports and returns the proxy
// URL of the first one that accepts a connection.
func DetectLocalProxy() (string, bool) {
	for _, port := range CommonProxyPorts {
		if CheckProxyAvailable("127.0.0.1", port, time.Second) {
			return fmt.Sprintf("http://127.0.0.1:%d", port), true
		}
	}
	return "", false
}
