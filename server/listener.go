package server

import (
	"net"
	"time"
)

// tcpKeepAliveListener mirrors the keep-alive behavior of
// http.Server.ListenAndServe for the explicitly-created listeners the
// shutdown path needs.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln *tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}

	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
