package alerts_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/alerts"
)

func TestNewEmailNotifier_SecureModes(t *testing.T) {
	for _, mode := range []string{"", "tls", "SSL", "none"} {
		n, err := alerts.NewEmailNotifier(alerts.EmailConfig{Host: "smtp.example.com", Secure: mode})
		require.NoError(t, err, mode)
		assert.Equal(t, "email", n.Name())
	}

	_, err := alerts.NewEmailNotifier(alerts.EmailConfig{Host: "smtp.example.com", Secure: "starttls-please"})
	assert.Error(t, err)
}

func TestEmailNotifier_Send_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	n, err := alerts.NewEmailNotifier(alerts.EmailConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "alerts@example.com",
		Password: "pw",
		Secure:   "none",
		To:       "ops@example.com",
	})
	require.NoError(t, err)

	err = n.Send(context.Background(), alerts.Message{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email send")
}

func TestEmailNotifier_Send_BadRecipient(t *testing.T) {
	n, err := alerts.NewEmailNotifier(alerts.EmailConfig{Host: "127.0.0.1", Username: "alerts@example.com", To: "not an address"})
	require.NoError(t, err)
	err = n.Send(context.Background(), alerts.Message{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email to")
}

func TestHTMLBody(t *testing.T) {
	assert.Equal(t, "服务器: a&lt;b&gt;<br />\n使用百分比: 96%<br />\n", alerts.HTMLBody("服务器: a<b>\n使用百分比: 96%\n"))
}

// smtpServer is a minimal plaintext SMTP responder that records commands.
type smtpServer struct {
	addr *net.TCPAddr

	mu       sync.Mutex
	commands []string
	data     string
}

func newSMTPServer(t *testing.T) *smtpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := &smtpServer{addr: ln.Addr().(*net.TCPAddr)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	return s
}

func (s *smtpServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { fmt.Fprintf(conn, "%s\r\n", line) }

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()

		verb := strings.ToUpper(strings.SplitN(cmd, " ", 2)[0])
		switch verb {
		case "EHLO":
			reply("250-localhost")
			reply("250 AUTH PLAIN LOGIN")
		case "AUTH":
			reply("235 2.7.0 Authentication successful")
		case "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			s.mu.Lock()
			s.data = body.String()
			s.mu.Unlock()
			reply("250 OK queued")
		case "QUIT":
			reply("221 Bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func (s *smtpServer) sawVerb(verb string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if strings.HasPrefix(strings.ToUpper(c), verb) {
			return true
		}
	}
	return false
}

func (s *smtpServer) mailFrom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if strings.HasPrefix(strings.ToUpper(c), "MAIL FROM:") {
			return c
		}
	}
	return ""
}

func TestEmailNotifier_Send_NoAuthWithoutCredentials(t *testing.T) {
	srv := newSMTPServer(t)

	n, err := alerts.NewEmailNotifier(alerts.EmailConfig{
		Host:   "127.0.0.1",
		Port:   srv.addr.Port,
		Secure: alerts.SecureNone,
		To:     "ops@example.com",
		From:   "cdt@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), alerts.Message{Title: "CDT流量统计", Body: "使用百分比: 96%"}))
	assert.False(t, srv.sawVerb("AUTH"))
	assert.Contains(t, srv.mailFrom(), "<cdt@example.com>")
	assert.NotEmpty(t, srv.data)
}

func TestEmailNotifier_Send_PlainAuthWithCredentials(t *testing.T) {
	srv := newSMTPServer(t)

	n, err := alerts.NewEmailNotifier(alerts.EmailConfig{
		Host:     "127.0.0.1",
		Port:     srv.addr.Port,
		Username: "alerts@example.com",
		Password: "pw",
		Secure:   alerts.SecureNone,
		To:       "ops@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), alerts.Message{Title: "t", Body: "b"}))
	assert.True(t, srv.sawVerb("AUTH PLAIN"))
	assert.Contains(t, srv.mailFrom(), "<alerts@example.com>")
}
