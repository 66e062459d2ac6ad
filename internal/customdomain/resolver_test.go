package customdomain

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDNS runs a local authoritative server for the test zone
func startDNS(t *testing.T) string {
	t.Helper()

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		switch {
		case q.Qtype == dns.TypeTXT && q.Name == "_sitebuilder-verify.casanova.com.br.":
			m.Answer = append(m.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 60},
				Txt: []string{"abc", "123"},
			})
		case q.Qtype == dns.TypeCNAME && q.Name == "www.casanova.com.br.":
			m.Answer = append(m.Answer, &dns.CNAME{
				Hdr:    dns.RR_Header{Name: q.Name, Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: 60},
				Target: "Sites.SiteBuilder.app.",
			})
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = server.ActivateAndServe() }()
	t.Cleanup(func() { _ = server.Shutdown() })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String()
}

func TestDNSResolver(t *testing.T) {
	addr := startDNS(t)
	r := NewDNSResolver([]string{addr}, time.Second)
	ctx := context.Background()

	txt, err := r.LookupTXT(ctx, "_sitebuilder-verify.casanova.com.br")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, txt)

	cname, err := r.LookupCNAME(ctx, "www.casanova.com.br")
	require.NoError(t, err)
	assert.Equal(t, "sites.sitebuilder.app", cname)

	_, err = r.LookupTXT(ctx, "missing.casanova.com.br")
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestDNSResolver_NoServers(t *testing.T) {
	_, err := NewDNSResolver(nil, 0).LookupTXT(context.Background(), "casanova.com.br")
	assert.Error(t, err)
}
