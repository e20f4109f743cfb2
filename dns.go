package main

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/miekg/dns"
)

func (s *server) runDNS(ctx context.Context, network string) error {
	mux := dns.NewServeMux()
	mux.HandleFunc(".", s.handleDNS)

	dnsServer := &dns.Server{Addr: s.cfg.DNSListen, Net: network, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = dnsServer.ShutdownContext(context.Background())
	}()

	log.Printf("dns/%s listening on %s", network, s.cfg.DNSListen)
	if err := dnsServer.ListenAndServe(); err != nil {
		return fmt.Errorf("dns/%s listen: %w", network, err)
	}
	return nil
}

func (s *server) handleDNS(w dns.ResponseWriter, req *dns.Msg) {
	resp := s.resolveDNS(req)
	_ = w.WriteMsg(resp)
}

// resolveDNS answers one query for the configured zone. It is pure with
// respect to the transport: UDP, TCP and tests all feed it a decoded request
// and send back whatever it returns.
//
// Out-of-zone names are refused rather than answered; this server is
// authoritative for exactly one zone. In-zone names always get a response:
// an address for A/AAAA, or a no-error empty answer for every other type.
func (s *server) resolveDNS(req *dns.Msg) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetReply(req)

	if req.Opcode != dns.OpcodeQuery {
		resp.Rcode = dns.RcodeNotImplemented
		return resp
	}
	if len(req.Question) != 1 {
		resp.Rcode = dns.RcodeFormatError
		return resp
	}

	name := normalizeName(req.Question[0].Name)
	label, inZone := subdomainLabel(name, s.cfg.Zone)
	if !inZone {
		resp.Rcode = dns.RcodeRefused
		return resp
	}

	resp.Authoritative = true

	family, wantAddr := familyForType(req.Question[0].Qtype)
	if !wantAddr {
		// This zone holds only address records. NODATA, not an error.
		return resp
	}

	addr, err := s.resolveAddr(label, family)
	if err != nil {
		// Keep the responder up through store outages.
		log.Printf("dns lookup %q failed: %v", name, err)
		resp.Rcode = dns.RcodeServerFailure
		return resp
	}
	if addr == "" {
		return resp
	}

	if rr := answerRecord(name, family, addr, s.cfg.AnswerTTL); rr != nil {
		resp.Answer = append(resp.Answer, rr)
	}
	return resp
}

// resolveAddr maps a subdomain label to an address for one family. The apex
// (empty label) and unknown labels resolve to the configured default; a
// binding that has no address for the requested family falls back the same
// way instead of erroring.
func (s *server) resolveAddr(label string, family addrFamily) (string, error) {
	addr := s.cfg.defaultAddr(family)
	if label == "" {
		return addr, nil
	}

	binding, err := s.store.lookupDomain(label)
	if err != nil {
		return "", err
	}
	if binding != nil {
		if v := binding.addr(family); v != "" {
			addr = v
		}
	}
	return addr, nil
}

func familyForType(qtype uint16) (addrFamily, bool) {
	switch qtype {
	case dns.TypeA:
		return familyIPv4, true
	case dns.TypeAAAA:
		return familyIPv6, true
	default:
		return "", false
	}
}

func answerRecord(name string, family addrFamily, addr string, ttl uint32) dns.RR {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil
	}

	switch family {
	case familyIPv4:
		v4 := ip.To4()
		if v4 == nil {
			return nil
		}
		return &dns.A{
			Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: ttl},
			A:   v4,
		}
	case familyIPv6:
		if ip.To4() != nil {
			return nil
		}
		return &dns.AAAA{
			Hdr:  dns.RR_Header{Name: name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: ttl},
			AAAA: ip,
		}
	}
	return nil
}
