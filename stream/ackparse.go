package stream

import (
	"fmt"
	"strconv"
	"strings"
)

// AckAddress is the decoded reply-to token list of spec.md §3: either the
// 9-token domain-less shape
// `$JS.ACK.<stream>.<consumer>.<delivered>.<sseq>.<cseq>.<ts>.<pending>` or
// the >=12-token domain-ful shape
// `$JS.ACK.<domain>.<account>.<stream>.<consumer>.<delivered>.<sseq>.<cseq>.<ts>.<pending>.<token>`.
type AckAddress struct {
	Domain      string // "" for the 9-token shape
	Account     string
	Stream      string
	Consumer    string
	Delivered   uint64
	StreamSeq   uint64
	ConsumerSeq uint64
	Timestamp   int64
	Pending     uint64
}

// fieldCount is the number of (stream, consumer, delivered, sseq, cseq,
// ts, pending) fields shared by both ack-subject shapes.
const fieldCount = 7

// totalTokens9 is the total token count (including $JS and ACK) of the
// domain-less shape; totalTokensDomainMin is the minimum total token count
// of the domain-ful shape.
const (
	totalTokens9         = 9
	totalTokensDomainMin = 12
)

// ParseAckSubject implements spec §3's two ack-subject shapes.
func ParseAckSubject(subj string) (AckAddress, error) {
	toks := strings.Split(subj, ".")
	if len(toks) < 2 || toks[0] != "$JS" || toks[1] != "ACK" {
		return AckAddress{}, fmt.Errorf("natsline/stream: not an ack subject: %q", subj)
	}

	switch {
	case len(toks) == totalTokens9:
		return parseAckFields(toks[2:2+fieldCount], "", "")
	case len(toks) >= totalTokensDomainMin:
		domain, account := toks[2], toks[3]
		return parseAckFields(toks[4:4+fieldCount], domain, account)
	default:
		return AckAddress{}, fmt.Errorf("natsline/stream: malformed ack subject (got %d tokens): %q", len(toks), subj)
	}
}

func parseAckFields(t []string, domain, account string) (AckAddress, error) {
	if len(t) != fieldCount {
		return AckAddress{}, fmt.Errorf("natsline/stream: malformed ack subject field count")
	}
	delivered, err1 := strconv.ParseUint(t[2], 10, 64)
	sseq, err2 := strconv.ParseUint(t[3], 10, 64)
	cseq, err3 := strconv.ParseUint(t[4], 10, 64)
	ts, err4 := strconv.ParseInt(t[5], 10, 64)
	pending, err5 := strconv.ParseUint(t[6], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return AckAddress{}, fmt.Errorf("natsline/stream: malformed ack subject numeric field")
	}
	return AckAddress{
		Domain:      domain,
		Account:     account,
		Stream:      t[0],
		Consumer:    t[1],
		Delivered:   delivered,
		StreamSeq:   sseq,
		ConsumerSeq: cseq,
		Timestamp:   ts,
		Pending:     pending,
	}, nil
}
