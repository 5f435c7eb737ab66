package ona

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Option is one TLV-encoded negotiable option: a type byte,
// a length byte (including the two header bytes) and a value.
type Option struct {
	Type  byte
	Value []byte
}

// Bytes serializes o in its wire TLV form.
func (o Option) Bytes() []byte {
	out := make([]byte, 2+len(o.Value))
	out[0] = o.Type
	out[1] = byte(2 + len(o.Value))
	copy(out[2:], o.Value)
	return out
}

// ParseOptions decodes a sequence of back-to-back TLV options. It
// returns ErrBadPacket if any option's length field disagrees with
// the bytes actually available.
func ParseOptions(buf []byte) ([]Option, error) {
	var opts []Option
	for len(buf) > 0 {
		if len(buf) < 2 {
			return nil, fmt.Errorf("%w: truncated option header", ErrBadPacket)
		}
		length := int(buf[1])
		if length < 2 || length > len(buf) {
			return nil, fmt.Errorf("%w: option length %d overruns buffer of %d", ErrBadPacket, length, len(buf))
		}
		opts = append(opts, Option{Type: buf[0], Value: append([]byte(nil), buf[2:length]...)})
		buf = buf[length:]
	}
	return opts, nil
}

// OptionsBytes serializes a full list of options back to back.
func OptionsBytes(opts []Option) []byte {
	var out []byte
	for _, o := range opts {
		out = append(out, o.Bytes()...)
	}
	return out
}

// valueUint32 decodes a big-endian option value of 1-4 bytes into a
// uint32, left-padded with zero.
func valueUint32(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

// uint32Value encodes v as a big-endian value of exactly size bytes,
// zero-padded on the left when size exceeds 4.
func uint32Value(v uint32, size int) []byte {
	var full [4]byte
	binary.BigEndian.PutUint32(full[:], v)
	if size > 4 {
		return append(make([]byte, size-4), full[:]...)
	}
	return append([]byte(nil), full[4-size:]...)
}

// ConfigEntry is one row of a protocol's negotiable-option table
// a per-protocol configuration entry: a single option
// type this protocol instance knows how to negotiate.
type ConfigEntry struct {
	Type     byte
	Size     int // value size in bytes; 0 for a flag-only option (PFC/ACFC)
	Default  uint32
	Required bool

	// Enabled controls whether this entry is included when we build
	// our own Configure-Request. It starts equal to the protocol's
	// initial policy (e.g. LCP proposes MRU/ACCM/Auth-Protocol from
	// the start but not PFC/ACFC) and is flipped by RCN-Nak handling
	// per RFC 1661's option negotiation rules.
	Enabled bool
	Value   uint32

	// Validate reports whether opt (as received from the peer in a
	// Configure-Request) is an acceptable value for this option.
	Validate func(opt Option) bool
	// BuildNak returns the Option we would suggest instead, when
	// Validate reported the peer's value unacceptable.
	BuildNak func() Option
	// Apply commits a negotiated value. isPeer is true when this is
	// the peer's own announced value (we are about to ACK their CR);
	// false when it is our own value that the peer has just ACKed.
	// NAK suggestions update Value/Enabled (ApplyNak) without calling
	// Apply.
	Apply func(opt Option, isPeer bool)
}

// valueOption returns this entry's current Value as a wire Option.
func (c *ConfigEntry) valueOption() Option {
	if c.Size == 0 {
		return Option{Type: c.Type}
	}
	return Option{Type: c.Type, Value: uint32Value(c.Value, c.Size)}
}

// ConfigTable is the full set of negotiable options for one protocol
// instance (one LCP, IPCP or IPv6CP).
type ConfigTable struct {
	entries []*ConfigEntry
}

// NewConfigTable builds a table from entries, in the order they
// should appear on an outbound Configure-Request.
func NewConfigTable(entries ...*ConfigEntry) *ConfigTable {
	return &ConfigTable{entries: entries}
}

// ByType returns the entry for a given option type, or nil if this
// protocol instance doesn't negotiate that option.
func (t *ConfigTable) ByType(typ byte) *ConfigEntry {
	for _, e := range t.entries {
		if e.Type == typ {
			return e
		}
	}
	return nil
}

// Reset restores every entry's Value to its Default (the tld action's
// "reset option table to defaults"; RFC 1661's negotiated values only
// apply while the protocol is up).
func (t *ConfigTable) Reset() {
	for _, e := range t.entries {
		e.Value = e.Default
	}
}

// RequestOptions builds the Option list for an outbound Configure-
// Request: one entry per Enabled row, in table order.
func (t *ConfigTable) RequestOptions() []Option {
	var opts []Option
	for _, e := range t.entries {
		if e.Enabled {
			opts = append(opts, e.valueOption())
		}
	}
	return opts
}

// EvaluateRequest classifies a peer's Configure-Request options
// against this table: any option whose type this
// table doesn't recognize is unknown (go to Reject); any recognized
// option this table's Validate rejects is invalid (go to Nak); any
// Required entry absent from the request also drives a Nak. When both
// unknown and invalid options are present, Reject takes priority and
// carries only the unknown options (P5).
func (t *ConfigTable) EvaluateRequest(opts []Option) (accept bool, rejectOpts, nakOpts []Option) {
	present := make(map[byte]bool, len(opts))
	var unknown, invalid []Option

	for _, o := range opts {
		present[o.Type] = true
		entry := t.ByType(o.Type)
		if entry == nil {
			unknown = append(unknown, o)
			continue
		}
		if !entry.Validate(o) {
			invalid = append(invalid, entry.BuildNak())
		}
	}

	var missingRequired []Option
	for _, e := range t.entries {
		if e.Required && !present[e.Type] {
			missingRequired = append(missingRequired, e.valueOption())
		}
	}

	if len(unknown) > 0 {
		return false, unknown, nil
	}
	if len(invalid) > 0 || len(missingRequired) > 0 {
		return false, nil, append(invalid, missingRequired...)
	}
	return true, nil, nil
}

// ApplyRequest commits a peer's Configure-Request options once
// EvaluateRequest has accepted them — called just before sending the
// Configure-Ack.
func (t *ConfigTable) ApplyRequest(opts []Option) {
	for _, o := range opts {
		if e := t.ByType(o.Type); e != nil && e.Apply != nil {
			e.Apply(o, true)
		}
	}
}

// ApplyAck commits our own Configure-Request options once the peer
// has ACKed them verbatim — called on RCA.
func (t *ConfigTable) ApplyAck(opts []Option) {
	for _, o := range opts {
		if e := t.ByType(o.Type); e != nil && e.Apply != nil {
			e.Apply(o, false)
		}
	}
}

// ApplyNak folds a peer's Configure-Nak/Configure-Reject suggestions
// into the table, per RFC 1661: an option not yet Enabled gets
// switched on; an Enabled option whose suggested value we accept gets
// its Value updated; otherwise it is disabled (we stop proposing it).
func (t *ConfigTable) ApplyNak(opts []Option, reject bool) {
	for _, o := range opts {
		e := t.ByType(o.Type)
		if e == nil {
			continue
		}
		if reject {
			e.Enabled = false
			continue
		}
		switch {
		case !e.Enabled:
			e.Enabled = true
		case e.Validate(o):
			e.Value = valueUint32(o.Value)
		default:
			e.Enabled = false
		}
	}
}

// EqualOptions reports whether two serialized option bodies are
// byte-for-byte identical (invariant 6: the stored last-CR-options
// buffer must match exactly for an ACK to be accepted).
func EqualOptions(a, b []byte) bool {
	return bytes.Equal(a, b)
}
