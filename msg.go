package natsline

// Header is a message header block: possibly-multi-valued keys, matching
// the NATS/1.0 header block's "Key: Value" repeated-line shape.
type Header map[string][]string

// Get returns the first value for key, or "" if absent.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	if vs := h[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Set replaces all values for key.
func (h Header) Set(key, value string) { h[key] = []string{value} }

// Add appends a value for key.
func (h Header) Add(key, value string) { h[key] = append(h[key], value) }

// Msg is one inbound or to-be-published message, the unit delivered to
// subscription handlers and returned by Request.
type Msg struct {
	Subject string
	Reply   string
	Header  Header
	Data    []byte

	// sub is set on inbound messages delivered to a subscription handler;
	// it stays nil on replies returned by Request. Ack dispatch in the
	// stream package does not use it; never serialized.
	sub *Subscription
}
