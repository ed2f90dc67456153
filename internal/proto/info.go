package proto

import "encoding/json"

// Info is the server capability advertisement of spec.md §3, decoded once
// at handshake and immutable thereafter. Field names follow the broker's
// wire convention, the same snake_case mapping apcera-nats's serverInfo
// uses, extended with the header/stream/auth/tls flags spec.md requires.
type Info struct {
	ServerID     string `json:"server_id"`
	Version      string `json:"version"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	MaxPayload   int64  `json:"max_payload"`
	HeadersOn    bool   `json:"headers"`
	JetStream    bool   `json:"jetstream"`
	AuthRequired bool   `json:"auth_required"`
	TLSRequired  bool   `json:"tls_required"`
}

// DecodeInfo unmarshals the JSON argument of an INFO line.
func DecodeInfo(data []byte) (Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, err
	}
	return info, nil
}

// ConnectInfo is the CONNECT frame body of spec.md §6. Marshaled directly
// by the root package via encoding/json — the protocol's own framing is
// text+JSON, so using the stdlib encoder here is the broker's own wire
// format, not a stand-in for a missing ecosystem library (see DESIGN.md).
type ConnectInfo struct {
	Verbose    bool   `json:"verbose"`
	Pedantic   bool   `json:"pedantic"`
	Name       string `json:"name,omitempty"`
	Lang       string `json:"lang"`
	Version    string `json:"version"`
	Protocol   int    `json:"protocol"`
	Echo       bool   `json:"echo"`
	User       string `json:"user,omitempty"`
	Pass       string `json:"pass,omitempty"`
	AuthToken  string `json:"auth_token,omitempty"`
	TLSRequired bool  `json:"tls_required,omitempty"`
}
