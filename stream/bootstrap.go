package stream

import (
	"errors"
	"fmt"
)

// EnsureStream implements spec §4.9: idempotent stream provisioning. It
// attempts STREAM.INFO first; a "not found" APIError triggers a create
// with the default config; an "already exists" race (spec §9's open
// question) is treated as success; any other error is re-raised.
func (m *Manager) EnsureStream(name, subjectPrefix string) (*StreamInfo, error) {
	info, err := m.StreamInfo(name)
	if err == nil {
		return info, nil
	}
	var apiErr *APIError
	if !asAPIError(err, &apiErr) || !apiErr.NotFound() {
		return nil, err
	}

	cfg := Config{
		Name:        name,
		Subjects:    []string{subjectPrefix + ".>"},
		Retention:   RetentionLimits,
		Storage:     StorageFile,
		Description: fmt.Sprintf("auto-provisioned by natsline for %s.>", subjectPrefix),
	}
	info, err = m.CreateStream(cfg)
	if err == nil {
		return info, nil
	}
	if asAPIError(err, &apiErr) && apiErr.AlreadyExists() {
		return m.StreamInfo(name)
	}
	return nil, err
}

// EnsureConsumer implements spec §4.9: idempotent durable pull-consumer
// provisioning, analogous to EnsureStream.
func (m *Manager) EnsureConsumer(streamName, consumerName, filterSubject string) (*ConsumerInfo, error) {
	info, err := m.ConsumerInfo(streamName, consumerName)
	if err == nil {
		return info, nil
	}
	var apiErr *APIError
	if !asAPIError(err, &apiErr) || !apiErr.NotFound() {
		return nil, err
	}

	cfg := ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: filterSubject,
		DeliverPolicy: DeliverAll,
		AckPolicy:     AckExplicit,
	}
	info, err = m.CreateConsumer(streamName, cfg)
	if err == nil {
		return info, nil
	}
	if asAPIError(err, &apiErr) && apiErr.AlreadyExists() {
		return m.ConsumerInfo(streamName, consumerName)
	}
	return nil, err
}

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}
