package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
)

type versionedType struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry decodes consumed payloads by event type and envelope version.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[versionedType]decodeFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[versionedType]decodeFunc)}
}

// NewConsumerDecoders knows every current payload at PayloadVersion.
func NewConsumerDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	for _, s := range schemas {
		reg.Register(s.eventType, PayloadVersion, s.decode)
	}
	return reg
}

// Register adds or replaces the decoder for eventType at version.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decode func(json.RawMessage) (any, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[versionedType{eventType, version}] = decode
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	r.mu.RLock()
	decode, ok := r.decoders[versionedType{eventType, version}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decode(payload)
}
