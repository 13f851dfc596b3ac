package peripheral

import "encoding/json"

// Snapshot is a point-in-time view of the device state, serializable for
// diagnostics and assertions.
type Snapshot struct {
	Name            string                   `json:"name"`
	Indicator       string                   `json:"indicator"`
	Characteristics []CharacteristicSnapshot `json:"characteristics"`
}

// CharacteristicSnapshot captures one characteristic's externally observable
// state.
type CharacteristicSnapshot struct {
	Name          string `json:"name"`
	UUID          string `json:"uuid"`
	Encrypted     bool   `json:"encrypted"`
	Value         string `json:"value"`
	NotifyEnabled bool   `json:"notify_enabled"`
}

// Snapshot captures the device state atomically with respect to writes.
func (p *Peripheral) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Name:      p.name,
		Indicator: p.color.String(),
	}
	for pair := p.chars.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		enabled, _ := p.subs.Get(c.uuid)
		s.Characteristics = append(s.Characteristics, CharacteristicSnapshot{
			Name:          c.name,
			UUID:          c.uuid,
			Encrypted:     c.encrypted,
			Value:         c.value,
			NotifyEnabled: enabled,
		})
	}
	return s
}

// JSON renders the snapshot as compact JSON. Marshaling a plain struct of
// strings and bools cannot fail.
func (s Snapshot) JSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}
