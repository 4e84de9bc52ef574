// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package datasource

import "github.com/aerologic/flightrecorder/lib/container"

// InternalDataSource is an insertion-ordered key→value mapping (spec
// §3), used for the header and footer records. Duplicate keys during
// decode follow "last write wins" — the value present is always the
// most recently decoded one, while Keys() preserves first-seen order.
type InternalDataSource struct {
	order  []string
	values map[string]string
}

// NewInternalDataSource returns an empty InternalDataSource.
func NewInternalDataSource() *InternalDataSource {
	return &InternalDataSource{values: make(map[string]string)}
}

// Set records key=value, overwriting any earlier value for key but
// keeping its original position in Keys().
func (s *InternalDataSource) Set(key, value string) {
	if _, seen := s.values[key]; !seen {
		s.order = append(s.order, key)
	}
	s.values[key] = value
}

// Get returns the current value for key and whether it is present.
func (s *InternalDataSource) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns every key in first-seen order.
func (s *InternalDataSource) Keys() []string {
	return append([]string(nil), s.order...)
}

// Pairs returns the current (key, value) pairs in first-seen order.
func (s *InternalDataSource) Pairs() []container.Pair {
	pairs := make([]container.Pair, len(s.order))
	for i, key := range s.order {
		pairs[i] = container.Pair{Key: key, Value: s.values[key]}
	}
	return pairs
}

// LoadRecord replaces this source's contents with the decoded pairs of
// a header or footer record payload.
func (s *InternalDataSource) LoadRecord(payload []byte) error {
	pairs, err := container.DecodeRecord(payload)
	if err != nil {
		return err
	}
	s.order = nil
	s.values = make(map[string]string, len(pairs))
	for _, pair := range pairs {
		s.Set(pair.Key, pair.Value)
	}
	return nil
}
