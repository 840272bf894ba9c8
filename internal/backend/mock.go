package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mock answers every call from a read-only fixture map keyed by endpoint key.
type Mock struct {
	fixtures map[string]json.RawMessage
	logger   logrus.FieldLogger
}

// NewMock builds a Mock over fixtures. The map is copied; later changes by
// the caller are not observed.
func NewMock(fixtures map[string]json.RawMessage, logger logrus.FieldLogger) *Mock {
	copied := make(map[string]json.RawMessage, len(fixtures))
	for k, v := range fixtures {
		copied[k] = v
	}

	keys := make([]string, 0, len(copied))
	for k := range copied {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	logger.WithField("keys", keys).Info("loaded mock fixtures")

	return &Mock{fixtures: copied, logger: logger}
}

// Get returns the fixture for endpoint or ErrNotFound.
func (m *Mock) Get(_ context.Context, endpoint string) (json.RawMessage, error) {
	key := EndpointKey(endpoint)
	if data, ok := m.fixtures[key]; ok {
		m.logger.WithField("key", key).Debug("mock get hit")
		return data, nil
	}
	m.logger.WithField("key", key).Warn("mock data not found")
	return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
}

// Create returns the fixture for endpoint, or a synthesized created record.
func (m *Mock) Create(_ context.Context, endpoint string, _ any) (json.RawMessage, error) {
	return m.write(endpoint, "created")
}

// Update returns the fixture for endpoint, or a synthesized updated record.
func (m *Mock) Update(_ context.Context, endpoint string, _ any) (json.RawMessage, error) {
	return m.write(endpoint, "updated")
}

func (m *Mock) write(endpoint, status string) (json.RawMessage, error) {
	key := EndpointKey(endpoint)
	if data, ok := m.fixtures[key]; ok {
		return data, nil
	}

	m.logger.WithField("key", key).Debug("no mock data, returning default response")
	return json.Marshal(map[string]string{
		"id":     "mock_" + lastSegment(key),
		"status": status,
	})
}

func lastSegment(key string) string {
	key = strings.TrimRight(key, "/")
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

var _ Port = (*Mock)(nil)
