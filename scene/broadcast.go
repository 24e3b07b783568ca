package scene

import (
	"encoding/json"
	"time"
)

// Broadcast-style commands: issued through one scene but interpreted by the
// peer as applying to all of its renderer instances.

// FrontendInstanceCount asks the peer how many renderer instances it
// currently holds across all scenes.
func (s *Scene) FrontendInstanceCount(timeout time.Duration) (int, error) {
	result, err := s.call("get_instance_count", map[string]any{}, timeout)
	if err != nil {
		return 0, err
	}
	switch n := result["count"].(type) {
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, nil
		}
		return int(i), nil
	case int:
		return n, nil
	default:
		return 0, nil
	}
}

// ClearAllInstances tells the peer to tear down every renderer instance
func (s *Scene) ClearAllInstances() error {
	return s.fire("clear_all_instances", map[string]any{})
}

// ClearAllContent tells the peer to clear the 3D content of every renderer
// instance.
func (s *Scene) ClearAllContent() error {
	return s.fire("clear_all_content", map[string]any{})
}
