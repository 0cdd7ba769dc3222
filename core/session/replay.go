package session

import (
	"cloud-architect-sim/core/architecture"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/errors"
)

// Attempt is one connection tried during a replay
type Attempt struct {
	Connection types.Connection `json:"connection"`
	Accepted   bool             `json:"accepted"`
	Message    string           `json:"message"`

	// RequiredServices is advisory, set when an intermediate is missing
	RequiredServices []string `json:"required_services,omitempty"`
}

// Replay plays a declarative architecture into the session the way a
// player would: every service is placed, then every connection is tried
// between the first instances of its source and target types. A rejected
// connection is recorded and earns nothing; a rejected placement aborts.
func (s *Session) Replay(spec types.ArchitectureSpec) ([]Attempt, error) {
	for _, id := range spec.Services {
		if _, err := s.Place(id); err != nil {
			return nil, err
		}
	}

	attempts := make([]Attempt, 0, len(spec.Connections))
	for _, conn := range spec.Connections {
		src, dst, err := s.endpoints(conn)
		if err != nil {
			return attempts, err
		}

		result, err := s.Connect(src, dst)
		attempt := Attempt{
			Connection:       conn,
			Accepted:         err == nil,
			Message:          result.Message,
			RequiredServices: result.RequiredServices,
		}
		if err != nil {
			if !errors.IsType(err, errors.TypeInvalidConnection) {
				return attempts, err
			}
			attempt.Message = errors.MessageOf(err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func (s *Session) endpoints(conn types.Connection) (architecture.Ref, architecture.Ref, error) {
	src, ok := s.Architecture.First(conn.Source)
	if !ok {
		return "", "", errors.Newf(errors.TypeInput, "connection %s: source service is not placed", conn)
	}
	dst, ok := s.Architecture.First(conn.Target)
	if !ok {
		return "", "", errors.Newf(errors.TypeInput, "connection %s: target service is not placed", conn)
	}
	return src.Ref, dst.Ref, nil
}
