package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	stateKeyActivePanel = "active_panel"
	stateKeyClientID    = "client_id"
)

// ActivePanel returns the persisted panel name, empty when none was saved.
func (s *Store) ActivePanel(ctx context.Context) (string, error) {
	value, _, err := s.GetState(ctx, stateKeyActivePanel)
	return value, err
}

// SetActivePanel persists the panel name for the next session.
func (s *Store) SetActivePanel(ctx context.Context, name string) error {
	return s.SetState(ctx, stateKeyActivePanel, name)
}

// ClientID returns the stable per-installation client identifier, generating
// and persisting one on first use. A configured override wins but is not
// written back.
func (s *Store) ClientID(ctx context.Context, configured string) (string, error) {
	if trimmed := strings.TrimSpace(configured); trimmed != "" {
		return trimmed, nil
	}
	existing, found, err := s.GetState(ctx, stateKeyClientID)
	if err != nil {
		return "", err
	}
	if found && strings.TrimSpace(existing) != "" {
		return existing, nil
	}
	generated := "indexer-" + uuid.NewString()
	if err := s.SetState(ctx, stateKeyClientID, generated); err != nil {
		return "", fmt.Errorf("persist client id: %w", err)
	}
	return generated, nil
}
