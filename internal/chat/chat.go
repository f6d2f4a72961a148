// Package chat holds conversation sessions and the query pipeline that
// feeds them.
package chat

import (
	"context"
	"fmt"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/logging"
)

// StartGUI runs an interactive front end over a pipeline and session until
// the user quits or ctx is cancelled.
type StartGUI func(ctx context.Context, p *Pipeline, s *Session, cancel context.CancelFunc) error

// Run starts the chat UI with a fresh session.
func Run(cfg *appconfig.Config, p *Pipeline, startGUI StartGUI) error {
	if cfg == nil || p == nil {
		return fmt.Errorf("chat needs a config and a pipeline")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := NewSession(cfg.UserName())
	logging.LogEvent("[CHAT] Session %s started (provider %s, ready %t)",
		session.ID(), p.Assistant().Provider(), p.Assistant().Ready())
	return startGUI(ctx, p, session, cancel)
}
