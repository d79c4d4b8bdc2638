package client

import (
	"context"

	"github.com/gamehub/apiserver/types"
	"go.uber.org/zap"
)

// Reporter sends finished games to the stats endpoint for the signed-in
// user. Signed-out players are skipped without error. Failures are not
// retried.
type Reporter struct {
	client  *Client
	session *Session
	log     *zap.Logger
}

func NewReporter(client *Client, session *Session, log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{client: client, session: session, log: log}
}

func (r *Reporter) Report(ctx context.Context, gameID string, outcome types.Outcome) error {
	token := r.session.Token()
	if token == "" {
		r.log.Debug("not signed in; result kept local", zap.String("game_id", gameID))
		return nil
	}

	user, err := r.client.RecordResult(ctx, token, types.NewGameResult(gameID, outcome))
	if err != nil {
		if IsUnauthorized(err) {
			cleared, clearErr := r.session.expireToken(token)
			if clearErr != nil {
				r.log.Warn("clear session", zap.Error(clearErr))
			}
			if cleared {
				r.log.Info("session expired while reporting", zap.String("game_id", gameID))
			}
		}
		return err
	}

	r.session.updateFor(token, user)
	return nil
}
