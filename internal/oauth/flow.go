package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "geminicli2api-go/internal/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const callbackSuccessPage = `<html><head><style>
body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #f5f5f5; }
.card { background: white; padding: 2rem 3rem; border-radius: 12px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); text-align: center; }
h1 { color: #1a73e8; margin-bottom: 0.5rem; }
p { color: #666; }
</style></head><body>
<div class='card'>
<h1>Authentication Successful!</h1>
<p>You can close this window and return to the terminal.</p>
</div></body></html>`

// Authorize runs the full interactive flow: prints the consent URL, opens
// the browser when possible, waits for the localhost redirect, and exchanges
// the authorization code for tokens.
func (m *Manager) Authorize(ctx context.Context) (*Token, error) {
	state := uuid.NewString()
	authURL := m.AuthorizationURL(state)

	// Bind the redirect port before the consent URL goes anywhere, so the
	// redirect cannot race the listener.
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", m.callbackPort))
	if err != nil {
		return nil, apperrors.AuthFailed(fmt.Sprintf("cannot listen on callback port %d: %v", m.callbackPort, err))
	}

	divider := strings.Repeat("=", 60)
	fmt.Printf("\n%s\n", divider)
	fmt.Println("AUTHENTICATION REQUIRED")
	fmt.Println(divider)
	fmt.Printf("Please open this URL in your browser:\n%s\n", authURL)
	fmt.Printf("%s\n\n", divider)
	log.Infof("OAuth URL: %s", authURL)

	if err := m.openBrowser(authURL); err != nil {
		log.WithError(err).Debug("could not open browser automatically")
	}

	code, err := m.waitForCallback(ctx, ln)
	if err != nil {
		return nil, err
	}
	return m.Exchange(ctx, code)
}

type callbackResult struct {
	code    string
	errCode string
}

// waitForCallback serves the localhost redirect until the first request
// carrying code= or error= arrives, or the timeout elapses. Requests with
// neither (favicon probes and the like) are answered and ignored.
func (m *Manager) waitForCallback(ctx context.Context, ln net.Listener) (string, error) {
	resultCh := make(chan callbackResult, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errCode := q.Get("error"); errCode != "" {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "<h1>Authentication Failed</h1><p>Error: %s</p>", errCode)
			select {
			case resultCh <- callbackResult{errCode: errCode}:
			default:
			}
			return
		}
		if code := q.Get("code"); code != "" {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, callbackSuccessPage)
			select {
			case resultCh <- callbackResult{code: code}:
			default:
			}
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<h1>Invalid Request</h1>")
	})}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("oauth callback server error")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(m.callbackTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.errCode != "" {
			return "", apperrors.AuthFailed("authorization was denied: " + res.errCode)
		}
		return res.code, nil
	case <-timer.C:
		return "", apperrors.AuthFailed("timed out waiting for OAuth callback")
	case <-ctx.Done():
		return "", apperrors.AuthFailed("OAuth flow canceled: " + ctx.Err().Error())
	}
}
