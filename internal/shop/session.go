package shop

import "context"

type ctxKey string

const sessionKey ctxKey = "shop_session"

// Session is the authenticated tenant a request acts for.
type Session struct {
	Shop        string
	AccessToken string
}

func (s Session) valid() bool {
	return s.Shop != "" && s.AccessToken != ""
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the tenant session carried by ctx. ok is false when no
// usable session is present.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	if !ok || !s.valid() {
		return Session{}, false
	}
	return s, true
}
