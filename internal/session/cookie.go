package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// CookieBackend stores guest keys as cookies on the browser making the
// request. Writes are also kept locally so a read after a write in the same
// request sees the new value.
type CookieBackend struct {
	c       *fiber.Ctx
	opts    CookieOptions
	pending map[string]*string
}

func NewCookieBackend(c *fiber.Ctx, opts CookieOptions) *CookieBackend {
	return &CookieBackend{c: c, opts: opts, pending: make(map[string]*string)}
}

func (b *CookieBackend) Get(key string) (string, bool) {
	if v, ok := b.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	v := b.c.Cookies(key)
	return v, v != ""
}

func (b *CookieBackend) Set(key, value string) {
	b.pending[key] = &value
	b.c.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(b.opts.MaxAge.Seconds()),
		Secure:   b.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (b *CookieBackend) Delete(key string) {
	b.pending[key] = nil
	b.c.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   b.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
