package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const flashCookie = "litreview_flash"

// Flash levels, used as CSS classes by the layout.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func readFlashes(c echo.Context) []Flash {
	if pending, ok := c.Get(flashCookie).([]Flash); ok {
		return pending
	}
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}

func writeFlashes(c echo.Context, flashes []Flash) {
	c.Set(flashCookie, flashes)
	cookie := &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if len(flashes) == 0 {
		cookie.MaxAge = -1
	} else {
		raw, _ := json.Marshal(flashes)
		cookie.Value = base64.RawURLEncoding.EncodeToString(raw)
	}
	c.SetCookie(cookie)
}

// addFlash queues a message for the next page.
func addFlash(c echo.Context, level, message string) {
	writeFlashes(c, append(readFlashes(c), Flash{Level: level, Message: message}))
}

// popFlashes returns the queued messages and clears them.
func popFlashes(c echo.Context) []Flash {
	flashes := readFlashes(c)
	if len(flashes) > 0 {
		writeFlashes(c, nil)
	}
	return flashes
}
