package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/cragtopo/internal/pkg/i18n"
)

const (
	localsLang    = "lang"
	localsCatalog = "i18n"
)

// LanguageMiddleware negotiates the response language from ?lang= or
// Accept-Language and announces it in Content-Language.
func LanguageMiddleware(cat *i18n.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAcceptLanguage)
		if q := c.Query("lang"); q != "" {
			header = q
		}
		lang := cat.Match(header)
		c.Locals(localsLang, lang)
		c.Locals(localsCatalog, cat)
		c.Set(fiber.HeaderContentLanguage, lang)
		c.Vary(fiber.HeaderAcceptLanguage)
		return c.Next()
	}
}

func requestLang(c *fiber.Ctx) string {
	if l, ok := c.Locals(localsLang).(string); ok {
		return l
	}
	return i18n.Fallback
}
