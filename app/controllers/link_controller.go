package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type shortenRequest struct {
	URL string `json:"url" validate:"required"`
}

// HandleShortenURL admits the request against the caller's quota and stores the link.
func (a *API) HandleShortenURL(c *fiber.Ctx) error {
	var req shortenRequest
	if err := a.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	link, err := a.Members.Shorten(c.UserContext(), usercontext.GetUserID(c), req.URL)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"shortCode":   link.ShortCode,
		"shortUrl":    a.shortURL(link.ShortCode),
		"originalUrl": link.OriginalURL,
	})
}

// HandleResolve returns the original URL for a code without redirecting.
func (a *API) HandleResolve(c *fiber.Ctx) error {
	url, err := a.Members.Resolve(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"originalUrl": url})
}

// HandleRedirect sends the browser to the original URL.
func (a *API) HandleRedirect(c *fiber.Ctx) error {
	url, err := a.Members.Resolve(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect(url, fiber.StatusFound)
}

// HandleListURLs returns the caller's links, newest first.
func (a *API) HandleListURLs(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	links, err := a.Members.ListLinks(c.UserContext(), userID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := a.Repos.ShortLink.CountByUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	items := make([]fiber.Map, 0, len(links))
	for _, l := range links {
		items = append(items, a.linkJSON(l))
	}
	return c.JSON(fiber.Map{
		"urls":   items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (a *API) linkJSON(l models.ShortLink) fiber.Map {
	return fiber.Map{
		"id":          l.ID,
		"shortCode":   l.ShortCode,
		"shortUrl":    a.shortURL(l.ShortCode),
		"originalUrl": l.OriginalURL,
		"createdAt":   formatTime(l.CreatedAt),
	}
}

func (a *API) shortURL(code string) string {
	return a.Settings.PublicDomain + "/r/" + code
}
