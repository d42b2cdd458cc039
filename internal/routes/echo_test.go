package routes

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestEchoSource(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	e.GET("/", ok)
	e.GET("/blog/:slug/", ok)
	e.GET("/sitemap.xml", ok)
	e.GET("/admin/", ok)
	e.POST("/admin/login/", ok)
	e.POST("/contact", ok)
	e.GET("/contact", ok)
	e.GET("/files/*", ok)

	src := FromEcho(e, "/admin")
	src.Unmapped = []string{"/sitemap.xml"}
	eps, err := src.Entrypoints()
	require.NoError(t, err)

	byPath := map[string]Entrypoint{}
	for _, ep := range eps {
		byPath[ep.URLTemplate] = ep
	}

	require.True(t, byPath["/admin/"].IsIgnored())
	require.True(t, byPath["/admin/login/"].IsIgnored())
	require.True(t, byPath["/contact"].AllowedMethods.Has(http.MethodPost))
	require.True(t, byPath["/contact"].IsGettable())
	require.False(t, byPath["/sitemap.xml"].IsMapped())

	res := Scan(eps)
	require.Equal(t, []string{"/", "/contact", "/sitemap.xml"}, res.URLs())
	// /blog/:slug/ and the /files/* wildcard need parameters.
	require.Equal(t, 2, res.Skipped)

	require.True(t, res.Ignore.Ignored("/admin/"))
	require.True(t, res.Ignore.Ignored("/admin/users/"))
	require.False(t, res.Ignore.Ignored("/contact"))
	require.False(t, res.Ignore.Ignored("/blog/first/"))
}
