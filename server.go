package clusterwatch

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/clusterwatch/clusterwatch/internal/wsserver"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard clients come from arbitrary origins
	},
}

// SetupWebSocketEndpoint upgrades every request on path to a WS
// Session served against server.
func SetupWebSocketEndpoint(e *echo.Echo, path string, server *wsserver.Server) {
	e.GET(path, func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return err
		}
		wsserver.Serve(conn, server)
		return nil
	})
}

// SetupEchoServer creates and configures an Echo server with common
// middleware.
func SetupEchoServer() *echo.Echo {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.HideBanner = true

	return e
}
