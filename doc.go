/*
Package webserver is a minimal HTTP/1.1 server built around declarative
controllers, typed parameter binding and a two-ended middleware chain.

Each accepted connection is served by its own goroutine: the request is read
off the wire, its body decoded by content type, passed through the before
hooks, routed, bound to the handler's arguments, answered, passed through
the after hooks and written back. The connection is then closed.

# Quick Start

Basic usage example:

	package main

	import (
	    "context"

	    "github.com/searchktools/webserver/app"
	    "github.com/searchktools/webserver/config"
	    "github.com/searchktools/webserver/core/middleware"
	    "github.com/searchktools/webserver/core/router"
	)

	type Hello struct{}

	func (h *Hello) Index() string { return "ola!" }

	func (h *Hello) Ola(name string) string { return "ola " + name + "!" }

	func main() {
	    application := app.New(config.Default(), nil)

	    engine := application.Engine()
	    engine.Mount(router.NewController("/", &Hello{}).
	        Get("index", (*Hello).Index).
	        Handle([]string{"GET", "POST"}, "ola", (*Hello).Ola, "name"))
	    engine.Use(middleware.PoweredBy("webserver"))

	    application.Run(context.Background())
	}

GET /ola?name=Natan and a POST of {"name":"Natan"} with an application/json
content type both answer "ola Natan!".

Modules

  - app: Application lifecycle, signal handling and logger construction
  - config: Configuration from defaults, file, environment and flags
  - core: Engine, connection handling and error mapping
  - core/http: Request, Response and the wire reader
  - core/codec: Body codecs by content type
  - core/router: Ordered route table and controller registration
  - core/bind: Handler description and argument binding
  - core/middleware: Middleware chain and stock middlewares
  - core/pools: Response buffer pool
*/
package webserver
