// Package router collects route declarations made by handler packages
// in their init functions and installs them on the gin engine once at
// startup. Handlers never see the engine; they only declare.
package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// GroupDef is one path prefix with shared middleware and its routes.
type GroupDef struct {
	prefix      string
	middlewares []gin.HandlerFunc
	routes      []route
}

var groups []*GroupDef

// Group declares a route group under prefix. The middlewares run for
// every route added to the group.
func Group(prefix string, middlewares ...gin.HandlerFunc) *GroupDef {
	g := &GroupDef{prefix: prefix, middlewares: middlewares}
	groups = append(groups, g)
	return g
}

func (g *GroupDef) handle(method, path string, handlers []gin.HandlerFunc) *GroupDef {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

func (g *GroupDef) GET(path string, handlers ...gin.HandlerFunc) *GroupDef {
	return g.handle(http.MethodGet, path, handlers)
}

func (g *GroupDef) POST(path string, handlers ...gin.HandlerFunc) *GroupDef {
	return g.handle(http.MethodPost, path, handlers)
}

func (g *GroupDef) PUT(path string, handlers ...gin.HandlerFunc) *GroupDef {
	return g.handle(http.MethodPut, path, handlers)
}

func (g *GroupDef) DELETE(path string, handlers ...gin.HandlerFunc) *GroupDef {
	return g.handle(http.MethodDelete, path, handlers)
}

// Install registers every declared group on the engine and clears the
// registry so a second call cannot double-register.
func Install(engine *gin.Engine) error {
	for _, g := range groups {
		if len(g.routes) == 0 {
			return fmt.Errorf("route group %s declares no routes", g.prefix)
		}
		grp := engine.Group(g.prefix, g.middlewares...)
		for _, r := range g.routes {
			if len(r.handlers) == 0 {
				return fmt.Errorf("route %s %s%s has no handler", r.method, g.prefix, r.path)
			}
			grp.Handle(r.method, r.path, r.handlers...)
		}
	}
	groups = nil
	return nil
}
