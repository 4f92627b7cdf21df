package router

import "github.com/gin-gonic/gin"

// Module is a feature unit that owns a slice of the route table. The
// registry collects modules and mounts them all under the API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
