package rpc

import "github.com/gin-gonic/gin"

func registerRoutes(router *gin.Engine, h *Handler) {
	router.POST("/Plugin.Activate", h.Activate)
	router.POST("/VolumeDriver.Create", h.Create)
	router.POST("/VolumeDriver.Remove", h.Remove)
	router.POST("/VolumeDriver.Mount", h.Mount)
	router.POST("/VolumeDriver.Path", h.Path)
	router.POST("/VolumeDriver.Unmount", h.Unmount)
	router.POST("/VolumeDriver.Get", h.Get)
	router.POST("/VolumeDriver.List", h.List)
	router.POST("/VolumeDriver.Capabilities", h.Capabilities)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(400, errResponse{Err: "unknown route: " + c.Request.Method + " " + c.Request.URL.Path})
	})
}
