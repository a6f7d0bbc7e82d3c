package rpc

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/balena-os/luks-volume-driver/internal/engine"
)

// VolumeDriver is the subset of driver.Driver the dispatcher depends on.
// Declaring it here (rather than importing the concrete type) keeps the
// dispatcher testable against a fake without touching the filesystem.
type VolumeDriver interface {
	Create(name string, opts map[string]string) error
	Remove(name string) error
	Mount(name, activationID string) (string, error)
	Unmount(name, activationID string) error
	Path(name string) (string, error)
	Get(name string) (engine.Volume, error)
	List() ([]engine.Volume, error)
}

type Handler struct {
	driver VolumeDriver
	logger *slog.Logger
}

func NewHandler(driver VolumeDriver, logger *slog.Logger) *Handler {
	return &Handler{driver: driver, logger: logger}
}

func (h *Handler) Activate(c *gin.Context) {
	c.JSON(http.StatusOK, activateResponse{Implements: []string{"VolumeDriver"}})
}

func (h *Handler) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, capabilitiesResponse{Scope: "local"})
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.driver.Create(req.Name, req.Opts); err != nil {
		h.fail(c, "create", req.Name, err)
		return
	}
	c.JSON(http.StatusOK, errResponse{})
}

func (h *Handler) Remove(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.driver.Remove(req.Name); err != nil {
		h.fail(c, "remove", req.Name, err)
		return
	}
	c.JSON(http.StatusOK, errResponse{})
}

func (h *Handler) Mount(c *gin.Context) {
	var req mountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mountpoint, err := h.driver.Mount(req.Name, req.ID)
	if err != nil {
		h.fail(c, "mount", req.Name, err)
		return
	}
	c.JSON(http.StatusOK, mountResponse{Mountpoint: mountpoint})
}

func (h *Handler) Unmount(c *gin.Context) {
	var req mountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.driver.Unmount(req.Name, req.ID); err != nil {
		h.fail(c, "unmount", req.Name, err)
		return
	}
	c.JSON(http.StatusOK, errResponse{})
}

func (h *Handler) Path(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mountpoint, err := h.driver.Path(req.Name)
	if err != nil {
		h.fail(c, "path", req.Name, err)
		return
	}
	c.JSON(http.StatusOK, mountResponse{Mountpoint: mountpoint})
}

func (h *Handler) Get(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	vol, err := h.driver.Get(req.Name)
	if err != nil {
		h.fail(c, "get", req.Name, err)
		return
	}
	c.JSON(http.StatusOK, getResponse{Volume: volumeWire{Name: vol.Name, Mountpoint: vol.Mountpoint}})
}

func (h *Handler) List(c *gin.Context) {
	volumes, err := h.driver.List()
	if err != nil {
		h.fail(c, "list", "", err)
		return
	}

	wire := make([]volumeWire, 0, len(volumes))
	for _, v := range volumes {
		wire = append(wire, volumeWire{Name: v.Name, Mountpoint: v.Mountpoint})
	}
	c.JSON(http.StatusOK, listResponse{Volumes: wire})
}

func (h *Handler) fail(c *gin.Context, op, name string, err error) {
	h.logger.Error("volume operation failed", "op", op, "name", name, "error", err.Error())
	c.JSON(http.StatusBadRequest, errResponse{Err: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errResponse{Err: err.Error()})
}
