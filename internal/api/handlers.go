package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/steliosk/authpool/internal/credential"
	"github.com/steliosk/authpool/internal/strategy"
)

const maxUploadBytes = 1 << 20

func (a *API) listCredentials(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.Records())
}

func (a *API) uploadCredential(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credential file too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rec, err := a.store.SaveUpload(filepath.Base(file.Filename), data)
	if err != nil {
		if errors.Is(err, credential.ErrInvalidCredentialFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.logger.Error("credential upload failed",
			slog.String("name", file.Filename),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "credential uploaded, rescan to bind it",
		"record":  rec,
	})
}

func (a *API) deleteCredential(c *gin.Context) {
	name := c.Param("name")

	if err := a.store.Delete(name); err != nil {
		switch {
		case errors.Is(err, credential.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, credential.ErrInvalidCredentialFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "credential deleted"})
}

// rescan rediscovers the credential directories, reconfigures the registry
// and re-attempts rotation for any cooling slot. Zero credentials is a
// normal result: the registry ends up with zero eligible slots.
func (a *API) rescan(c *gin.Context) {
	records, err := a.store.Discover()
	if err != nil && !errors.Is(err, credential.ErrNoCredentials) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	a.registry.Bootstrap(records)
	a.failover.RetryCooling()

	c.JSON(http.StatusOK, gin.H{
		"discovered": len(records),
		"slots":      a.registry.Len(),
	})
}

func (a *API) getStrategy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategy": a.dispatcher.StrategyKind()})
}

type strategyRequest struct {
	Strategy string `json:"strategy" binding:"required"`
}

func (a *API) setStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'strategy' field"})
		return
	}

	kind, err := strategy.ParseKind(req.Strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.dispatcher.SetStrategy(kind); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "strategy set", "strategy": kind})
}

func (a *API) listSlots(c *gin.Context) {
	c.JSON(http.StatusOK, a.registry.Snapshot().Slots)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (a *API) setSlotEnabled(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot id must be an integer"})
		return
	}

	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'enabled' field"})
		return
	}

	if err := a.registry.SetEnabled(id, *req.Enabled); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}

func (a *API) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dispatcher":    a.dispatcher.Stats(),
		"cooling_slots": a.failover.Cooling(),
		"credentials":   a.store.Records(),
	})
}

func (a *API) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, a.collector.Snapshot(string(a.dispatcher.StrategyKind())))
}
