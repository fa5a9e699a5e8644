package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YnTheNerd/cleanspot/internal/auth"
	"github.com/YnTheNerd/cleanspot/internal/draft"
	"github.com/YnTheNerd/cleanspot/internal/geocode"
	"github.com/YnTheNerd/cleanspot/internal/models"
	"github.com/YnTheNerd/cleanspot/internal/photo"
	"github.com/YnTheNerd/cleanspot/internal/report"
	"github.com/YnTheNerd/cleanspot/internal/storage"
)

const identityKey = "identity"

type Handler struct {
	reports  *report.Service
	geocoder *geocode.Client
	session  *auth.Session
	provider auth.Provider
}

func NewHandler(reports *report.Service, geocoder *geocode.Client, session *auth.Session, provider auth.Provider) *Handler {
	return &Handler{
		reports:  reports,
		geocoder: geocoder,
		session:  session,
		provider: provider,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/search", h.search)
	r.GET("/api/reverse", h.reverse)

	r.POST("/api/auth/register", h.register)
	r.POST("/api/auth/login", h.login)
	r.POST("/api/auth/logout", h.logout)
	r.POST("/api/auth/reset-password", h.resetPassword)

	authed := r.Group("/api", h.requireIdentity)
	authed.POST("/reports", h.createReport)
	authed.GET("/reports", h.listReports)
	authed.GET("/reports/:id", h.getReport)
	authed.GET("/map", h.mapView)
	authed.GET("/stats", h.stats)
}

// requireIdentity rejects unauthenticated requests with the same
// message the submission pipeline uses.
func (h *Handler) requireIdentity(c *gin.Context) {
	identity := h.session.Current()
	if identity == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": auth.ErrAuthenticationRequired.Error(),
		})
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func identityFrom(c *gin.Context) *auth.Identity {
	v, _ := c.Get(identityKey)
	identity, _ := v.(*auth.Identity)
	return identity
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) search(c *gin.Context) {
	results, err := h.geocoder.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": geocode.MsgSearchFailed})
		return
	}
	if results == nil {
		// Too-short query or a dropped request inside the rate window.
		results = []models.SearchResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) reverse(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || !models.IsValidCoordinate(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordonnées invalides"})
		return
	}

	address, err := h.geocoder.ResolveAddress(c.Request.Context(), lat, lng)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": geocode.MsgSearchFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}

func (h *Handler) createReport(c *gin.Context) {
	identity := identityFrom(c)

	d := draft.New()
	d.SetDescription(c.PostForm("description"))

	if sel, ok := parseLocationForm(c); ok {
		d.SetLocation(sel)
	}

	if file, err := c.FormFile("photo"); err == nil {
		tmp, err := os.CreateTemp("", "cleanspot-upload-*")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": report.MsgSubmitFailed})
			return
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		if err := c.SaveUploadedFile(file, tmp.Name()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": report.MsgSubmitFailed})
			return
		}
		d.SetImage(tmp.Name())
	}

	rep, err := h.reports.Submit(c.Request.Context(), identity, d)
	if err != nil {
		var verr *draft.ValidationError
		var perr *photo.ImageProcessingError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields})
		case errors.As(err, &perr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": gin.H{draft.FieldImage: photo.MsgImageProcessing},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": report.MsgSubmitFailed})
		}
		return
	}

	c.JSON(http.StatusCreated, rep)
}

func parseLocationForm(c *gin.Context) (*models.LocationSelection, bool) {
	latStr, lngStr := c.PostForm("latitude"), c.PostForm("longitude")
	if latStr == "" && lngStr == "" {
		return nil, false
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		return nil, false
	}

	source := models.LocationSource(c.PostForm("source"))
	switch source {
	case models.SourceGPS, models.SourceMap, models.SourceSearch:
	default:
		source = models.SourceMap
	}

	sel := &models.LocationSelection{
		Coordinate: models.Coordinate{Latitude: lat, Longitude: lng},
		Address:    c.PostForm("address"),
		Source:     source,
		SelectedAt: time.Now(),
	}
	if acc, err := strconv.ParseFloat(c.PostForm("accuracy"), 64); err == nil {
		sel.Accuracy = &acc
	}
	if sel.Address == "" {
		sel.Address = models.FormatCoordinate(lat, lng)
	}
	return sel, true
}

func (h *Handler) listReports(c *gin.Context) {
	identity := identityFrom(c)

	pageSize := 20
	if l := c.Query("page_size"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	page, err := h.reports.ListByOwner(c.Request.Context(), identity.UID, pageSize, c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}

	if page.Reports == nil {
		page.Reports = []models.Report{}
	}
	c.JSON(http.StatusOK, gin.H{
		"reports":  page.Reports,
		"cursor":   page.Cursor,
		"has_more": page.HasMore,
	})
}

func (h *Handler) getReport(c *gin.Context) {
	identity := identityFrom(c)

	rep, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report"})
		return
	}
	// Reports are private to their owner.
	if rep.UserID != identity.UID {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// mapView returns the caller's reports as GeoJSON for map rendering.
func (h *Handler) mapView(c *gin.Context) {
	identity := identityFrom(c)

	var reports []models.Report
	cursor := ""
	for {
		page, err := h.reports.ListByOwner(c.Request.Context(), identity.UID, 100, cursor)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
			return
		}
		reports = append(reports, page.Reports...)
		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(reports))
}

func (h *Handler) stats(c *gin.Context) {
	identity := identityFrom(c)

	stats, err := h.reports.Stats(c.Request.Context(), identity.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
