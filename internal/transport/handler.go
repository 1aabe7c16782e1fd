package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/truecost-inspector-go/internal/config"
	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
	"github.com/anime-shed/truecost-inspector-go/internal/logger"
	"github.com/anime-shed/truecost-inspector-go/internal/observer"
	"github.com/anime-shed/truecost-inspector-go/internal/service"
	"github.com/anime-shed/truecost-inspector-go/pkg/models"
)

const (
	// RequestIDHeader is read from and echoed to clients.
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	version         = "1.0.0"
)

// StatsProvider exposes analysis counters.
type StatsProvider interface {
	Stats() observer.Stats
}

func NewHandler(svc service.AnalysisService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		corsMiddleware(cfg.AllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(svc, cfg))
	api := r.Group("/api")
	api.POST("/analyze", analyzeImage(svc, cfg))
	api.POST("/normalize", normalizeResult(svc))
	api.GET("/stats", getStats(stats))

	return r
}

func analyzeImage(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		// Nothing is read or fetched when the provider cannot be called.
		if err := svc.Ready(); err != nil {
			respondError(c, err)
			return
		}

		src, err := readSource(c)
		if err != nil {
			respondError(c, err)
			return
		}

		log := logger.FromContext(ctx)
		log.WithFields(logrus.Fields{
			"has_base64": src.Base64 != "",
			"has_url":    src.URL != "",
			"raw_bytes":  len(src.Raw),
		}).Debug("Processing analysis request")

		result, err := svc.Analyze(ctx, src)
		if err != nil {
			respondError(c, err)
			return
		}

		log.WithField("product_name", result["productName"]).Info("Analysis completed")
		c.JSON(http.StatusOK, result)
	}
}

// readSource accepts a JSON body, a multipart form with an "image" file, or a
// raw image body.
func readSource(c *gin.Context) (imagesource.Source, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))

	switch {
	case mediaType == "multipart/form-data":
		fh, err := c.FormFile("image")
		if err != nil {
			if tooLarge(err) {
				return imagesource.Source{}, errBodyTooLarge(err)
			}
			return imagesource.Source{}, apperrors.NewValidationError("No image", imagesource.ErrNoImage)
		}
		f, err := fh.Open()
		if err != nil {
			return imagesource.Source{}, apperrors.NewValidationError("invalid multipart image", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return imagesource.Source{}, apperrors.NewValidationError("invalid multipart image", err)
		}
		return imagesource.Source{Raw: data}, nil

	case strings.HasPrefix(mediaType, "image/") || mediaType == "application/octet-stream":
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			if tooLarge(err) {
				return imagesource.Source{}, errBodyTooLarge(err)
			}
			return imagesource.Source{}, apperrors.NewValidationError("failed to read image body", err)
		}
		return imagesource.Source{Raw: data}, nil

	default:
		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if tooLarge(err) {
				return imagesource.Source{}, errBodyTooLarge(err)
			}
			if errors.Is(err, io.EOF) {
				return imagesource.Source{}, apperrors.NewValidationError("No image", imagesource.ErrNoImage)
			}
			return imagesource.Source{}, apperrors.NewValidationError("invalid request format", err)
		}
		return imagesource.Source{Base64: req.ImageBase64, URL: strings.TrimSpace(req.ImageURL)}, nil
	}
}

func normalizeResult(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			if tooLarge(err) {
				respondError(c, errBodyTooLarge(err))
				return
			}
			respondError(c, apperrors.NewValidationError("failed to read body", err))
			return
		}

		var raw any
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &raw); err != nil {
				respondError(c, apperrors.NewValidationError("invalid JSON body", err))
				return
			}
		}

		doc, markup := svc.Normalize(raw)
		c.JSON(http.StatusOK, models.NormalizeResponse{Result: doc, Markup: markup})
	}
}

func getStats(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Stats())
	}
}

func healthCheck(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "available",
			Version:  version,
			Time:     time.Now().UTC().Format(time.RFC3339),
			Provider: cfg.Provider,
			Model:    cfg.Model,
			Ready:    svc.Ready() == nil,
		})
	}
}

// Middleware and helper functions

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithRequest(c.GetString(requestIDKey)).WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Info("Request handled")
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func errBodyTooLarge(err error) *apperrors.AppError {
	appErr := apperrors.NewValidationError("request body too large", err)
	appErr.StatusCode = http.StatusRequestEntityTooLarge
	return appErr
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error", "type", "details"} and logs the failure.
func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	body := models.ErrorResponse{
		Error: "Unknown error",
		Type:  string(apperrors.ErrorTypeInternal),
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Type = string(appErr.Type)
		if appErr.Provider != nil {
			body.Details = &models.ErrorDetails{
				Status: appErr.Provider.Status,
				Code:   appErr.Provider.Code,
				Type:   appErr.Provider.Type,
			}
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		body.Error = "request timed out"
		body.Type = string(apperrors.ErrorTypeTimeout)
	}

	entry := logger.WithRequest(c.GetString(requestIDKey)).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"error_type":  body.Type,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, body)
}
