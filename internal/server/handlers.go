// SPDX-License-Identifier: EPL-2.0

package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ik5/speechrig"
	"github.com/ik5/speechrig/anim"
	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/formats"
	"github.com/ik5/speechrig/inference"
	"github.com/ik5/speechrig/pipeline"
	"github.com/ik5/speechrig/rig"
)

const (
	contentTypeMsgpack = "application/msgpack"
	requestIDHeader    = "X-Request-Id"
)

// audio MIME types accepted in Content-Type, by decoder format.
var mimeFormats = map[string]string{
	"audio/wav":      "wav",
	"audio/wave":     "wav",
	"audio/x-wav":    "wav",
	"audio/vnd.wave": "wav",
	"audio/mpeg":     "mp3",
	"audio/mp3":      "mp3",
	"audio/ogg":      "ogg",
	"audio/vorbis":   "ogg",
	"audio/aiff":     "aiff",
	"audio/x-aiff":   "aiff",
}

// handleAnimate takes the audio file as the request body. The format comes
// from ?format= or the Content-Type; request options come from the query.
func (s *Server) handleAnimate(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.GetHeader(requestIDHeader)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	c.Header(requestIDHeader, req.ID)

	format, err := requestFormat(c)
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	asset, err := speechrig.Animate(ctx, s.processor, bytes.NewReader(body), format, req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
			"stage": pipeline.StageOf(err).String(),
		})
		return
	}

	if wantsMsgpack(c) {
		data, err := msgpack.Marshal(asset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, contentTypeMsgpack, data)
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": s.processor.State().String(),
		"busy":  s.processor.Busy(),
	})
}

func (s *Server) handleModels(c *gin.Context) {
	reg := s.processor.Models()
	models := gin.H{}
	ready := true

	for _, id := range reg.Models() {
		st, err := reg.State(id)
		entry := gin.H{"state": st.String()}
		if err != nil {
			entry["error"] = err.Error()
		}
		if st == inference.Failed {
			ready = false
		}
		models[string(id)] = entry
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"models": models})
}

func parseRequest(c *gin.Context) (pipeline.Request, error) {
	var req pipeline.Request

	mood, err := rig.ParseMood(c.Query("mood"))
	if err != nil {
		return req, err
	}
	req.Mood = mood

	req.MoodIntensity = 1
	if v := c.Query("mood_intensity"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return req, fmt.Errorf("mood_intensity: %w", err)
		}
		req.MoodIntensity = float32(f)
	}

	if v := c.Query("fps"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("fps: %w", err)
		}
		req.FrameRate = f
	}

	if v := c.Query("offset"); v != "" {
		d, err := parseOffset(v)
		if err != nil {
			return req, fmt.Errorf("offset: %w", err)
		}
		req.Offset = d
	}

	controls, err := rig.ParseOutputControls(c.Query("controls"))
	if err != nil {
		return req, err
	}
	req.Controls = controls

	return req, nil
}

// parseOffset accepts a Go duration ("1.5s") or plain seconds ("1.5").
func parseOffset(v string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: %s", audio.ErrInvalidOffset, v)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func requestFormat(c *gin.Context) (string, error) {
	if f := c.Query("format"); f != "" {
		if !formats.Supported(f) {
			return "", fmt.Errorf("%w: %s", formats.ErrUnsupportedFormat, f)
		}
		return f, nil
	}

	ct := c.GetHeader("Content-Type")
	if ct == "" {
		return "wav", nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("content type: %w", err)
	}
	if f, ok := mimeFormats[mt]; ok {
		return f, nil
	}
	if mt == "application/octet-stream" {
		return "wav", nil
	}
	return "", fmt.Errorf("%w: %s", formats.ErrUnsupportedFormat, mt)
}

func wantsMsgpack(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), contentTypeMsgpack) || c.Query("output") == "msgpack"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrAlreadyProcessing):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrNoInput),
		errors.Is(err, audio.ErrInsufficientAudio),
		errors.Is(err, audio.ErrInvalidOffset),
		errors.Is(err, audio.ErrInvalidChannel),
		errors.Is(err, anim.ErrInvalidFrameRate),
		errors.Is(err, rig.ErrUnknownMood):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inference.ErrModelLoad):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
